package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/OPEN-ENT-NG/collaborative-editor/internal/auth"
	"github.com/OPEN-ENT-NG/collaborative-editor/internal/explorer"
	"github.com/OPEN-ENT-NG/collaborative-editor/internal/notifications"
	"github.com/OPEN-ENT-NG/collaborative-editor/internal/pads"
	"github.com/OPEN-ENT-NG/collaborative-editor/internal/search"
	"github.com/OPEN-ENT-NG/collaborative-editor/internal/server"
	"github.com/OPEN-ENT-NG/collaborative-editor/pkg/etherpad"
	"github.com/OPEN-ENT-NG/collaborative-editor/pkg/models"
)

// fakeEtherpad answers the handful of backend methods the handlers call and
// records which were hit.
type fakeEtherpad struct {
	*httptest.Server

	calls []string
}

func newFakeEtherpad(t *testing.T) *fakeEtherpad {
	t.Helper()
	fake := &fakeEtherpad{}
	fake.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := r.URL.Path[len("/api/1.2.1/"):]
		fake.calls = append(fake.calls, method)

		data := map[string]interface{}{}
		switch method {
		case "createGroup":
			data["groupID"] = "g.test1"
		case "createGroupPad":
			data["padID"] = r.URL.Query().Get("groupID") + "$" + r.URL.Query().Get("padName")
		case "createAuthorIfNotExistsFor":
			data["authorID"] = "a.1"
		case "createSession":
			data["sessionID"] = "s.1"
		case "getReadOnlyID":
			data["readOnlyID"] = "r.1"
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code": 0, "message": "ok", "data": data,
		})
	}))
	t.Cleanup(fake.Close)
	return fake
}

func (f *fakeEtherpad) called(method string) bool {
	for _, m := range f.calls {
		if m == method {
			return true
		}
	}
	return false
}

type upsertRecorder struct {
	upserts []explorer.Resource
	deletes []string
}

func (r *upsertRecorder) NotifyUpsert(_ context.Context, res explorer.Resource) {
	r.upserts = append(r.upserts, res)
}

func (r *upsertRecorder) NotifyDelete(_ context.Context, id string, _ int64) {
	r.deletes = append(r.deletes, id)
}

type timelineRecorder struct {
	sent []notifications.Notification
}

func (t *timelineRecorder) Notify(_ context.Context, n notifications.Notification) error {
	t.sent = append(t.sent, n)
	return nil
}

type testEnv struct {
	srv      server.Server
	backend  *fakeEtherpad
	explorer *upsertRecorder
	timeline *timelineRecorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.ModelsToAutoMigrate()...))

	backend := newFakeEtherpad(t)
	registry, err := etherpad.NewRegistry([]etherpad.Target{
		{Domain: "example.com", URL: backend.URL, APIKey: "k"},
	}, nil)
	require.NoError(t, err)

	padsSvc := pads.NewService(db, nil)
	env := &testEnv{
		backend:  backend,
		explorer: &upsertRecorder{},
		timeline: &timelineRecorder{},
	}
	env.srv = server.Server{
		Registry:   registry,
		Pads:       padsSvc,
		Authorizer: auth.NewDBAuthorizer(db),
		Explorer:   env.explorer,
		Timeline:   env.timeline,
		Search:     search.NewEvents(padsSvc, nil),
		DB:         db,
		Logger:     hclog.NewNullLogger(),
	}
	return env
}

var testOwner = &auth.User{
	ID:          "user-1",
	Login:       "jdupont",
	DisplayName: "Jean Dupont",
}

// request builds an authenticated request against the portal host.
func request(user *auth.User, method, target string, body interface{}) *http.Request {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	r := httptest.NewRequest(method, target, reader)
	r.Host = "portal.example.com"
	if user != nil {
		r = r.WithContext(auth.WithUser(r.Context(), user))
	}
	return r
}

func createTestPad(t *testing.T, env *testEnv, name string) PadResponse {
	t.Helper()
	w := httptest.NewRecorder()
	PadsHandler(env.srv).ServeHTTP(w,
		request(testOwner, "POST", "/api/pads", PadPostRequest{Name: name, Locale: "fr"}))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp PadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestPadsHandler_Unauthorized(t *testing.T) {
	env := newTestEnv(t)
	w := httptest.NewRecorder()
	PadsHandler(env.srv).ServeHTTP(w, request(nil, "GET", "/api/pads", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPadsHandler_Create(t *testing.T) {
	env := newTestEnv(t)
	resp := createTestPad(t, env, "My pad")

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "My pad", resp.Name)
	assert.Equal(t, testOwner.ID, resp.OwnerID)

	// The backend group and pad were created before the record.
	assert.True(t, env.backend.called("createGroup"))
	assert.True(t, env.backend.called("createGroupPad"))

	// The record binds the backend identifiers, but never exposes them.
	pad, err := env.srv.Pads.Get(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, "g.test1", pad.EpGroupID)
	assert.True(t, strings.HasPrefix(pad.EpName, "g.test1$"))

	require.Len(t, env.explorer.upserts, 1)
	assert.Equal(t, resp.ID, env.explorer.upserts[0].ID)
}

func TestPadsHandler_List(t *testing.T) {
	env := newTestEnv(t)
	createTestPad(t, env, "First")
	createTestPad(t, env, "Second")

	w := httptest.NewRecorder()
	PadsHandler(env.srv).ServeHTTP(w, request(testOwner, "GET", "/api/pads", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var listed []PadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 2)
	for _, item := range listed {
		assert.Contains(t, item.URL, env.backend.URL+"/p/")
	}

	// Listing never fans out to the backend; links to the read-only view
	// are resolved on retrieve.
	assert.False(t, env.backend.called("getReadOnlyID"))
}

func TestPadsHandler_RetrieveOpensSession(t *testing.T) {
	env := newTestEnv(t)
	created := createTestPad(t, env, "My pad")

	w := httptest.NewRecorder()
	PadsHandler(env.srv).ServeHTTP(w,
		request(testOwner, "GET", "/api/pads/"+created.ID, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.True(t, env.backend.called("createAuthorIfNotExistsFor"))
	assert.True(t, env.backend.called("createSession"))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sessionID", cookies[0].Name)
	assert.Equal(t, "s.1", cookies[0].Value)
	assert.Equal(t, "example.com", cookies[0].Domain)

	var resp PadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.URL, "/p/")
	assert.Contains(t, resp.URL, "userName=Jean+Dupont")
	assert.Contains(t, resp.ReadOnlyURL, "r.1")
}

func TestPadsHandler_StrangerIsForbidden(t *testing.T) {
	env := newTestEnv(t)
	created := createTestPad(t, env, "Private pad")

	stranger := &auth.User{ID: "user-2", Login: "other"}
	w := httptest.NewRecorder()
	PadsHandler(env.srv).ServeHTTP(w,
		request(stranger, "GET", "/api/pads/"+created.ID, nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPadsHandler_SharedReaderCannotUpdate(t *testing.T) {
	env := newTestEnv(t)
	created := createTestPad(t, env, "Shared pad")

	pad, err := env.srv.Pads.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.NoError(t, env.srv.DB.Create(&models.PadShare{
		PadID: pad.ID, SubjectID: "user-2", SubjectType: "user",
		Action: models.ActionRead,
	}).Error)

	reader := &auth.User{ID: "user-2", Login: "reader", DisplayName: "A Reader"}

	w := httptest.NewRecorder()
	PadsHandler(env.srv).ServeHTTP(w,
		request(reader, "GET", "/api/pads/"+created.ID, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	PadsHandler(env.srv).ServeHTTP(w,
		request(reader, "PUT", "/api/pads/"+created.ID,
			PadPutRequest{Name: "Renamed"}))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPadsHandler_Update(t *testing.T) {
	env := newTestEnv(t)
	created := createTestPad(t, env, "Old name")

	w := httptest.NewRecorder()
	PadsHandler(env.srv).ServeHTTP(w,
		request(testOwner, "PUT", "/api/pads/"+created.ID,
			PadPutRequest{Name: "New name", Description: "Updated"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp PadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "New name", resp.Name)
	assert.Equal(t, "Updated", resp.Description)

	// Create then update: two explorer upserts.
	assert.Len(t, env.explorer.upserts, 2)
}

func TestPadsHandler_Delete(t *testing.T) {
	env := newTestEnv(t)
	created := createTestPad(t, env, "Doomed pad")

	w := httptest.NewRecorder()
	PadsHandler(env.srv).ServeHTTP(w,
		request(testOwner, "DELETE", "/api/pads/"+created.ID, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	_, err := env.srv.Pads.Get(context.Background(), created.ID)
	assert.ErrorIs(t, err, pads.ErrNotFound)

	// Both backend artifacts are cleaned up.
	assert.True(t, env.backend.called("deletePad"))
	assert.True(t, env.backend.called("deleteGroup"))
	assert.Equal(t, []string{created.ID}, env.explorer.deletes)
}

func TestPadsHandler_RetrieveUnknownPad(t *testing.T) {
	env := newTestEnv(t)
	w := httptest.NewRecorder()
	PadsHandler(env.srv).ServeHTTP(w,
		request(testOwner, "GET", "/api/pads/does-not-exist", nil))
	// The oracle answers false for an unknown pad, so the caller cannot
	// tell which ids exist.
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSessionsHandler_CreateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	created := createTestPad(t, env, "My pad")

	w := httptest.NewRecorder()
	SessionsHandler(env.srv).ServeHTTP(w,
		request(testOwner, "POST", "/api/sessions/"+created.ID, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "s.1", cookies[0].Value)

	r := request(testOwner, "DELETE", "/api/sessions", nil)
	r.AddCookie(&http.Cookie{Name: "sessionID", Value: "s.1"})
	w = httptest.NewRecorder()
	SessionsHandler(env.srv).ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	assert.True(t, env.backend.called("deleteSession"))
	cookies = w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestSharesHandler_PutNotifiesNewUsers(t *testing.T) {
	env := newTestEnv(t)
	created := createTestPad(t, env, "Shared pad")

	w := httptest.NewRecorder()
	SharesHandler(env.srv).ServeHTTP(w,
		request(testOwner, "PUT", "/api/shares/"+created.ID, SharesPutRequest{
			Shares: []ShareEntry{
				{SubjectID: "user-2", SubjectType: "user", Action: models.ActionContrib},
				{SubjectID: "class-A", SubjectType: "group", Action: models.ActionRead},
			},
		}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp SharesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Shares, 2)

	// Only the new user recipient gets a timeline notification, not the
	// group entry.
	require.Len(t, env.timeline.sent, 1)
	n := env.timeline.sent[0]
	assert.Equal(t, notifications.TypeShare, n.Type)
	assert.Equal(t, []string{"user-2"}, n.Recipients)
	assert.Equal(t, "Jean Dupont", n.Params["username"])
}

func TestSharesHandler_PutIsIdempotentOnNotifications(t *testing.T) {
	env := newTestEnv(t)
	created := createTestPad(t, env, "Shared pad")

	body := SharesPutRequest{Shares: []ShareEntry{
		{SubjectID: "user-2", SubjectType: "user", Action: models.ActionRead},
	}}
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		SharesHandler(env.srv).ServeHTTP(w,
			request(testOwner, "PUT", "/api/shares/"+created.ID, body))
		require.Equal(t, http.StatusOK, w.Code)
	}

	// The second submit re-grants the same share; no repeat notification.
	assert.Len(t, env.timeline.sent, 1)
}

func TestSharesHandler_Remove(t *testing.T) {
	env := newTestEnv(t)
	created := createTestPad(t, env, "Shared pad")

	w := httptest.NewRecorder()
	SharesHandler(env.srv).ServeHTTP(w,
		request(testOwner, "PUT", "/api/shares/"+created.ID, SharesPutRequest{
			Shares: []ShareEntry{
				{SubjectID: "user-2", SubjectType: "user", Action: models.ActionRead},
			},
		}))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	SharesHandler(env.srv).ServeHTTP(w,
		request(testOwner, "DELETE",
			"/api/shares/"+created.ID+"?subject=user-2", nil))
	require.Equal(t, http.StatusOK, w.Code)

	stranger := &auth.User{ID: "user-2", Login: "other"}
	w = httptest.NewRecorder()
	PadsHandler(env.srv).ServeHTTP(w,
		request(stranger, "GET", "/api/pads/"+created.ID, nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSearchHandler(t *testing.T) {
	env := newTestEnv(t)
	createTestPad(t, env, "Histoire de France")
	createTestPad(t, env, "Mathématiques")

	columns := []string{"name", "description", "modified", "ownerName", "ownerId", "url"}
	w := httptest.NewRecorder()
	SearchHandler(env.srv).ServeHTTP(w,
		request(testOwner, "POST", "/api/search", SearchPostRequest{
			AppFilters: []string{search.AppFilter},
			Words:      []string{"histoire"},
			Columns:    columns,
		}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Histoire de France", resp.Results[0]["name"])
}

func TestSearchHandler_OtherAppFilter(t *testing.T) {
	env := newTestEnv(t)
	createTestPad(t, env, "Histoire de France")

	w := httptest.NewRecorder()
	SearchHandler(env.srv).ServeHTTP(w,
		request(testOwner, "POST", "/api/search", SearchPostRequest{
			AppFilters: []string{"blog"},
			Words:      []string{"histoire"},
			Columns:    []string{"a", "b", "c", "d", "e", "f"},
		}))
	require.Equal(t, http.StatusOK, w.Code)

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Results)
}

func TestParseResourceIDFromURL(t *testing.T) {
	tests := []struct {
		path     string
		wantID   string
		wantRest string
		wantErr  bool
	}{
		{"/api/pads/abc", "abc", "", false},
		{"/api/pads/abc/extra", "abc", "extra", false},
		{"/api/pads", "", "", true},
		{"/api/pads/", "", "", true},
	}
	for _, tt := range tests {
		id, rest, err := parseResourceIDFromURL(tt.path, "pads")
		if tt.wantErr {
			assert.Error(t, err, tt.path)
			continue
		}
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.wantID, id)
		assert.Equal(t, tt.wantRest, rest)
	}
}

func TestPadLink(t *testing.T) {
	link := padLink("https://pads.example.com", "g.1$abc", "Jean Dupont", "fr")
	assert.Equal(t,
		fmt.Sprintf("https://pads.example.com/p/%s?lang=fr&userName=Jean+Dupont",
			"g.1$abc"), link)
}
