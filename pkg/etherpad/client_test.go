package etherpad

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newStubBackend serves a fixed envelope and records the last request's
// method name and query parameters.
type stubBackend struct {
	*httptest.Server

	lastMethod string
	lastQuery  map[string][]string
}

func newStubBackend(t *testing.T, envelope map[string]interface{}) *stubBackend {
	t.Helper()
	stub := &stubBackend{}
	stub.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := r.URL.Path
		stub.lastMethod = parts[len("/api/1.2.1/"):]
		stub.lastQuery = r.URL.Query()
		json.NewEncoder(w).Encode(envelope)
	}))
	t.Cleanup(stub.Close)
	return stub
}

func newStubClient(t *testing.T, stub *stubBackend) *Client {
	t.Helper()
	client, err := NewClient(ConnectionConfig{URL: stub.URL, APIKey: "k"})
	require.NoError(t, err)
	return client
}

func TestClient_CreateGroupPad(t *testing.T) {
	stub := newStubBackend(t, map[string]interface{}{
		"code": 0, "message": "ok",
		"data": map[string]interface{}{"padID": "g1$padname"},
	})
	client := newStubClient(t, stub)

	res := client.CreateGroupPad(context.Background(), "g1", "padname", "hello")

	require.True(t, res.OK())
	assert.Equal(t, "g1$padname", res.GetString("padID"))
	assert.Equal(t, "createGroupPad", stub.lastMethod)
	assert.Equal(t, "g1", stub.lastQuery["groupID"][0])
	assert.Equal(t, "padname", stub.lastQuery["padName"][0])
	assert.Equal(t, "hello", stub.lastQuery["text"][0])
}

func TestClient_CreateGroupPad_OmitsEmptyText(t *testing.T) {
	stub := newStubBackend(t, map[string]interface{}{
		"code": 0, "data": map[string]interface{}{"padID": "g1$n"},
	})
	client := newStubClient(t, stub)

	client.CreateGroupPad(context.Background(), "g1", "n", "")

	_, hasText := stub.lastQuery["text"]
	assert.False(t, hasText)
}

func TestClient_GetLastEditedInternalError(t *testing.T) {
	stub := newStubBackend(t, map[string]interface{}{
		"code": 2, "message": "boom",
	})
	client := newStubClient(t, stub)

	res := client.GetLastEdited(context.Background(), "somepad")

	assert.False(t, res.OK())
	assert.Contains(t, res.Message(), "CODE_INTERNAL_ERROR")
	assert.Contains(t, res.Message(), "boom")
}

func TestClient_SessionExpiryNormalization(t *testing.T) {
	stub := newStubBackend(t, map[string]interface{}{
		"code": 0, "data": map[string]interface{}{"sessionID": "s.1"},
	})
	client := newStubClient(t, stub)
	ctx := context.Background()

	wire := func() int64 {
		v, err := strconv.ParseInt(stub.lastQuery["validUntil"][0], 10, 64)
		require.NoError(t, err)
		return v
	}

	want := time.Now().Add(2 * time.Hour).Unix()

	client.CreateSession(ctx, "g", "a", time.Now().Add(2*time.Hour).Unix())
	fromUnix := wire()
	client.CreateSessionFor(ctx, "g", "a", 2*time.Hour)
	fromDuration := wire()
	client.CreateSessionUntil(ctx, "g", "a", time.Now().Add(2*time.Hour))
	fromTime := wire()

	// All three entry points collapse to the same absolute Unix-second
	// expiry, within a second of each other.
	assert.InDelta(t, want, fromUnix, 1)
	assert.InDelta(t, want, fromDuration, 1)
	assert.InDelta(t, want, fromTime, 1)
}

func TestClient_ReadsAreGETsMutationsArePOSTs(t *testing.T) {
	var gotVerbs []string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotVerbs = append(gotVerbs, r.Method)
		json.NewEncoder(w).Encode(map[string]interface{}{"code": 0})
	}))
	defer backend.Close()

	client, err := NewClient(ConnectionConfig{URL: backend.URL, APIKey: "k"})
	require.NoError(t, err)
	ctx := context.Background()

	client.GetText(ctx, "p")
	client.GetReadOnlyID(ctx, "p")
	client.SetText(ctx, "p", "t")
	client.DeletePad(ctx, "p")
	client.DeleteGroup(ctx, "g")

	assert.Equal(t, []string{"GET", "GET", "POST", "POST", "POST"}, gotVerbs)
}

func TestClient_OptionalRevision(t *testing.T) {
	stub := newStubBackend(t, map[string]interface{}{
		"code": 0, "data": map[string]interface{}{"text": "hi"},
	})
	client := newStubClient(t, stub)
	ctx := context.Background()

	client.GetText(ctx, "p")
	_, hasRev := stub.lastQuery["rev"]
	assert.False(t, hasRev)

	client.GetTextAtRevision(ctx, "p", 3)
	assert.Equal(t, "3", stub.lastQuery["rev"][0])
}

func TestClient_PadURLAndIsSecure(t *testing.T) {
	internal := newStubBackend(t, map[string]interface{}{"code": 0})
	client, err := NewClient(ConnectionConfig{
		URL:         "https://pads.example.com",
		InternalURI: internal.URL,
		APIKey:      "k",
	})
	require.NoError(t, err)

	// Pad links are built from the public URL even when an internal URI is
	// dialed.
	assert.Equal(t, "https://pads.example.com", client.PadURL())
	assert.False(t, client.IsSecure(), "dial target is the plain-HTTP internal URI")
}
