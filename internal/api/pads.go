package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/OPEN-ENT-NG/collaborative-editor/internal/auth"
	"github.com/OPEN-ENT-NG/collaborative-editor/internal/explorer"
	"github.com/OPEN-ENT-NG/collaborative-editor/internal/pads"
	"github.com/OPEN-ENT-NG/collaborative-editor/internal/server"
	"github.com/OPEN-ENT-NG/collaborative-editor/pkg/etherpad"
	"github.com/OPEN-ENT-NG/collaborative-editor/pkg/models"
)

// retrieveSessionValidity is how long the session opened by a retrieve is
// valid on the backend.
const retrieveSessionValidity = 2 * time.Hour

// welcome texts by locale, written as the first revision of a new pad.
var welcomeText = map[string]string{
	"fr": "Bienvenue dans votre éditeur collaboratif !",
	"en": "Welcome to your collaborative editor!",
}

type PadPostRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	Locale      string `json:"locale,omitempty"`
}

type PadPutRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Thumbnail   string `json:"thumbnail,omitempty"`
}

type PadResponse struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	OwnerID     string    `json:"ownerId"`
	OwnerName   string    `json:"ownerName,omitempty"`
	Created     time.Time `json:"created"`
	Modified    time.Time `json:"modified"`

	// URL and ReadOnlyURL point at the backend pad; the backend identifiers
	// themselves (pad id, group id) are never exposed.
	URL         string `json:"url,omitempty"`
	ReadOnlyURL string `json:"readOnlyUrl,omitempty"`
}

func padResponse(pad *models.Pad) PadResponse {
	return PadResponse{
		ID:          pad.UUID,
		Name:        pad.Name,
		Description: pad.Description,
		Thumbnail:   pad.Thumbnail,
		OwnerID:     pad.OwnerID,
		OwnerName:   pad.OwnerDisplayName,
		Created:     pad.CreatedAt,
		Modified:    pad.UpdatedAt,
	}
}

// PadsHandler serves the collaborative-editor resource endpoints:
//
//	GET    /api/pads          - list the user's pads
//	POST   /api/pads          - create a pad (backend group+pad, then record)
//	GET    /api/pads/:id      - retrieve one pad, opening a backend session
//	PUT    /api/pads/:id      - update metadata
//	DELETE /api/pads/:id      - delete record and backend artifacts
func PadsHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logArgs := []any{"method", r.Method, "path", r.URL.Path}

		user, ok := auth.FromContext(r.Context())
		if !ok {
			srv.Logger.Debug("user not found in session", logArgs...)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		id, rest, err := parseResourceIDFromURL(r.URL.Path, "pads")
		if err != nil {
			// Collection URL.
			switch r.Method {
			case http.MethodGet:
				listPads(w, r, srv, user)
			case http.MethodPost:
				createPad(w, r, srv, user)
			default:
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			}
			return
		}
		if rest != "" {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}

		switch r.Method {
		case http.MethodGet:
			retrievePad(w, r, srv, user, id)
		case http.MethodPut:
			updatePad(w, r, srv, user, id)
		case http.MethodDelete:
			deletePad(w, r, srv, user, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

// clientForRequest resolves the Etherpad backend serving the request host.
func clientForRequest(srv server.Server, r *http.Request) (*etherpad.Client, error) {
	return srv.Registry.ClientFor(r.Host)
}

func listPads(w http.ResponseWriter, r *http.Request, srv server.Server, user *auth.User) {
	client, err := clientForRequest(srv, r)
	if err != nil {
		srv.Logger.Error("no backend for request host", "host", r.Host, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	visibility := pads.ParseVisibility(r.URL.Query().Get("filter"))
	found, err := srv.Pads.List(r.Context(), user, visibility)
	if err != nil {
		srv.Logger.Error("error listing pads", "error", err)
		http.Error(w, "Error listing pads", http.StatusInternalServerError)
		return
	}

	// Listing answers from the store alone; backend round-trips (sessions,
	// read-only ids) happen on retrieve, not once per listed record.
	lang := requestLang(r)
	resp := make([]PadResponse, 0, len(found))
	for i := range found {
		pad := &found[i]
		item := padResponse(pad)
		item.URL = padLink(client.PadURL(), pad.EpName, user.DisplayName, lang)
		resp = append(resp, item)
	}
	respondJSON(w, http.StatusOK, resp)
}

func createPad(w http.ResponseWriter, r *http.Request, srv server.Server, user *auth.User) {
	client, err := clientForRequest(srv, r)
	if err != nil {
		srv.Logger.Error("no backend for request host", "host", r.Host, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	req := &PadPostRequest{}
	if err := decodeRequest(r, req); err != nil {
		http.Error(w, fmt.Sprintf("Bad request: %q", err), http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "Bad request: name is required", http.StatusBadRequest)
		return
	}
	locale := req.Locale
	if locale == "" {
		locale = requestLang(r)
	}

	// Backend first: one group per editor resource, one pad in it. The
	// group is not cascade-deleted with its pads, so both sides are deleted
	// explicitly on the way out.
	groupRes := client.CreateGroup(r.Context())
	if !groupRes.OK() {
		srv.Logger.Error("error creating backend group", "message", groupRes.Message())
		http.Error(w, groupRes.Message(), http.StatusBadGateway)
		return
	}
	groupID := groupRes.GetString("groupID")

	padRes := client.CreateGroupPad(
		r.Context(), groupID, uuid.New().String(), welcome(locale))
	if !padRes.OK() {
		srv.Logger.Error("error creating backend pad", "message", padRes.Message())
		http.Error(w, padRes.Message(), http.StatusBadGateway)
		return
	}

	pad := &models.Pad{
		Name:        req.Name,
		Description: req.Description,
		Thumbnail:   req.Thumbnail,
		Locale:      locale,
		EpName:      padRes.GetString("padID"),
		EpGroupID:   groupID,
	}
	if err := srv.Pads.Create(r.Context(), pad, user); err != nil {
		srv.Logger.Error("error storing pad record", "error", err)
		http.Error(w, "Error creating pad", http.StatusInternalServerError)
		return
	}

	srv.Explorer.NotifyUpsert(r.Context(), explorer.ResourceFromPad(pad))
	respondJSON(w, http.StatusCreated, padResponse(pad))
}

func retrievePad(w http.ResponseWriter, r *http.Request, srv server.Server, user *auth.User, id string) {
	if !authorize(w, srv, r, user, models.ActionRead, id) {
		return
	}

	pad, err := srv.Pads.Get(r.Context(), id)
	if err != nil {
		respondPadError(w, srv, err)
		return
	}
	client, err := clientForRequest(srv, r)
	if err != nil {
		srv.Logger.Error("no backend for request host", "host", r.Host, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Author mapping is idempotent: one backend author per platform login.
	authorRes := client.CreateAuthorIfNotExistsFor(r.Context(), user.Login, user.DisplayName)
	if !authorRes.OK() {
		srv.Logger.Error("error creating author", "message", authorRes.Message())
		http.Error(w, authorRes.Message(), http.StatusBadGateway)
		return
	}

	sessionRes := client.CreateSessionFor(r.Context(),
		pad.EpGroupID, authorRes.GetString("authorID"), retrieveSessionValidity)
	if !sessionRes.OK() {
		srv.Logger.Error("error creating session", "message", sessionRes.Message())
		http.Error(w, sessionRes.Message(), http.StatusBadGateway)
		return
	}
	setSessionCookie(w, r, sessionRes.GetString("sessionID"), retrieveSessionValidity)

	lang := requestLang(r)
	resp := padResponse(pad)
	resp.URL = padLink(client.PadURL(), pad.EpName, user.DisplayName, lang)

	// A pad whose read-only id cannot be resolved still opens read-write.
	roRes := client.GetReadOnlyID(r.Context(), pad.EpName)
	if roRes.OK() {
		resp.ReadOnlyURL = padLink(
			client.PadURL(), roRes.GetString("readOnlyID"), user.DisplayName, lang)
	} else {
		srv.Logger.Error("error getting read-only id",
			"pad", pad.UUID, "message", roRes.Message())
	}
	respondJSON(w, http.StatusOK, resp)
}

func updatePad(w http.ResponseWriter, r *http.Request, srv server.Server, user *auth.User, id string) {
	if !authorize(w, srv, r, user, models.ActionContrib, id) {
		return
	}

	req := &PadPutRequest{}
	if err := decodeRequest(r, req); err != nil {
		http.Error(w, fmt.Sprintf("Bad request: %q", err), http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "Bad request: name is required", http.StatusBadRequest)
		return
	}

	pad, err := srv.Pads.Update(r.Context(), id, req.Name, req.Description, req.Thumbnail)
	if err != nil {
		respondPadError(w, srv, err)
		return
	}

	srv.Explorer.NotifyUpsert(r.Context(), explorer.ResourceFromPad(pad))
	respondJSON(w, http.StatusOK, padResponse(pad))
}

func deletePad(w http.ResponseWriter, r *http.Request, srv server.Server, user *auth.User, id string) {
	if !authorize(w, srv, r, user, models.ActionManager, id) {
		return
	}

	pad, err := srv.Pads.Get(r.Context(), id)
	if err != nil {
		respondPadError(w, srv, err)
		return
	}
	if err := srv.Pads.Delete(r.Context(), id); err != nil {
		srv.Logger.Error("error deleting pad record", "id", id, "error", err)
		http.Error(w, "Error deleting pad", http.StatusInternalServerError)
		return
	}

	// Backend cleanup is best effort: the record is already gone and a
	// backend failure must not resurrect it.
	if client, err := clientForRequest(srv, r); err == nil {
		if res := client.DeletePad(r.Context(), pad.EpName); !res.OK() {
			srv.Logger.Error("error deleting backend pad", "message", res.Message())
		}
		if res := client.DeleteGroup(r.Context(), pad.EpGroupID); !res.OK() {
			srv.Logger.Error("error deleting backend group", "message", res.Message())
		}
	} else {
		srv.Logger.Error("no backend for request host", "host", r.Host, "error", err)
	}

	srv.Explorer.NotifyDelete(r.Context(), pad.UUID, time.Now().UnixMilli())
	respondJSON(w, http.StatusOK, map[string]string{"_id": pad.UUID})
}

// authorize writes the error response itself when the user may not proceed.
func authorize(w http.ResponseWriter, srv server.Server, r *http.Request, user *auth.User, action, id string) bool {
	allowed, err := srv.Authorizer.Can(r.Context(), user, action, id)
	if err != nil {
		srv.Logger.Error("error checking authorization", "id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return false
	}
	if !allowed {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return false
	}
	return true
}

func respondPadError(w http.ResponseWriter, srv server.Server, err error) {
	if err == pads.ErrNotFound {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	srv.Logger.Error("pad service error", "error", err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

// requestLang extracts the preferred language from Accept-Language,
// defaulting to French like the rest of the portal.
func requestLang(r *http.Request) string {
	accept := r.Header.Get("Accept-Language")
	if accept == "" {
		return "fr"
	}
	lang := accept
	for _, sep := range []string{",", ";", "-"} {
		if i := strings.Index(lang, sep); i >= 0 {
			lang = lang[:i]
		}
	}
	if lang == "" {
		return "fr"
	}
	return lang
}

func welcome(locale string) string {
	if text, ok := welcomeText[locale]; ok {
		return text
	}
	return welcomeText["fr"]
}
