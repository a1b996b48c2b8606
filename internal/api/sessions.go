package api

import (
	"net/http"
	"time"

	"github.com/OPEN-ENT-NG/collaborative-editor/internal/auth"
	"github.com/OPEN-ENT-NG/collaborative-editor/internal/server"
	"github.com/OPEN-ENT-NG/collaborative-editor/pkg/etherpad"
	"github.com/OPEN-ENT-NG/collaborative-editor/pkg/models"
)

// sessionCookieName is the cookie the Etherpad backend reads to authorize
// access to group pads.
const sessionCookieName = "sessionID"

// sessionValidity is how long an explicitly created session lasts.
const sessionValidity = 1 * time.Hour

// SessionsHandler serves the backend-session endpoints:
//
//	POST   /api/sessions/:id  - open a session on pad :id, set the cookie
//	DELETE /api/sessions      - close the session named by the cookie
func SessionsHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.FromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		switch r.Method {
		case http.MethodPost:
			id, rest, err := parseResourceIDFromURL(r.URL.Path, "sessions")
			if err != nil || rest != "" {
				http.Error(w, "Bad request: pad ID required", http.StatusBadRequest)
				return
			}
			createSession(w, r, srv, user, id)
		case http.MethodDelete:
			deleteSession(w, r, srv)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

func createSession(w http.ResponseWriter, r *http.Request, srv server.Server, user *auth.User, id string) {
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

	authorRes := client.CreateAuthorIfNotExistsFor(r.Context(), user.Login, user.DisplayName)
	if !authorRes.OK() {
		srv.Logger.Error("error creating author", "message", authorRes.Message())
		http.Error(w, authorRes.Message(), http.StatusBadGateway)
		return
	}

	sessionRes := client.CreateSessionFor(r.Context(),
		pad.EpGroupID, authorRes.GetString("authorID"), sessionValidity)
	if !sessionRes.OK() {
		srv.Logger.Error("error creating session", "message", sessionRes.Message())
		http.Error(w, sessionRes.Message(), http.StatusBadGateway)
		return
	}

	setSessionCookie(w, r, sessionRes.GetString("sessionID"), sessionValidity)
	w.WriteHeader(http.StatusOK)
}

func deleteSession(w http.ResponseWriter, r *http.Request, srv server.Server) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		// Nothing to close.
		w.WriteHeader(http.StatusOK)
		return
	}
	client, err := clientForRequest(srv, r)
	if err != nil {
		srv.Logger.Error("no backend for request host", "host", r.Host, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if res := client.DeleteSession(r.Context(), cookie.Value); !res.OK() {
		// The backend forgets expired sessions on its own, so a failed
		// delete still clears the cookie.
		srv.Logger.Warn("error deleting session", "message", res.Message())
	}
	clearSessionCookie(w, r)
	w.WriteHeader(http.StatusOK)
}

// setSessionCookie scopes the backend session cookie to the auth domain so
// the Etherpad iframe, served under the same registrable domain, can read it.
func setSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string, validity time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:   sessionCookieName,
		Value:  sessionID,
		Path:   "/",
		Domain: etherpad.Domain(r.Host),
		MaxAge: int(validity.Seconds()),
	})
}

func clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:   sessionCookieName,
		Value:  "deleted",
		Path:   "/",
		Domain: etherpad.Domain(r.Host),
		MaxAge: -1,
	})
}
