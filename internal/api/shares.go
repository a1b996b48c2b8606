package api

import (
	"fmt"
	"net/http"

	"github.com/OPEN-ENT-NG/collaborative-editor/internal/auth"
	"github.com/OPEN-ENT-NG/collaborative-editor/internal/notifications"
	"github.com/OPEN-ENT-NG/collaborative-editor/internal/server"
	"github.com/OPEN-ENT-NG/collaborative-editor/pkg/models"
)

type ShareEntry struct {
	SubjectID   string `json:"subjectId"`
	SubjectType string `json:"subjectType"`
	Action      string `json:"action"`
}

type SharesPutRequest struct {
	Shares []ShareEntry `json:"shares"`
}

type SharesResponse struct {
	ID     string       `json:"_id"`
	Shares []ShareEntry `json:"shares"`
}

// SharesHandler serves the sharing endpoints of a pad:
//
//	GET    /api/shares/:id  - current sharing
//	PUT    /api/shares/:id  - replace sharing, notify new recipients
//	DELETE /api/shares/:id  - remove sharing for one subject (?subject=)
//
// Managing shares requires the manager action on the pad.
func SharesHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.FromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		id, rest, err := parseResourceIDFromURL(r.URL.Path, "shares")
		if err != nil || rest != "" {
			http.Error(w, "Bad request: pad ID required", http.StatusBadRequest)
			return
		}
		if !authorize(w, srv, r, user, models.ActionManager, id) {
			return
		}

		switch r.Method {
		case http.MethodGet:
			getShares(w, r, srv, id)
		case http.MethodPut:
			putShares(w, r, srv, user, id)
		case http.MethodDelete:
			removeShare(w, r, srv, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

func getShares(w http.ResponseWriter, r *http.Request, srv server.Server, id string) {
	pad, err := srv.Pads.Get(r.Context(), id)
	if err != nil {
		respondPadError(w, srv, err)
		return
	}
	resp := SharesResponse{ID: pad.UUID, Shares: make([]ShareEntry, 0, len(pad.Shares))}
	for _, s := range pad.Shares {
		resp.Shares = append(resp.Shares, ShareEntry{
			SubjectID:   s.SubjectID,
			SubjectType: s.SubjectType,
			Action:      s.Action,
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

func putShares(w http.ResponseWriter, r *http.Request, srv server.Server, user *auth.User, id string) {
	req := &SharesPutRequest{}
	if err := decodeRequest(r, req); err != nil {
		http.Error(w, fmt.Sprintf("Bad request: %q", err), http.StatusBadRequest)
		return
	}
	for _, entry := range req.Shares {
		if entry.SubjectType != "user" && entry.SubjectType != "group" {
			http.Error(w, "Bad request: subjectType must be user or group",
				http.StatusBadRequest)
			return
		}
		switch entry.Action {
		case models.ActionRead, models.ActionContrib, models.ActionManager:
		default:
			http.Error(w, "Bad request: unknown share action", http.StatusBadRequest)
			return
		}
	}

	pad, err := srv.Pads.Get(r.Context(), id)
	if err != nil {
		respondPadError(w, srv, err)
		return
	}

	previous := make(map[string]bool, len(pad.Shares))
	for _, s := range pad.Shares {
		previous[s.SubjectType+":"+s.SubjectID] = true
	}

	shares := make([]models.PadShare, 0, len(req.Shares))
	for _, entry := range req.Shares {
		shares = append(shares, models.PadShare{
			PadID:       pad.ID,
			SubjectID:   entry.SubjectID,
			SubjectType: entry.SubjectType,
			Action:      entry.Action,
		})
	}
	if err := srv.Pads.ReplaceShares(r.Context(), pad, shares); err != nil {
		srv.Logger.Error("error replacing shares", "id", id, "error", err)
		http.Error(w, "Error updating shares", http.StatusInternalServerError)
		return
	}

	// Newly shared-with users get a timeline notification; failures are
	// logged, not surfaced.
	var newUsers []string
	for _, entry := range req.Shares {
		if entry.SubjectType == "user" && !previous["user:"+entry.SubjectID] {
			newUsers = append(newUsers, entry.SubjectID)
		}
	}
	if len(newUsers) > 0 {
		err := srv.Timeline.Notify(r.Context(), notifications.Notification{
			Type:       notifications.TypeShare,
			Recipients: newUsers,
			Locale:     requestLang(r),
			Params: map[string]interface{}{
				"username":    user.DisplayName,
				"resourceUri": "/collaborativeeditor#/view/" + pad.UUID,
			},
		})
		if err != nil {
			srv.Logger.Error("error notifying shared users", "error", err)
		}
	}

	getShares(w, r, srv, id)
}

func removeShare(w http.ResponseWriter, r *http.Request, srv server.Server, id string) {
	subject := r.URL.Query().Get("subject")
	if subject == "" {
		http.Error(w, "Bad request: subject is required", http.StatusBadRequest)
		return
	}
	pad, err := srv.Pads.Get(r.Context(), id)
	if err != nil {
		respondPadError(w, srv, err)
		return
	}
	if err := srv.Pads.RemoveShare(r.Context(), pad, subject); err != nil {
		srv.Logger.Error("error removing share", "id", id, "error", err)
		http.Error(w, "Error removing share", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"_id": pad.UUID})
}
