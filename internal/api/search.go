package api

import (
	"fmt"
	"net/http"

	"github.com/OPEN-ENT-NG/collaborative-editor/internal/auth"
	"github.com/OPEN-ENT-NG/collaborative-editor/internal/search"
	"github.com/OPEN-ENT-NG/collaborative-editor/internal/server"
)

type SearchPostRequest struct {
	AppFilters []string `json:"appFilters"`
	Words      []string `json:"words"`
	Page       int      `json:"page"`
	Limit      int      `json:"limit"`
	Columns    []string `json:"columnsHeader"`
}

type SearchResponse struct {
	Status  string                   `json:"status"`
	Results []map[string]interface{} `json:"results"`
}

// SearchHandler answers the platform's search facade: POST /api/search with
// the query words, filters and expected column shape.
func SearchHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		user, ok := auth.FromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		req := &SearchPostRequest{}
		if err := decodeRequest(r, req); err != nil {
			http.Error(w, fmt.Sprintf("Bad request: %q", err), http.StatusBadRequest)
			return
		}

		rows, err := srv.Search.SearchResource(r.Context(), user, search.Request{
			AppFilters: req.AppFilters,
			Words:      req.Words,
			Page:       req.Page,
			Limit:      req.Limit,
			Columns:    req.Columns,
		})
		if err != nil {
			srv.Logger.Error("error answering search event", "error", err)
			http.Error(w, "Error searching pads", http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusOK, SearchResponse{Status: "ok", Results: rows})
	})
}
