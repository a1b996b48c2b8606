package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// decodeRequest unmarshals a JSON request body into v.
func decodeRequest(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// respondJSON writes v as a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// parseResourceIDFromURL parses a URL path of the form
// "/api/{apiPath}/{resourceID}[/{subPath}]" and returns the resource ID and
// the remaining sub-path.
func parseResourceIDFromURL(urlPath, apiPath string) (id, rest string, err error) {
	urlPath = strings.TrimPrefix(urlPath, fmt.Sprintf("/api/%s", apiPath))

	var parts []string
	for _, v := range strings.Split(urlPath, "/") {
		if v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return "", "", fmt.Errorf("no resource ID set in URL path")
	}
	return parts[0], strings.Join(parts[1:], "/"), nil
}

// padLink builds a user-facing pad URL on the public backend base URL, with
// the viewer's display name and language as query parameters.
func padLink(padBaseURL, padName, userName, lang string) string {
	values := url.Values{}
	if userName != "" {
		values.Set("userName", userName)
	}
	if lang != "" {
		values.Set("lang", lang)
	}
	link := padBaseURL + "/p/" + url.PathEscape(padName)
	if encoded := values.Encode(); encoded != "" {
		link += "?" + encoded
	}
	return link
}
