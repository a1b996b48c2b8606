package etherpad

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// Response codes defined by the Etherpad Lite HTTP API.
const (
	CodeOK                = 0
	CodeInvalidParameters = 1
	CodeInternalError     = 2
	CodeInvalidMethod     = 3
	CodeInvalidAPIKey     = 4
)

// Params is a flat set of wire parameters for one API call. A nil value marks
// an optional parameter and is omitted from the encoded request.
type Params map[string]interface{}

// Result is the normalized outcome of one API call. On success it contains
// every field of the response's data object plus "status" = "ok"; on any
// failure (transport, protocol or decode) it contains "status" = "error" and
// a diagnostic "message". Remote failures are always delivered this way and
// never as Go errors.
type Result map[string]interface{}

// OK reports whether the call succeeded.
func (r Result) OK() bool {
	return r["status"] == "ok"
}

// Message returns the diagnostic message of a failed call.
func (r Result) Message() string {
	s, _ := r["message"].(string)
	return s
}

// GetString returns the named data field as a string, or "" if absent or not
// a string.
func (r Result) GetString(key string) string {
	s, _ := r[key].(string)
	return s
}

// GetInt64 returns the named data field as an int64. JSON numbers decode as
// float64, so a conversion is always involved; the backend also serializes
// some counters and timestamps (getLastEdited among them) as decimal strings,
// so those parse too.
func (r Result) GetInt64(key string) (int64, bool) {
	switch v := r[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func okResult(data map[string]interface{}) Result {
	res := make(Result, len(data)+1)
	for k, v := range data {
		res[k] = v
	}
	res["status"] = "ok"
	return res
}

func errorResult(format string, args ...interface{}) Result {
	return Result{
		"status":  "error",
		"message": fmt.Sprintf(format, args...),
	}
}

// codeName returns the diagnostic name of a protocol error code.
func codeName(code int) string {
	switch code {
	case CodeInvalidParameters:
		return "CODE_INVALID_PARAMETERS"
	case CodeInternalError:
		return "CODE_INTERNAL_ERROR"
	case CodeInvalidMethod:
		return "CODE_INVALID_METHOD"
	case CodeInvalidAPIKey:
		return "CODE_INVALID_API_KEY"
	default:
		return ""
	}
}

// encodeQuery serializes params into a URL query string. The API key is always
// injected under the reserved "apikey" key and nil-valued params are dropped.
func encodeQuery(params Params, apiKey string) string {
	values := url.Values{}
	values.Set("apikey", apiKey)
	for key, value := range params {
		if value == nil {
			continue
		}
		values.Set(key, fmt.Sprintf("%v", value))
	}
	return values.Encode()
}

// encodeBody serializes the body params of a POST call as a JSON object,
// dropping nil values.
func encodeBody(params Params) ([]byte, error) {
	body := make(map[string]interface{}, len(params))
	for key, value := range params {
		if value == nil {
			continue
		}
		body[key] = value
	}
	return json.Marshal(body)
}

// envelope is the JSON-RPC-like response wrapper every Etherpad endpoint
// returns.
type envelope struct {
	Code    *int                   `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

// decodeResponse normalizes a raw response body into a Result. Protocol error
// codes embed their name in the message for diagnosability; unknown codes and
// malformed bodies carry the raw body instead.
func decodeResponse(body []byte) Result {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return errorResult("Unable to parse JSON response (%s): %s", body, err)
	}
	if env.Code == nil {
		return errorResult(
			"An unknown error has occurred while handling the response: %s", body)
	}
	switch code := *env.Code; code {
	case CodeOK:
		return okResult(env.Data)
	case CodeInvalidParameters, CodeInternalError, CodeInvalidMethod, CodeInvalidAPIKey:
		return errorResult("%s : %s", codeName(code), env.Message)
	default:
		return errorResult(
			"An unknown error has occurred while handling the response: %s", body)
	}
}
