package etherpad

import (
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeQuery(t *testing.T) {
	query := encodeQuery(Params{
		"padID": "g1$pad",
		"rev":   7,
		"text":  nil,
	}, "secret")

	values, err := url.ParseQuery(query)
	require.NoError(t, err)

	assert.Equal(t, "secret", values.Get("apikey"))
	assert.Equal(t, "g1$pad", values.Get("padID"))
	assert.Equal(t, "7", values.Get("rev"))
	// Nil-valued params are omitted entirely.
	_, hasText := values["text"]
	assert.False(t, hasText)
	// Every key appears exactly once.
	for key, vals := range values {
		assert.Len(t, vals, 1, "key %q", key)
	}
}

func TestEncodeQuery_AlwaysInjectsAPIKey(t *testing.T) {
	values, err := url.ParseQuery(encodeQuery(nil, "k"))
	require.NoError(t, err)
	assert.Equal(t, "k", values.Get("apikey"))
}

func TestResult_GetInt64(t *testing.T) {
	// The backend serializes getLastEdited sometimes as a number and
	// sometimes as a decimal string; both shapes must yield the timestamp.
	res := decodeResponse([]byte(`{"code":0,"data":{"lastEdited":1437450347764}}`))
	got, ok := res.GetInt64("lastEdited")
	require.True(t, ok)
	assert.Equal(t, int64(1437450347764), got)

	res = decodeResponse([]byte(`{"code":0,"data":{"lastEdited":"1437450347764"}}`))
	got, ok = res.GetInt64("lastEdited")
	require.True(t, ok)
	assert.Equal(t, int64(1437450347764), got)

	res = decodeResponse([]byte(`{"code":0,"data":{"lastEdited":"soon"}}`))
	_, ok = res.GetInt64("lastEdited")
	assert.False(t, ok)

	_, ok = res.GetInt64("missing")
	assert.False(t, ok)
}

func TestDecodeResponse_Success(t *testing.T) {
	res := decodeResponse([]byte(`{"code":0,"message":"ok","data":{"a":1,"b":"x"}}`))

	assert.True(t, res.OK())
	assert.Equal(t, "ok", res["status"])
	assert.Equal(t, float64(1), res["a"])
	assert.Equal(t, "x", res["b"])
}

func TestDecodeResponse_SuccessWithoutData(t *testing.T) {
	res := decodeResponse([]byte(`{"code":0,"message":"ok","data":null}`))
	assert.True(t, res.OK())
}

func TestDecodeResponse_ProtocolErrors(t *testing.T) {
	tests := []struct {
		code     int
		wantName string
	}{
		{1, "CODE_INVALID_PARAMETERS"},
		{2, "CODE_INTERNAL_ERROR"},
		{3, "CODE_INVALID_METHOD"},
		{4, "CODE_INVALID_API_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.wantName, func(t *testing.T) {
			body := []byte(fmt.Sprintf(`{"code":%d,"message":"boom"}`, tt.code))
			res := decodeResponse(body)

			assert.False(t, res.OK())
			assert.Contains(t, res.Message(), tt.wantName)
			assert.Contains(t, res.Message(), "boom")
		})
	}
}

func TestDecodeResponse_UnknownCode(t *testing.T) {
	res := decodeResponse([]byte(`{"code":42,"message":"weird"}`))

	assert.False(t, res.OK())
	// Unknown codes carry the raw body for debugging.
	assert.Contains(t, res.Message(), `"code":42`)
}

func TestDecodeResponse_MissingCode(t *testing.T) {
	res := decodeResponse([]byte(`{"message":"no code here"}`))
	assert.False(t, res.OK())
}

func TestDecodeResponse_MalformedJSON(t *testing.T) {
	res := decodeResponse([]byte(`<html>definitely not json</html>`))

	assert.False(t, res.OK())
	assert.Contains(t, res.Message(), "Unable to parse JSON response")
	assert.Contains(t, res.Message(), "definitely not json")
}
