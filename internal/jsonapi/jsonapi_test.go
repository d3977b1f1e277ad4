package jsonapi

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeResponse(t *testing.T) {
	var reply struct {
		Text string `json:"text"`
	}
	err := DecodeResponse(strings.NewReader(`{"text":"Inception"}`), &reply)
	require.NoError(t, err)
	assert.Equal(t, "Inception", reply.Text)
}

func TestDecodeResponseErrorEnvelope(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "gemini numeric code",
			body: `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`,
			want: "code 400: API key not valid",
		},
		{
			name: "openai string code",
			body: `{"error":{"message":"Incorrect API key","type":"invalid_request_error","code":"invalid_api_key"}}`,
			want: "code invalid_api_key: Incorrect API key",
		},
		{
			name: "null code",
			body: `{"error":{"message":"overloaded","code":null}}`,
			want: "overloaded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := DecodeResponse(strings.NewReader(tt.body), &struct{}{})
			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.want, apiErr.Error())
		})
	}
}

func TestDecodeResponseMalformed(t *testing.T) {
	err := DecodeResponse(strings.NewReader(`not json`), &struct{}{})
	assert.ErrorContains(t, err, "failed to decode")
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "Invalid API key: You must be granted a valid key.",
		ErrorMessage(strings.NewReader(`{"status_code":7,"status_message":"Invalid API key: You must be granted a valid key.","success":false}`)))
	assert.Equal(t, "quota exceeded",
		ErrorMessage(strings.NewReader(`{"error":{"message":"quota exceeded"}}`)))
	assert.Equal(t, "Bad Gateway", ErrorMessage(strings.NewReader("  Bad Gateway\n")))
	assert.Len(t, ErrorMessage(strings.NewReader(strings.Repeat("x", 2000))), maxErrorBody)
	assert.Empty(t, ErrorMessage(strings.NewReader("")))
}

func TestEncodeRequest(t *testing.T) {
	r, err := EncodeRequest(map[string]string{"model": "gpt-4o-mini"})
	require.NoError(t, err)
	body, _ := io.ReadAll(r)
	assert.JSONEq(t, `{"model":"gpt-4o-mini"}`, string(body))
}
