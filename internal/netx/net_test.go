package netx

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_DoesNotFollowRedirects(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/target" {
			t.Error("redirect was followed")
		}
		http.SetCookie(w, &http.Cookie{Name: "c", Value: "v"})
		http.Redirect(w, r, "/target", http.StatusSeeOther)
	}))
	defer ts.Close()

	c := NewClient(time.Second)
	resp, err := c.Get(ts.URL + "/start")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/target", resp.Header.Get("Location"))
	require.Len(t, resp.Cookies(), 1)
	assert.Equal(t, "v", resp.Cookies()[0].Value)
	assert.Equal(t, time.Second, c.Timeout)
}

func TestNewJSONRequest(t *testing.T) {
	t.Run("with body", func(t *testing.T) {
		req, err := NewJSONRequest(context.Background(), http.MethodPost, "http://h/x", map[string]string{"email": "a@b.c"})
		require.NoError(t, err)

		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		b, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"email":"a@b.c"}`, string(b))
	})

	t.Run("without body", func(t *testing.T) {
		req, err := NewJSONRequest(context.Background(), http.MethodGet, "http://h/x", nil)
		require.NoError(t, err)

		assert.Empty(t, req.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", req.Header.Get("Accept"))
		assert.Nil(t, req.Body)
	})

	t.Run("unencodable body", func(t *testing.T) {
		_, err := NewJSONRequest(context.Background(), http.MethodPost, "http://h/x", make(chan int))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "encode request")
	})
}

func TestDecodeJSON(t *testing.T) {
	resp := &http.Response{Body: io.NopCloser(strings.NewReader(`{"accountId":"u1"}`))}
	var out struct {
		AccountID string `json:"accountId"`
	}
	require.NoError(t, DecodeJSON(resp, &out))
	assert.Equal(t, "u1", out.AccountID)

	resp = &http.Response{Body: io.NopCloser(strings.NewReader(`not json`))}
	require.Error(t, DecodeJSON(resp, &out))
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "json error field", body: mustJSON(t, map[string]string{"error": "User already exists."}), want: "User already exists."},
		{name: "empty error field", body: `{"error":""}`, want: "409 Conflict"},
		{name: "plain text", body: "boom", want: "409 Conflict"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{Status: "409 Conflict", Body: io.NopCloser(strings.NewReader(tt.body))}
			assert.Equal(t, tt.want, ErrorMessage(resp))
		})
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
