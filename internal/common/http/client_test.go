package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Get(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(5*time.Second, "contract-bot-test")
	resp, err := c.Get(context.Background(), srv.URL+"/exec?fixed=1", url.Values{"action": {"contracts"}}, map[string]string{"X-Request-ID": "abc"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))
	require.NotNil(t, got)
	assert.Equal(t, "/exec", got.URL.Path)
	assert.Equal(t, "1", got.URL.Query().Get("fixed"))
	assert.Equal(t, "contracts", got.URL.Query().Get("action"))
	assert.Equal(t, "abc", got.Header.Get("X-Request-ID"))
	assert.Equal(t, "contract-bot-test", got.Header.Get("User-Agent"))
	assert.Equal(t, "application/json", got.Header.Get("Accept"))
}

func TestClient_GetInvalidURL(t *testing.T) {
	c := NewClient(time.Second, "")
	_, err := c.Get(context.Background(), "://bad", nil, nil)
	assert.Error(t, err)
}

func TestClient_GetCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewClient(time.Second, "").Get(ctx, srv.URL, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_DoSetsUserAgent(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodPost, srv.URL, nil)
	require.NoError(t, err)
	resp, err := NewClient(time.Second, "contract-bot").Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "contract-bot", ua)
}
