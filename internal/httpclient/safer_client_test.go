package httpclient

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SetsTimeout(t *testing.T) {
	client := New(30 * time.Second)

	require.NotNil(t, client)
	assert.Equal(t, 30*time.Second, client.Timeout)
}

func TestNew_BlocksAfterMaxRedirects(t *testing.T) {
	client := New(time.Second)

	var hops []*http.Request
	for i := 0; i < maxRedirects; i++ {
		hops = append(hops, &http.Request{})
	}

	err := client.CheckRedirect(&http.Request{}, hops)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stopped after")
}

func TestNew_AllowsRedirectsUnderLimit(t *testing.T) {
	client := New(time.Second)

	err := client.CheckRedirect(&http.Request{}, []*http.Request{{}})
	assert.NoError(t, err)
}

func TestWrap_DoesRealRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := Wrap(srv.Client())
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
