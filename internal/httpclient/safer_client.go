// Package httpclient wraps http.Client with the one behavior metrics.Client
// needs beyond the standard library default: a bounded redirect count. The
// metrics server address is an operator-supplied config value
// (config.Options.MetricsServer), never request- or user-supplied, so this
// has no request-time URL validation, scheme allowlist, or private-IP
// blocking to configure — there is no varying caller to protect against.
package httpclient

import (
	"net/http"
	"time"

	"github.com/DDNStorage/qosd/errors"
)

// maxRedirects bounds how many hops a query to the metrics store will
// follow before giving up.
const maxRedirects = 10

// Client wraps http.Client with a bounded redirect count.
type Client struct {
	*http.Client
}

// New builds a Client with the given timeout.
func New(timeout time.Duration) *Client {
	c := &Client{Client: &http.Client{Timeout: timeout}}
	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return errors.Newf("stopped after %d redirects", maxRedirects)
		}
		return nil
	}
	return c
}

// Wrap adapts an existing http.Client, for tests that need a client
// pointed at an httptest.Server.
func Wrap(client *http.Client) *Client {
	return &Client{Client: client}
}
