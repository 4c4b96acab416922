package geocode

import (
	"net/http"
	"strings"

	"golang.org/x/time/rate"
)

// newTestLimiter returns an unbounded limiter so tests never sleep.
func newTestLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Inf, 1)
}

// newRewriteClient returns an HTTP client whose requests to endpoint are
// redirected to an httptest server, everything after the prefix preserved.
func newRewriteClient(serverURL, endpoint string) *http.Client {
	return &http.Client{
		Transport: &rewriteTransport{
			next:     http.DefaultTransport,
			server:   serverURL,
			endpoint: endpoint,
		},
	}
}

type rewriteTransport struct {
	next     http.RoundTripper
	server   string
	endpoint string
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	orig := req.URL.String()
	if !strings.HasPrefix(orig, t.endpoint) {
		return t.next.RoundTrip(req)
	}
	target, err := req.URL.Parse(t.server + orig[len(t.endpoint):])
	if err != nil {
		return nil, err
	}
	redirected := req.Clone(req.Context())
	redirected.URL = target
	redirected.Host = target.Host
	return t.next.RoundTrip(redirected)
}
