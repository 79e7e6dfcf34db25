// Package proxy forwards an inbound invocation to a running function
// instance and relays its response back.
package proxy

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"time"
)

// outboundTimeout bounds the downstream call to the function instance.
const outboundTimeout = 20 * time.Second

// Result is the outcome of a forwarded call: a status code, body, and
// header set ready to be written onto the inbound ResponseWriter as-is.
type Result struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

// Proxy forwards HTTP requests to function instances over an HTTP
// client configured with the fixed outbound timeout.
type Proxy struct {
	client *http.Client
}

// New constructs a Proxy.
func New() *Proxy {
	return &Proxy{client: &http.Client{Timeout: outboundTimeout}}
}

// Forward builds a request to addr/name carrying query and the
// inbound request's method, headers, and (for POST) body, and relays
// the downstream response. Any method other than GET or POST is
// rejected with a 405 Result before a connection is ever attempted.
func (proxy *Proxy) Forward(ctx context.Context, addr, name string, query url.Values, inboundHeaders http.Header, method string, inboundBody io.Reader) Result {
	if method != http.MethodGet && method != http.MethodPost {
		return Result{
			StatusCode: http.StatusMethodNotAllowed,
			Body:       []byte("We don't currently support " + method + " functions"),
			Header:     http.Header{},
		}
	}

	targetURL := &url.URL{
		Scheme:   "http",
		Host:     addr,
		Path:     "/" + name,
		RawQuery: query.Encode(),
	}

	var bodyReader io.Reader
	if method == http.MethodPost {
		bodyBytes, err := io.ReadAll(inboundBody)
		if err != nil {
			return Result{
				StatusCode: http.StatusBadRequest,
				Body:       []byte("Could not read request body"),
				Header:     http.Header{},
			}
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	outboundRequest, err := http.NewRequestWithContext(ctx, method, targetURL.String(), bodyReader)
	if err != nil {
		return Result{
			StatusCode: http.StatusInternalServerError,
			Body:       []byte("Failed to make downstream request"),
			Header:     http.Header{},
		}
	}
	outboundRequest.Header = inboundHeaders.Clone()

	downstreamResponse, err := proxy.client.Do(outboundRequest)
	if err != nil {
		return Result{
			StatusCode: http.StatusInternalServerError,
			Body:       []byte("Failed to make downstream request"),
			Header:     http.Header{},
		}
	}
	defer downstreamResponse.Body.Close()

	responseBody, err := io.ReadAll(downstreamResponse.Body)
	if err != nil {
		return Result{
			StatusCode: http.StatusInternalServerError,
			Body:       []byte("Failed to read downstream response"),
			Header:     http.Header{},
		}
	}

	// Transfer-Encoding is stripped; the outer server re-frames the
	// response on its own terms.
	responseHeader := downstreamResponse.Header.Clone()
	responseHeader.Del("Transfer-Encoding")

	return Result{
		StatusCode: downstreamResponse.StatusCode,
		Body:       responseBody,
		Header:     responseHeader,
	}
}
