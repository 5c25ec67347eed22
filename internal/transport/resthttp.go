package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dchest/uniuri"
	"github.com/pkg/errors"
)

// RESTHTTP drives a capture device exposing a JSON-over-HTTP command API.
// Each command maps to a POST on a per-command path keyed by the API key:
//
//	POST http://addr:port/<command>/<apikey>
//
// The command fields travel as the JSON body.
type RESTHTTP struct {
	BaseURL string
	APIKey  string

	client *http.Client
}

// NewRESTHTTP creates a transport for a REST capture device at host:port.
func NewRESTHTTP(host string, port int, apiKey string) *RESTHTTP {
	return &RESTHTTP{
		BaseURL: fmt.Sprintf("http://%s:%d", host, port),
		APIKey:  apiKey,
	}
}

// Open prepares the HTTP client. The protocol is connectionless, so there is
// no handshake; the first heartbeat validates reachability.
func (t *RESTHTTP) Open(ctx context.Context) error {
	t.client = &http.Client{Timeout: defaultCallTimeout}
	return nil
}

// Send POSTs one command and blocks for the response.
func (t *RESTHTTP) Send(ctx context.Context, name string, fields map[string]any) (Reply, error) {
	if t.client == nil {
		return Reply{}, errors.New("http transport is not open")
	}

	body, err := json.Marshal(fields)
	if err != nil {
		return Reply{}, errors.Wrapf(err, "failed to encode %s body", name)
	}

	url := fmt.Sprintf("%s/%s/%s", t.BaseURL, name, t.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Reply{}, errors.Wrapf(err, "failed to build %s request", name)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uniuri.New())

	resp, err := t.client.Do(req)
	if err != nil {
		return Reply{}, errors.Wrapf(err, "failed to post %s to %s", name, t.BaseURL)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Reply{}, errors.Wrapf(err, "failed to read %s response", name)
	}

	return Reply{
		OK:   resp.StatusCode >= 200 && resp.StatusCode < 300,
		Data: data,
	}, nil
}

// Close drops idle connections.
func (t *RESTHTTP) Close() error {
	if t.client != nil {
		t.client.CloseIdleConnections()
		t.client = nil
	}
	return nil
}
