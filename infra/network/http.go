package network

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kilianp07/metroplan/auth"
	"github.com/kilianp07/metroplan/core/model"
)

// HTTPSource fetches the network as JSON from a remote catalog service.
type HTTPSource struct {
	URL    string
	client *http.Client
	creds  *auth.ClientCred
}

// NewHTTPSource returns a source reading url. Client credentials are used
// when conf is enabled.
func NewHTTPSource(url string, conf auth.Conf) *HTTPSource {
	s := &HTTPSource{URL: url, client: &http.Client{Timeout: 10 * time.Second}}
	if conf.Enabled() {
		s.creds = auth.NewClientCred(conf)
	}
	return s
}

// Network performs the request and validates the payload.
func (s *HTTPSource) Network(ctx context.Context) (model.Network, error) {
	var n model.Network
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return n, err
	}
	req.Header.Set("Accept", "application/json")
	if s.creds != nil {
		if err := s.creds.SetAuthHeader(req); err != nil {
			return n, err
		}
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return n, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return n, fmt.Errorf("network catalog: unexpected status %d: %s", resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(&n); err != nil {
		return n, fmt.Errorf("network catalog: %w", err)
	}
	return n, n.Validate()
}
