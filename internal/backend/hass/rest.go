package hass

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nerrad567/beolink-bridge/internal/infrastructure/config"
)

// Camera frames can be slow to produce on battery cameras.
const defaultRESTTimeout = 15 * time.Second

// restClient covers the few endpoints the WebSocket API doesn't serve.
type restClient struct {
	base  string
	token string
	httpc *http.Client
}

func newRESTClient(cfg config.BackendConfig) restClient {
	return restClient{
		base:  strings.TrimSuffix(cfg.URL, "/"),
		token: cfg.Token,
		httpc: &http.Client{Timeout: defaultRESTTimeout},
	}
}

// cameraImage fetches one still frame for a camera entity.
func (r restClient) cameraImage(ctx context.Context, entityID string) ([]byte, error) {
	url := fmt.Sprintf("%s/api/camera_proxy/%s", r.base, entityID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building camera request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.token)

	resp, err := r.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching camera image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("camera proxy returned %d for %s", resp.StatusCode, entityID)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading camera image: %w", err)
	}
	return data, nil
}
