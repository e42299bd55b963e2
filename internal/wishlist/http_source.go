package wishlist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/maltedev/wishlily-proxy/internal/models"
)

const defaultHTTPTimeout = 10 * time.Second

// HTTPSource reads wishlists from the backend's list endpoint.
type HTTPSource struct {
	endpoint string
	client   *http.Client
}

type listRequest struct {
	WishlistID string `json:"wishlistId"`
	UserID     string `json:"userId"`
}

func NewHTTPSource(endpoint string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &HTTPSource{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Items(ctx context.Context, userID, wishlistID string) ([]models.WishlistItem, error) {
	payload, err := json.Marshal(listRequest{WishlistID: wishlistID, UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call wishlist endpoint: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("wishlist endpoint returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var items []models.WishlistItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode wishlist: %w", err)
	}
	return items, nil
}
