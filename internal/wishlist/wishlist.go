// Package wishlist looks up a user's wishlist and picks the image shown when
// the list is embedded elsewhere.
package wishlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/maltedev/wishlily-proxy/internal/models"
)

var (
	ErrEmptyWishlist = errors.New("wishlist has no items")
	ErrNotFound      = errors.New("wishlist not found")
	ErrMissingCover  = errors.New("latest wishlist item has no cover")
	ErrMissingIDs    = errors.New("userId and wishlistId are required")
)

// Source returns the items of a wishlist in insertion order.
type Source interface {
	Items(ctx context.Context, userID, wishlistID string) ([]models.WishlistItem, error)
}

type Service struct {
	source Source
	logger *slog.Logger
}

func NewService(source Source, logger *slog.Logger) *Service {
	return &Service{
		source: source,
		logger: logger.With("component", "wishlist"),
	}
}

// EmbedURL returns the image URL an embed of the wishlist redirects to.
func (s *Service) EmbedURL(ctx context.Context, userID, wishlistID string) (string, error) {
	if userID == "" || wishlistID == "" {
		return "", ErrMissingIDs
	}

	items, err := s.source.Items(ctx, userID, wishlistID)
	if err != nil {
		return "", fmt.Errorf("failed to load wishlist: %w", err)
	}

	target, err := EmbedTarget(items)
	if err != nil {
		return "", err
	}

	s.logger.Debug("resolved embed cover", "wishlist_id", wishlistID, "items", len(items), "target", target)
	return target, nil
}

// LatestItem is the most recently added item, which is the last one.
func LatestItem(items []models.WishlistItem) (models.WishlistItem, error) {
	if len(items) == 0 {
		return models.WishlistItem{}, ErrEmptyWishlist
	}
	return items[len(items)-1], nil
}

// EmbedTarget is the latest item's cover with its query replaced by a webp
// format hint.
func EmbedTarget(items []models.WishlistItem) (string, error) {
	latest, err := LatestItem(items)
	if err != nil {
		return "", err
	}

	cover, _, _ := strings.Cut(latest.Cover, "?")
	if strings.TrimSpace(cover) == "" {
		return "", ErrMissingCover
	}
	return cover + "?format=webp", nil
}
