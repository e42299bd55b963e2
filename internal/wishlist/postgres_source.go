package wishlist

import (
	"context"

	"github.com/maltedev/wishlily-proxy/internal/models"
)

// Store is implemented by *database.DB.
type Store interface {
	WishlistExists(ctx context.Context, userID, wishlistID string) (bool, error)
	ListWishlistItems(ctx context.Context, wishlistID string) ([]models.WishlistItem, error)
}

type PostgresSource struct {
	store Store
}

func NewPostgresSource(store Store) *PostgresSource {
	return &PostgresSource{store: store}
}

func (s *PostgresSource) Items(ctx context.Context, userID, wishlistID string) ([]models.WishlistItem, error) {
	exists, err := s.store.WishlistExists(ctx, userID, wishlistID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}
	return s.store.ListWishlistItems(ctx, wishlistID)
}
