package database

import (
	"context"
	"fmt"

	"github.com/maltedev/wishlily-proxy/internal/models"
)

// WishlistExists reports whether the wishlist belongs to the user.
func (db *DB) WishlistExists(ctx context.Context, userID, wishlistID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM wishlists WHERE id = $1 AND user_id = $2
		)`

	var exists bool
	if err := db.pool.QueryRow(ctx, query, wishlistID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check wishlist: %w", err)
	}
	return exists, nil
}

// ListWishlistItems returns the items of a wishlist, oldest first.
func (db *DB) ListWishlistItems(ctx context.Context, wishlistID string) ([]models.WishlistItem, error) {
	query := `
		SELECT id, title, COALESCE(price, ''), cover, link
		FROM wishlist_items
		WHERE wishlist_id = $1
		ORDER BY added_at ASC`

	rows, err := db.pool.Query(ctx, query, wishlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query wishlist items: %w", err)
	}
	defer rows.Close()

	var items []models.WishlistItem
	for rows.Next() {
		var item models.WishlistItem
		if err := rows.Scan(&item.ID, &item.Title, &item.Price, &item.Cover, &item.Link); err != nil {
			return nil, fmt.Errorf("failed to scan wishlist item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read wishlist items: %w", err)
	}

	return items, nil
}
