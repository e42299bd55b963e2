package wishlist

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/maltedev/wishlily-proxy/internal/database"
	"github.com/maltedev/wishlily-proxy/internal/models"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedTarget(t *testing.T) {
	tests := []struct {
		name     string
		items    []models.WishlistItem
		expected string
		err      error
	}{
		{
			name: "last item wins and query is replaced",
			items: []models.WishlistItem{
				{Cover: "https://i.etsystatic.com/old.jpg"},
				{Cover: "https://m.media-amazon.com/new.jpg?width=400&fit=cover"},
			},
			expected: "https://m.media-amazon.com/new.jpg?format=webp",
		},
		{
			name:     "cover without query",
			items:    []models.WishlistItem{{Cover: "https://cdn.example.com/a.png"}},
			expected: "https://cdn.example.com/a.png?format=webp",
		},
		{
			name: "empty list",
			err:  ErrEmptyWishlist,
		},
		{
			name:  "latest item without cover",
			items: []models.WishlistItem{{Cover: "https://cdn.example.com/a.png"}, {Title: "no cover"}},
			err:   ErrMissingCover,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EmbedTarget(tt.items)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestHTTPSource(t *testing.T) {
	var received listRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		switch received.WishlistID {
		case "missing":
			w.WriteHeader(http.StatusNotFound)
		case "broken":
			http.Error(w, "upstream exploded", http.StatusInternalServerError)
		default:
			_ = json.NewEncoder(w).Encode([]models.WishlistItem{
				{ID: "1", Title: "Mug", Cover: "https://i.etsystatic.com/mug.jpg?v=2"},
				{ID: "2", Title: "Lamp", Cover: "https://m.media-amazon.com/lamp.jpg?x=1"},
			})
		}
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, time.Second)
	ctx := context.Background()

	items, err := src.Items(ctx, "user-1", "list-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Lamp", items[1].Title)
	assert.Equal(t, listRequest{WishlistID: "list-1", UserID: "user-1"}, received)

	_, err = src.Items(ctx, "user-1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = src.Items(ctx, "user-1", "broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "returned 500")
}

func TestServiceEmbedURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"cover":"https://a.test/1.jpg"},{"cover":"https://a.test/2.jpg?size=l"}]`))
	}))
	defer srv.Close()

	svc := NewService(NewHTTPSource(srv.URL, time.Second), slog.Default())

	target, err := svc.EmbedURL(context.Background(), "user-1", "list-1")
	require.NoError(t, err)
	assert.Equal(t, "https://a.test/2.jpg?format=webp", target)

	_, err = svc.EmbedURL(context.Background(), "", "list-1")
	assert.ErrorIs(t, err, ErrMissingIDs)
}

func TestPostgresSource(t *testing.T) {
	ctx := context.Background()

	newSource := func(t *testing.T) (*PostgresSource, pgxmock.PgxPoolIface) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		t.Cleanup(mock.Close)
		db, err := database.NewWithPool(mock)
		require.NoError(t, err)
		return NewPostgresSource(db), mock
	}

	t.Run("items in insertion order", func(t *testing.T) {
		src, mock := newSource(t)
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("list-1", "user-1").
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectQuery("SELECT id, title").
			WithArgs("list-1").
			WillReturnRows(pgxmock.NewRows([]string{"id", "title", "price", "cover", "link"}).
				AddRow("1", "Mug", "$24.00", "https://a.test/mug.jpg", "https://etsy.com/listing/1").
				AddRow("2", "Lamp", "", "https://a.test/lamp.jpg?q=1", "https://amazon.com/dp/B07ABCDEFG"))

		items, err := src.Items(ctx, "user-1", "list-1")
		require.NoError(t, err)

		target, err := EmbedTarget(items)
		require.NoError(t, err)
		assert.Equal(t, "https://a.test/lamp.jpg?format=webp", target)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown wishlist", func(t *testing.T) {
		src, mock := newSource(t)
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("list-9", "user-1").
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

		_, err := src.Items(ctx, "user-1", "list-9")
		assert.ErrorIs(t, err, ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error", func(t *testing.T) {
		src, mock := newSource(t)
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("list-1", "user-1").
			WillReturnError(errors.New("connection reset"))

		_, err := src.Items(ctx, "user-1", "list-1")
		assert.Error(t, err)
	})
}
