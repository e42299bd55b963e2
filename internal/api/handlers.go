// Package api serves the proxy's HTTP endpoints.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/maltedev/wishlily-proxy/internal/metrics"
	"github.com/maltedev/wishlily-proxy/internal/models"
	"github.com/maltedev/wishlily-proxy/internal/parser"
	"github.com/maltedev/wishlily-proxy/internal/resolver"
	"github.com/maltedev/wishlily-proxy/internal/scraper"
)

const (
	indexMessage    = "General API for https://wishlily.app/"
	internalMessage = "Internal error occurred."
)

type ProductScraper interface {
	Search(ctx context.Context, site, query, locale string) ([]models.ProductSummary, error)
	Product(ctx context.Context, site, id, locale string) (*models.ProductDetail, error)
}

type EmbedResolver interface {
	EmbedURL(ctx context.Context, userID, wishlistID string) (string, error)
}

type Handlers struct {
	scraper       ProductScraper
	resolver      *resolver.Resolver
	embeds        EmbedResolver
	defaultLocale string
	logger        *slog.Logger
}

// NewHandlers wires the endpoints. embeds may be nil, in which case /embed
// always fails.
func NewHandlers(s ProductScraper, res *resolver.Resolver, embeds EmbedResolver, defaultLocale string, logger *slog.Logger) *Handlers {
	return &Handlers{
		scraper:       s,
		resolver:      res,
		embeds:        embeds,
		defaultLocale: defaultLocale,
		logger:        logger.With("component", "api"),
	}
}

func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, models.Envelope{Message: indexMessage, Success: true})
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) EtsySearch(w http.ResponseWriter, r *http.Request) {
	h.search(w, r, parser.SiteEtsy)
}

func (h *Handlers) AmazonSearch(w http.ResponseWriter, r *http.Request) {
	h.search(w, r, parser.SiteAmazon)
}

func (h *Handlers) EtsyProduct(w http.ResponseWriter, r *http.Request) {
	h.siteProduct(w, r, parser.SiteEtsy)
}

func (h *Handlers) AmazonProduct(w http.ResponseWriter, r *http.Request) {
	h.siteProduct(w, r, parser.SiteAmazon)
}

func (h *Handlers) search(w http.ResponseWriter, r *http.Request, site string) {
	query := r.URL.Query().Get("q")
	logger := h.requestLogger(r)

	summaries, err := h.scraper.Search(r.Context(), site, query, h.locale(r))
	if err != nil {
		logger.Error("search failed", "site", site, "query", query, "error", err)
		h.respondInternalError(w)
		return
	}

	h.respondJSON(w, http.StatusOK, models.Envelope{Message: summaries, Success: true})
}

// siteProduct serves a site detail page and falls back to the generic
// strategy, with redirects disabled, when the site strategy fails.
func (h *Handlers) siteProduct(w http.ResponseWriter, r *http.Request, site string) {
	id := r.URL.Query().Get("id")
	logger := h.requestLogger(r)

	if id == "" {
		logger.Error("product request without id", "site", site)
		h.respondInternalError(w)
		return
	}

	product, err := h.scraper.Product(r.Context(), site, id, h.locale(r))
	if err != nil {
		target := h.resolver.GenericFallback(scraper.CanonicalLink(site, id))
		logger.Warn("site product failed, falling back to generic",
			"site", site, "id", id, "error", err, "target", target)
		metrics.ObserveRedirect("generic_fallback")
		http.Redirect(w, r, target, http.StatusFound)
		return
	}

	h.respondJSON(w, http.StatusOK, models.NewProductResponse(product))
}

func (h *Handlers) GenericProduct(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	keep := r.URL.Query().Get("keep") == "true"
	logger := h.requestLogger(r)

	decision, err := h.resolver.Resolve(id, keep)
	if err != nil {
		logger.Error("generic product rejected", "id", id, "keep", keep, "error", err)
		h.respondInternalError(w)
		return
	}

	if !decision.Serve {
		logger.Info("redirecting to site endpoint", "id", id, "site", decision.Site, "target", decision.Redirect)
		metrics.ObserveRedirect(decision.Site)
		http.Redirect(w, r, decision.Redirect, http.StatusFound)
		return
	}

	product, err := h.scraper.Product(r.Context(), parser.SiteGeneric, id, h.locale(r))
	if err != nil {
		logger.Error("generic product failed", "id", id, "error", err)
		h.respondInternalError(w)
		return
	}

	h.respondJSON(w, http.StatusOK, models.NewProductResponse(product))
}

func (h *Handlers) Embed(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	wishlistID := r.URL.Query().Get("wishlistId")
	logger := h.requestLogger(r)

	if h.embeds == nil {
		logger.Error("embed requested but no wishlist source is configured")
		h.respondInternalError(w)
		return
	}

	target, err := h.embeds.EmbedURL(r.Context(), userID, wishlistID)
	if err != nil {
		logger.Error("embed failed", "user_id", userID, "wishlist_id", wishlistID, "error", err)
		h.respondInternalError(w)
		return
	}

	metrics.ObserveRedirect("embed")
	http.Redirect(w, r, target, http.StatusFound)
}

// locale is the caller's Accept-Language, forwarded upstream verbatim.
func (h *Handlers) locale(r *http.Request) string {
	if lang := r.Header.Get("Accept-Language"); lang != "" {
		return lang
	}
	return h.defaultLocale
}

func (h *Handlers) requestLogger(r *http.Request) *slog.Logger {
	return h.logger.With("request_id", requestIDFrom(r.Context()))
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondInternalError(w http.ResponseWriter) {
	h.respondJSON(w, http.StatusInternalServerError, models.Envelope{Message: internalMessage, Success: false})
}
