// Package scraper runs the fetch-then-extract pipeline for each supported site.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/maltedev/wishlily-proxy/internal/fetcher"
	"github.com/maltedev/wishlily-proxy/internal/metrics"
	"github.com/maltedev/wishlily-proxy/internal/parser"
)

var (
	ErrUnsupportedSite = errors.New("unsupported site")
	ErrEmptyQuery      = errors.New("search query is empty")
)

const (
	etsyOrigin   = "https://etsy.com"
	amazonOrigin = "https://amazon.com"
)

// PageSource returns page bodies, normally through the fetch cache.
type PageSource interface {
	GetOrFetch(ctx context.Context, url, locale string) (string, error)
}

type Service struct {
	pages          PageSource
	searchParsers  map[string]parser.SearchParser
	productParsers map[string]parser.ProductParser
	logger         *slog.Logger
}

func NewService(pages PageSource, logger *slog.Logger) *Service {
	etsy := parser.NewEtsyParser()
	amazon := parser.NewAmazonParser()

	return &Service{
		pages: pages,
		searchParsers: map[string]parser.SearchParser{
			parser.SiteEtsy:   etsy,
			parser.SiteAmazon: amazon,
		},
		productParsers: map[string]parser.ProductParser{
			parser.SiteEtsy:    etsy,
			parser.SiteAmazon:  amazon,
			parser.SiteGeneric: parser.NewGenericParser(),
		},
		logger: logger.With("component", "scraper"),
	}
}

// SearchURL is the upstream search page for query on site.
func SearchURL(site, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", ErrEmptyQuery
	}
	switch site {
	case parser.SiteEtsy:
		return etsyOrigin + "/search?q=" + url.QueryEscape(query), nil
	case parser.SiteAmazon:
		return amazonOrigin + "/s?k=" + url.QueryEscape(query), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedSite, site)
}

// ProductURL is the upstream product page for id on site. For the generic
// site id is already a URL.
func ProductURL(site, id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", &parser.MalformedIdentifierError{Input: id, Pattern: "non-empty id"}
	}
	switch site {
	case parser.SiteEtsy:
		return etsyOrigin + "/listing/" + strings.TrimLeft(id, "/"), nil
	case parser.SiteAmazon:
		return amazonOrigin + "/" + strings.TrimLeft(id, "/"), nil
	case parser.SiteGeneric:
		return id, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedSite, site)
}

func status(err error) string {
	var fetchErr *fetcher.FetchError
	var malformed *parser.MalformedIdentifierError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &fetchErr):
		return "fetch_error"
	case parser.IsExtractionError(err):
		return "extraction_error"
	case errors.As(err, &malformed):
		return "malformed_id"
	}
	return "error"
}

func observe(site, operation string, err error) {
	metrics.ObserveScrape(site, operation, status(err))
}
