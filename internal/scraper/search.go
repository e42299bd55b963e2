package scraper

import (
	"context"
	"fmt"

	"github.com/maltedev/wishlily-proxy/internal/models"
	"github.com/maltedev/wishlily-proxy/internal/parser"
)

// Search fetches the site's search page for query and returns the complete
// listings in page order. Incomplete cards are skipped and logged.
func (s *Service) Search(ctx context.Context, site, query, locale string) (_ []models.ProductSummary, err error) {
	defer func() { observe(site, "search", err) }()

	p, ok := s.searchParsers[site]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSite, site)
	}

	searchURL, err := SearchURL(site, query)
	if err != nil {
		return nil, err
	}

	s.logger.Info("scraping search results", "site", site, "url", searchURL)

	html, err := s.pages.GetOrFetch(ctx, searchURL, locale)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch search page: %w", err)
	}

	results, err := p.ExtractSearch(html)
	if err != nil {
		return nil, fmt.Errorf("failed to extract search results: %w", err)
	}

	for i, r := range results {
		if r.Skipped() {
			s.logger.Debug("skipping listing card", "site", site, "index", i, "reason", r.Err)
		}
	}

	summaries := parser.Collect(results)
	s.logger.Info("found listings", "site", site, "count", len(summaries), "cards", len(results))

	return summaries, nil
}
