package scraper

import (
	"context"
	"fmt"

	"github.com/maltedev/wishlily-proxy/internal/models"
	"github.com/maltedev/wishlily-proxy/internal/parser"
)

// Product scrapes a single product page. id is a listing id for etsy, a
// "/dp/<asin>" style path for amazon and a full URL for generic.
func (s *Service) Product(ctx context.Context, site, id, locale string) (_ *models.ProductDetail, err error) {
	defer func() { observe(site, "product", err) }()

	p, ok := s.productParsers[site]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSite, site)
	}

	productURL, err := ProductURL(site, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("scraping product", "site", site, "id", id, "url", productURL)

	html, err := s.pages.GetOrFetch(ctx, productURL, locale)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product page: %w", err)
	}

	product, err := p.ParseProduct(html)
	if err != nil {
		return nil, fmt.Errorf("failed to parse product: %w", err)
	}

	product.Link = CanonicalLink(site, id)
	if problems := product.Validate(); len(problems) > 0 {
		s.logger.Warn("incomplete product", "site", site, "id", id, "problems", problems)
		return nil, &parser.ExtractionError{Site: site, Field: "product"}
	}

	return product, nil
}

// CanonicalLink is the link reported for a product, which is also what the
// generic fallback is given when the site strategy fails.
func CanonicalLink(site, id string) string {
	link, err := ProductURL(site, id)
	if err != nil {
		return id
	}
	return link
}
