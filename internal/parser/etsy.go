package parser

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/wishlily-proxy/internal/models"
)

var (
	etsyListingPattern = regexp.MustCompile(`.*?listing/(.*)`)
	etsyWhitespace     = regexp.MustCompile(`\s+`)
)

type EtsyParser struct{}

func NewEtsyParser() *EtsyParser {
	return &EtsyParser{}
}

func (p *EtsyParser) Site() string {
	return SiteEtsy
}

func (p *EtsyParser) ExtractSearch(html string) ([]Result, error) {
	doc, err := newDocument(html)
	if err != nil {
		return nil, err
	}

	cards := doc.Find(".v2-listing-card")
	if cards.Length() == 0 {
		return nil, &ExtractionError{Site: SiteEtsy, Field: "listing cards"}
	}

	results := make([]Result, 0, cards.Length())
	cards.Each(func(i int, card *goquery.Selection) {
		summary, err := p.extractCard(card)
		results = append(results, Result{Summary: summary, Err: err})
	})

	return results, nil
}

func (p *EtsyParser) extractCard(card *goquery.Selection) (models.ProductSummary, error) {
	info := card.Find(".v2-listing-card__info").First()
	if info.Length() == 0 {
		return models.ProductSummary{}, &ExtractionError{Site: SiteEtsy, Field: "card info"}
	}

	title := cleanText(info.Find(".v2-listing-card__title").First().Text())
	if title == "" {
		return models.ProductSummary{}, &ExtractionError{Site: SiteEtsy, Field: "title"}
	}

	cover, ok := captureFromMarkup(card.Find(".wt-width-full"), srcPattern)
	if !ok {
		return models.ProductSummary{}, &ExtractionError{Site: SiteEtsy, Field: "cover"}
	}

	price, ok := joinParts(info, ".currency-symbol", ".currency-value")
	if !ok {
		return models.ProductSummary{}, &ExtractionError{Site: SiteEtsy, Field: "price"}
	}

	link, ok := captureFromMarkup(card, queryHrefPattern)
	if !ok {
		return models.ProductSummary{}, &ExtractionError{Site: SiteEtsy, Field: "link"}
	}

	id, err := EtsyListingID(link)
	if err != nil {
		return models.ProductSummary{}, err
	}

	return models.ProductSummary{
		Title: title,
		Price: price,
		Cover: cover,
		Link:  link,
		ID:    id,
	}, nil
}

// EtsyListingID returns everything after "listing/" in link.
func EtsyListingID(link string) (string, error) {
	matches := etsyListingPattern.FindStringSubmatch(link)
	if len(matches) < 2 || matches[1] == "" {
		return "", &MalformedIdentifierError{Input: link, Pattern: etsyListingPattern.String()}
	}
	return matches[1], nil
}

func (p *EtsyParser) ParseProduct(html string) (*models.ProductDetail, error) {
	doc, err := newDocument(html)
	if err != nil {
		return nil, err
	}

	cart := doc.Find("#listing-page-cart").First()
	if cart.Length() == 0 {
		return nil, &ExtractionError{Site: SiteEtsy, Field: "listing cart"}
	}

	cover, ok := captureFromMarkup(doc.Find("img.wt-max-width-full"), srcPattern)
	if !ok {
		return nil, &ExtractionError{Site: SiteEtsy, Field: "cover"}
	}

	title := cleanText(cart.Find(".wt-text-body-03").First().Text())
	if title == "" {
		return nil, &ExtractionError{Site: SiteEtsy, Field: "title"}
	}

	priceEl := cart.Find(".wt-mr-xs-2").First()
	if priceEl.Length() == 0 {
		return nil, &ExtractionError{Site: SiteEtsy, Field: "price"}
	}

	return &models.ProductDetail{
		Title: decode(title),
		Price: decode(p.cleanPrice(priceEl.Text())),
		Cover: cover,
	}, nil
}

func (p *EtsyParser) cleanPrice(s string) string {
	s = strings.ReplaceAll(s, `\n`, "")
	s = strings.ReplaceAll(s, "Price:", "")
	s = etsyWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
