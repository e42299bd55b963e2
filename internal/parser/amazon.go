package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/wishlily-proxy/internal/models"
)

const (
	amazonBaseURL    = "https://amazon.com"
	imageProxyFormat = "https://imagecdn.app/v2/image/%s?width=400&height=200&format=webp&fit=cover"

	amazonCardSelector      = ".a-section.a-spacing-base"
	amazonInfoSelector      = ".a-section.a-spacing-small.s-padding-left-small.s-padding-right-small"
	amazonTitleBoxSelector  = ".a-section.a-spacing-none.a-spacing-top-small.s-title-instructions-style"
	amazonTitleSelector     = ".a-size-base-plus.a-color-base.a-text-normal"
	amazonTitleLinkSelector = ".a-link-normal.s-underline-text.s-underline-link-text.s-link-style.a-text-normal"
)

var (
	amazonRefPattern   = regexp.MustCompile(`(.*?)/ref=.*`)
	amazonRefIDPattern = regexp.MustCompile(`^/?(.*?)/ref=.*`)
)

type AmazonParser struct {
	priceSelectors []priceBlock
	coverSelectors []string
}

// priceBlock is one tier of the product page price lookup. Either parts are
// concatenated or the preformatted text of a single element is used.
type priceBlock struct {
	container string
	parts     []string
	text      string
}

func NewAmazonParser() *AmazonParser {
	return &AmazonParser{
		priceSelectors: []priceBlock{
			{
				container: ".a-price.aok-align-center.reinventPricePriceToPayMargin.priceToPay",
				parts:     []string{".a-price-symbol", ".a-price-whole", ".a-price-fraction"},
			},
			{
				container: ".a-price.a-text-price.a-size-medium.apexPriceToPay",
				text:      ".a-offscreen",
			},
		},
		coverSelectors: []string{
			"#landingImage",
			"#imgBlkFront",
		},
	}
}

func (p *AmazonParser) Site() string {
	return SiteAmazon
}

func (p *AmazonParser) ExtractSearch(html string) ([]Result, error) {
	doc, err := newDocument(html)
	if err != nil {
		return nil, err
	}

	cards := doc.Find(amazonCardSelector)
	if cards.Length() == 0 {
		return nil, &ExtractionError{Site: SiteAmazon, Field: "result cards"}
	}

	results := make([]Result, 0, cards.Length())
	cards.Each(func(i int, card *goquery.Selection) {
		summary, err := p.extractCard(card)
		results = append(results, Result{Summary: summary, Err: err})
	})

	return results, nil
}

func (p *AmazonParser) extractCard(card *goquery.Selection) (models.ProductSummary, error) {
	info := card.Find(amazonInfoSelector).First()
	if info.Length() == 0 {
		return models.ProductSummary{}, &ExtractionError{Site: SiteAmazon, Field: "card info"}
	}

	titleBox := info.Find(amazonTitleBoxSelector).First()
	title := cleanText(titleBox.Find(amazonTitleSelector).First().Text())
	if title == "" {
		return models.ProductSummary{}, &ExtractionError{Site: SiteAmazon, Field: "title"}
	}

	cover, ok := captureFromMarkup(card.Find(".s-image"), srcPattern)
	if !ok {
		return models.ProductSummary{}, &ExtractionError{Site: SiteAmazon, Field: "cover"}
	}

	price, ok := joinParts(info, ".a-price-symbol", ".a-price-whole", ".a-price-fraction")
	if !ok || price == "" {
		return models.ProductSummary{}, &ExtractionError{Site: SiteAmazon, Field: "price"}
	}

	buyLink, ok := captureFromMarkup(titleBox.Find(amazonTitleLinkSelector), queryHrefPattern)
	if !ok {
		return models.ProductSummary{}, &ExtractionError{Site: SiteAmazon, Field: "link"}
	}
	if strings.HasPrefix(buyLink, "/gp/") {
		return models.ProductSummary{}, ErrSponsoredListing
	}

	return models.ProductSummary{
		Title: title,
		Price: price,
		Cover: ProxiedCover(cover),
		Link:  p.canonicalLink(buyLink),
		ID:    p.listingID(buyLink),
	}, nil
}

func (p *AmazonParser) canonicalLink(buyLink string) string {
	full := amazonBaseURL + buyLink
	if matches := amazonRefPattern.FindStringSubmatch(full); len(matches) > 1 {
		return matches[1]
	}
	return full
}

func (p *AmazonParser) listingID(buyLink string) string {
	if matches := amazonRefIDPattern.FindStringSubmatch(buyLink); len(matches) > 1 && matches[1] != "" {
		return matches[1]
	}
	return strings.TrimPrefix(buyLink, "/")
}

// ProxiedCover routes an image through the resizing CDN, dropping the first "?".
func ProxiedCover(cover string) string {
	return fmt.Sprintf(imageProxyFormat, encodeURI(strings.Replace(cover, "?", "", 1)))
}

func (p *AmazonParser) ParseProduct(html string) (*models.ProductDetail, error) {
	doc, err := newDocument(html)
	if err != nil {
		return nil, err
	}

	cover := p.extractCover(doc)
	if cover == "" {
		return nil, &ExtractionError{Site: SiteAmazon, Field: "cover"}
	}

	title := cleanText(doc.Find("#productTitle").First().Text())
	if title == "" {
		return nil, &ExtractionError{Site: SiteAmazon, Field: "title"}
	}

	price := p.extractPrice(doc)
	if price == "" {
		return nil, &ExtractionError{Site: SiteAmazon, Field: "price"}
	}

	return &models.ProductDetail{
		Title: decode(title),
		Price: decode(price),
		Cover: cover,
	}, nil
}

func (p *AmazonParser) extractCover(doc *goquery.Document) string {
	for _, selector := range p.coverSelectors {
		if cover, ok := captureFromMarkup(doc.Find(selector), srcPattern); ok {
			return cover
		}
	}
	return ""
}

func (p *AmazonParser) extractPrice(doc *goquery.Document) string {
	for _, block := range p.priceSelectors {
		container := doc.Find(block.container).First()
		if container.Length() == 0 {
			continue
		}
		if block.text != "" {
			if text := strings.TrimSpace(container.Find(block.text).First().Text()); text != "" {
				return text
			}
			continue
		}
		if price, ok := joinParts(container, block.parts...); ok && price != "" {
			return price
		}
	}
	return ""
}

// encodeURI escapes s the way a browser's encodeURI does: reserved URI
// characters and unreserved marks are left alone.
func encodeURI(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isURIChar(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isURIChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte(";,/?:@&=+$-_.!~*'()#", c) >= 0
}
