package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/wishlily-proxy/internal/models"
)

// GenericParser reads Open Graph and Twitter card metadata from any page.
type GenericParser struct {
	titleTags    []string
	coverTags    []string
	priceSources [][2]string
}

func NewGenericParser() *GenericParser {
	return &GenericParser{
		titleTags: []string{"og:title", "twitter:title"},
		coverTags: []string{"og:image", "twitter:image:src", "twitter:image"},
		priceSources: [][2]string{
			{"og:price:currency", "og:price:amount"},
			{"product:price:currency", "product:price:amount"},
		},
	}
}

func (p *GenericParser) Site() string {
	return SiteGeneric
}

func (p *GenericParser) ParseProduct(html string) (*models.ProductDetail, error) {
	doc, err := newDocument(html)
	if err != nil {
		return nil, err
	}

	title := firstMeta(doc, p.titleTags...)
	cover := firstMeta(doc, p.coverTags...)
	if title == "" {
		return nil, &ExtractionError{Site: SiteGeneric, Field: "title"}
	}
	if cover == "" {
		return nil, &ExtractionError{Site: SiteGeneric, Field: "cover"}
	}

	price, _ := NormalizePrice(p.structuredPrice(doc), html)

	return &models.ProductDetail{
		Title: decode(title),
		Price: price,
		Cover: cover,
	}, nil
}

// structuredPrice returns "$<amount>" when the page declares a USD price.
func (p *GenericParser) structuredPrice(doc *goquery.Document) string {
	for _, source := range p.priceSources {
		if !strings.EqualFold(meta(doc, source[0]), "USD") {
			continue
		}
		if amount := meta(doc, source[1]); amount != "" {
			return "$" + amount
		}
	}
	return ""
}
