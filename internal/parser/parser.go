package parser

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/wishlily-proxy/internal/models"
)

const (
	SiteEtsy    = "etsy"
	SiteAmazon  = "amazon"
	SiteGeneric = "generic"
)

// SearchParser turns a search results page into one Result per listing card.
type SearchParser interface {
	Site() string
	ExtractSearch(html string) ([]Result, error)
}

// ProductParser turns a single product page into a ProductDetail. The caller
// owns the canonical link and sets it on the returned record.
type ProductParser interface {
	Site() string
	ParseProduct(html string) (*models.ProductDetail, error)
}

// Result is either an extracted summary or the reason the card was skipped.
type Result struct {
	Summary models.ProductSummary
	Err     error
}

func (r Result) Skipped() bool {
	return r.Err != nil
}

// Collect keeps the successful cards in document order.
func Collect(results []Result) []models.ProductSummary {
	summaries := make([]models.ProductSummary, 0, len(results))
	for _, r := range results {
		if r.Skipped() {
			continue
		}
		summaries = append(summaries, r.Summary)
	}
	return summaries
}

var (
	// Matches the src attribute in serialized markup, tolerating JSON-escaped quotes.
	srcPattern = regexp.MustCompile(`\ssrc=\\?"(.*?)\\?"`)
	// First href carrying a query string; the path before "?" is captured.
	queryHrefPattern = regexp.MustCompile(`href="([^"?]*)\?[^"]*"`)
)

func newDocument(raw string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// captureFromMarkup applies pattern to the outer HTML of the first element in
// sel and returns the first capture group, entity-decoded.
func captureFromMarkup(sel *goquery.Selection, pattern *regexp.Regexp) (string, bool) {
	if sel.Length() == 0 {
		return "", false
	}
	markup, err := goquery.OuterHtml(sel.First())
	if err != nil {
		return "", false
	}
	matches := pattern.FindStringSubmatch(markup)
	if len(matches) < 2 || matches[1] == "" {
		return "", false
	}
	return html.UnescapeString(matches[1]), true
}

func cleanText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `\n`, ""))
}

func decode(s string) string {
	return html.UnescapeString(s)
}

// joinParts concatenates the text of the first match of each selector inside
// scope. It fails if any selector is missing.
func joinParts(scope *goquery.Selection, selectors ...string) (string, bool) {
	var b strings.Builder
	for _, selector := range selectors {
		part := scope.Find(selector).First()
		if part.Length() == 0 {
			return "", false
		}
		b.WriteString(strings.TrimSpace(part.Text()))
	}
	return b.String(), true
}

// meta returns the content of meta[name=...], falling back to meta[property=...].
func meta(doc *goquery.Document, name string) string {
	for _, attr := range []string{"name", "property"} {
		content, exists := doc.Find(`meta[` + attr + `="` + name + `"]`).First().Attr("content")
		if exists && strings.TrimSpace(content) != "" {
			return strings.TrimSpace(content)
		}
	}
	return ""
}

func firstMeta(doc *goquery.Document, names ...string) string {
	for _, name := range names {
		if v := meta(doc, name); v != "" {
			return v
		}
	}
	return ""
}
