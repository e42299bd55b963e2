package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amazonCard(title, href, whole, fraction string) string {
	return `<div class="a-section a-spacing-base">
		<img class="s-image" src="https://m.media-amazon.com/images/I/71abc.jpg" alt="">
		<div class="a-section a-spacing-small s-padding-left-small s-padding-right-small">
			<div class="a-section a-spacing-none a-spacing-top-small s-title-instructions-style">
				<h2><a class="a-link-normal s-underline-text s-underline-link-text s-link-style a-text-normal" href="` + href + `">
					<span class="a-size-base-plus a-color-base a-text-normal">` + title + `</span>
				</a></h2>
			</div>
			<span class="a-price"><span class="a-price-symbol">$</span><span class="a-price-whole">` + whole + `</span><span class="a-price-fraction">` + fraction + `</span></span>
		</div>
	</div>`
}

func TestAmazonParseSearch(t *testing.T) {
	parser := NewAmazonParser()

	page := "<html><body>" +
		amazonCard("Victrola Turntable", "/Victrola-Nostalgic-Bluetooth-Turntable/dp/B00NQL8Z16/ref=sr_1_1?keywords=record+player", "49.", "99") +
		amazonCard("Sponsored Speaker", "/gp/slredirect/picassoRedirect.html?ie=UTF8&amp;adId=1", "19.", "99") +
		amazonCard("Plain Link Lamp", "/Desk-Lamp/dp/B07ABCDEFG?th=1", "12.", "50") +
		"</body></html>"

	results, err := parser.ExtractSearch(page)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.ErrorIs(t, results[1].Err, ErrSponsoredListing)

	summaries := Collect(results)
	require.Len(t, summaries, 2)

	first := summaries[0]
	assert.Equal(t, "Victrola Turntable", first.Title)
	assert.Equal(t, "$49.99", first.Price)
	assert.Equal(t, "https://amazon.com/Victrola-Nostalgic-Bluetooth-Turntable/dp/B00NQL8Z16", first.Link)
	assert.Equal(t, "Victrola-Nostalgic-Bluetooth-Turntable/dp/B00NQL8Z16", first.ID)
	assert.Equal(t,
		"https://imagecdn.app/v2/image/https://m.media-amazon.com/images/I/71abc.jpg?width=400&height=200&format=webp&fit=cover",
		first.Cover)

	second := summaries[1]
	assert.Equal(t, "Plain Link Lamp", second.Title)
	assert.Equal(t, "https://amazon.com/Desk-Lamp/dp/B07ABCDEFG", second.Link)
	assert.Equal(t, "Desk-Lamp/dp/B07ABCDEFG", second.ID)

	for _, s := range summaries {
		assert.False(t, strings.HasPrefix(strings.TrimPrefix(s.Link, "https://amazon.com"), "/gp/"))
	}
}

func TestAmazonSearchSkipsSponsoredCards(t *testing.T) {
	parser := NewAmazonParser()

	page := "<html><body>" +
		amazonCard("Sponsored", "/gp/slredirect/x?ie=UTF8", "1.", "00") +
		"</body></html>"

	results, err := parser.ExtractSearch(page)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, ErrSponsoredListing)
	assert.Empty(t, Collect(results))
}

func TestAmazonParseSearchWithoutCards(t *testing.T) {
	_, err := NewAmazonParser().ExtractSearch(`<html><body></body></html>`)
	assert.True(t, IsExtractionError(err))
}

func TestAmazonParseProduct(t *testing.T) {
	parser := NewAmazonParser()

	tests := []struct {
		name          string
		html          string
		expectedPrice string
	}{
		{
			name: "price to pay block",
			html: `<html><body>
				<img id="landingImage" src="https://m.media-amazon.com/images/I/main.jpg">
				<span id="productTitle">
					Victrola Nostalgic Turntable &amp;amp; Speakers
				</span>
				<div class="a-price aok-align-center reinventPricePriceToPayMargin priceToPay">
					<span class="a-price-symbol">$</span><span class="a-price-whole">49.</span><span class="a-price-fraction">88</span>
				</div>
			</body></html>`,
			expectedPrice: "$49.88",
		},
		{
			name: "apex price fallback",
			html: `<html><body>
				<img id="landingImage" src="https://m.media-amazon.com/images/I/main.jpg">
				<span id="productTitle">Victrola Nostalgic Turntable &amp;amp; Speakers</span>
				<span class="a-price a-text-price a-size-medium apexPriceToPay"><span class="a-offscreen">$52.10</span></span>
			</body></html>`,
			expectedPrice: "$52.10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product, err := parser.ParseProduct(tt.html)
			require.NoError(t, err)
			assert.Equal(t, "Victrola Nostalgic Turntable & Speakers", product.Title)
			assert.Equal(t, tt.expectedPrice, product.Price)
			assert.Equal(t, "https://m.media-amazon.com/images/I/main.jpg", product.Cover)
		})
	}
}

func TestAmazonParseProductFailures(t *testing.T) {
	parser := NewAmazonParser()

	tests := []struct {
		name  string
		html  string
		field string
	}{
		{
			name:  "missing cover",
			html:  `<html><body><span id="productTitle">Thing</span></body></html>`,
			field: "cover",
		},
		{
			name:  "missing title",
			html:  `<html><body><img id="landingImage" src="a.jpg"></body></html>`,
			field: "title",
		},
		{
			name:  "no price block",
			html:  `<html><body><img id="landingImage" src="a.jpg"><span id="productTitle">Thing</span></body></html>`,
			field: "price",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.ParseProduct(tt.html)

			var extractionErr *ExtractionError
			require.ErrorAs(t, err, &extractionErr)
			assert.Equal(t, SiteAmazon, extractionErr.Site)
			assert.Equal(t, tt.field, extractionErr.Field)
		})
	}
}

func TestProxiedCoverEncoding(t *testing.T) {
	assert.Equal(t,
		"https://imagecdn.app/v2/image/https://img.example.com/a%20b.jpgw=1?width=400&height=200&format=webp&fit=cover",
		ProxiedCover("https://img.example.com/a b.jpg?w=1"))
}
