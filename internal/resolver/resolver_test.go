package resolver

import (
	"net/url"
	"testing"

	"github.com/maltedev/wishlily-proxy/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := New(Config{BaseURL: "https://proxy.example.test/"})
	require.NoError(t, err)
	return r
}

func TestNew(t *testing.T) {
	t.Run("adds base host to loop hosts", func(t *testing.T) {
		r := newTestResolver(t)
		assert.Equal(t, []string{"proxy.wishlily.app", "deno.dev", "proxy.example.test"}, r.loopHosts)
		assert.Equal(t, "https://proxy.example.test", r.baseURL)
	})

	t.Run("rejects relative base", func(t *testing.T) {
		_, err := New(Config{BaseURL: "/relative"})
		assert.Error(t, err)
	})
}

func TestResolve_Loop(t *testing.T) {
	r := newTestResolver(t)

	tests := []struct {
		name string
		id   string
		host string
	}{
		{"public proxy", "https://proxy.wishlily.app/generic/product?id=x", "proxy.wishlily.app"},
		{"deno deploy", "https://something.deno.dev/", "deno.dev"},
		{"configured base", "https://PROXY.EXAMPLE.TEST/etsy/product?id=1", "proxy.example.test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, keep := range []bool{false, true} {
				_, err := r.Resolve(tt.id, keep)
				var loopErr *LoopError
				require.ErrorAs(t, err, &loopErr)
				assert.Equal(t, tt.host, loopErr.Host)
			}
		})
	}
}

func TestResolve_AmazonRoundTrip(t *testing.T) {
	r := newTestResolver(t)

	d, err := r.Resolve("https://amazon.com/Victrola-Nostalgic-Bluetooth-Turntable-Entertainment/dp/B00NQL8Z16", false)
	require.NoError(t, err)
	assert.False(t, d.Serve)
	assert.Equal(t, parser.SiteAmazon, d.Site)
	assert.Equal(t, "https://proxy.example.test/amazon/product?id=/dp/B00NQL8Z16", d.Redirect)

	u, err := url.Parse(d.Redirect)
	require.NoError(t, err)
	assert.Equal(t, "/amazon/product", u.Path)
	assert.Equal(t, "/dp/B00NQL8Z16", u.Query().Get("id"))
}

func TestResolve_AmazonVariants(t *testing.T) {
	r := newTestResolver(t)

	d, err := r.Resolve("https://www.amazon.com/dp/B00NQL8Z16/ref=sr_1_1?keywords=turntable", false)
	require.NoError(t, err)
	assert.Equal(t, "https://proxy.example.test/amazon/product?id=/dp/B00NQL8Z16", d.Redirect)

	d, err = r.Resolve("https://Amazon.com/x/dp/B00NQL8Z16", false)
	require.NoError(t, err)
	assert.Equal(t, "https://proxy.example.test/amazon/product?id=/dp/B00NQL8Z16", d.Redirect)

	_, err = r.Resolve("https://amazon.com/gp/help/customer", false)
	var malformed *parser.MalformedIdentifierError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "https://amazon.com/gp/help/customer", malformed.Input)
}

func TestResolve_Etsy(t *testing.T) {
	r := newTestResolver(t)

	tests := []struct {
		name     string
		id       string
		expected string
	}{
		{"plain", "https://www.etsy.com/listing/123456789", "https://proxy.example.test/etsy/product?id=123456789"},
		{"slug with trailing slash", "https://etsy.com/listing/123456789/handmade-mug/", "https://proxy.example.test/etsy/product?id=123456789/handmade-mug"},
		{"query dropped", "https://www.etsy.com/listing/42/mug?ref=hp_rv", "https://proxy.example.test/etsy/product?id=42/mug"},
		{"mixed case host", "HTTPS://WWW.Etsy.com/listing/77", "https://proxy.example.test/etsy/product?id=77"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := r.Resolve(tt.id, false)
			require.NoError(t, err)
			assert.Equal(t, parser.SiteEtsy, d.Site)
			assert.Equal(t, tt.expected, d.Redirect)
		})
	}

	_, err := r.Resolve("https://etsy.com/shop/SomeShop", false)
	var malformed *parser.MalformedIdentifierError
	assert.ErrorAs(t, err, &malformed)
}

func TestResolve_Serve(t *testing.T) {
	r := newTestResolver(t)

	d, err := r.Resolve("https://shop.example.com/item/7", false)
	require.NoError(t, err)
	assert.True(t, d.Serve)
	assert.Equal(t, parser.SiteGeneric, d.Site)

	d, err = r.Resolve("https://amazon.com/dp/B00NQL8Z16", true)
	require.NoError(t, err)
	assert.True(t, d.Serve)
	assert.Empty(t, d.Redirect)

	_, err = r.Resolve("  ", false)
	var malformed *parser.MalformedIdentifierError
	assert.ErrorAs(t, err, &malformed)
}

func TestGenericFallback(t *testing.T) {
	r := newTestResolver(t)

	target := r.GenericFallback("https://etsy.com/listing/42?variant=a&b=c")
	assert.Equal(t, "https://proxy.example.test/generic/product?keep=true&id=https://etsy.com/listing/42%3Fvariant%3Da%26b%3Dc", target)

	u, err := url.Parse(target)
	require.NoError(t, err)
	assert.Equal(t, "true", u.Query().Get("keep"))
	assert.Equal(t, "https://etsy.com/listing/42?variant=a&b=c", u.Query().Get("id"))
}
