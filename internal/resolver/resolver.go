// Package resolver decides whether a generic product request is served
// directly or redirected to a site-specific endpoint.
package resolver

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/maltedev/wishlily-proxy/internal/parser"
)

var (
	amazonProductPattern = regexp.MustCompile(`(?i:https?://w?w?w?.?amazon\.com)/?.*?(/dp/[0-9A-Za-z]{10})`)
	etsyProductPattern   = regexp.MustCompile(`(?i:https?://w?w?w?.?etsy\.com)/listing/(.*?)\?.*`)

	defaultLoopHosts = []string{"proxy.wishlily.app", "deno.dev"}
)

type Config struct {
	// BaseURL is the public origin redirects are built against.
	BaseURL   string
	LoopHosts []string
}

// Decision is the outcome of Resolve: either a redirect target or an
// instruction to serve the id with the generic strategy.
type Decision struct {
	Redirect string
	Site     string
	Serve    bool
}

type Resolver struct {
	baseURL   string
	loopHosts []string
}

func New(cfg Config) (*Resolver, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid public base url %q", cfg.BaseURL)
	}

	hosts := cfg.LoopHosts
	if len(hosts) == 0 {
		hosts = defaultLoopHosts
	}

	seen := make(map[string]bool)
	loopHosts := make([]string, 0, len(hosts)+1)
	for _, h := range append(append([]string(nil), hosts...), base.Hostname()) {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		loopHosts = append(loopHosts, h)
	}

	return &Resolver{
		baseURL:   strings.TrimRight(base.String(), "/"),
		loopHosts: loopHosts,
	}, nil
}

// CheckLoop fails when id references any host of the proxy itself.
func (r *Resolver) CheckLoop(id string) error {
	lower := strings.ToLower(id)
	for _, host := range r.loopHosts {
		if strings.Contains(lower, host) {
			return &LoopError{ID: id, Host: host}
		}
	}
	return nil
}

// Resolve classifies a generic product id. With keep set, known sites are
// not redirected and the generic strategy is used.
func (r *Resolver) Resolve(id string, keep bool) (Decision, error) {
	if err := r.CheckLoop(id); err != nil {
		return Decision{}, err
	}
	if strings.TrimSpace(id) == "" {
		return Decision{}, &parser.MalformedIdentifierError{Input: id, Pattern: "non-empty url"}
	}
	if keep {
		return Decision{Serve: true, Site: parser.SiteGeneric}, nil
	}

	lower := strings.ToLower(id)
	switch {
	case strings.Contains(lower, "amazon.com"):
		matches := amazonProductPattern.FindStringSubmatch(id)
		if len(matches) < 2 {
			return Decision{}, &parser.MalformedIdentifierError{Input: id, Pattern: amazonProductPattern.String()}
		}
		return Decision{Site: parser.SiteAmazon, Redirect: r.ProductURL(parser.SiteAmazon, matches[1])}, nil

	case strings.Contains(lower, "etsy.com"):
		candidate := strings.TrimRight(id, "/") + "?"
		matches := etsyProductPattern.FindStringSubmatch(candidate)
		if len(matches) < 2 || strings.Trim(matches[1], "/") == "" {
			return Decision{}, &parser.MalformedIdentifierError{Input: id, Pattern: etsyProductPattern.String()}
		}
		return Decision{Site: parser.SiteEtsy, Redirect: r.ProductURL(parser.SiteEtsy, strings.TrimRight(matches[1], "/"))}, nil
	}

	return Decision{Serve: true, Site: parser.SiteGeneric}, nil
}

// ProductURL is the proxy's own detail endpoint for site and id.
func (r *Resolver) ProductURL(site, id string) string {
	return fmt.Sprintf("%s/%s/product?id=%s", r.baseURL, site, escapeQueryValue(id))
}

// GenericFallback is where a failed site-specific detail request is sent.
func (r *Resolver) GenericFallback(link string) string {
	return fmt.Sprintf("%s/generic/product?keep=true&id=%s", r.baseURL, escapeQueryValue(link))
}

// escapeQueryValue escapes v for a query string but leaves "/" and ":"
// readable.
func escapeQueryValue(v string) string {
	escaped := url.QueryEscape(v)
	return strings.NewReplacer("%2F", "/", "%3A", ":").Replace(escaped)
}
