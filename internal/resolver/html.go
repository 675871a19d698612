package resolver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"

	"github.com/dastkit/addonsync/internal/catalog"
)

// HTMLIndex scrapes a releases HTML page for artifact download links. It is
// the fallback for upstreams that publish releases outside the GitHub API.
//
// Links are collected with a CSS selector by default; an XPath expression
// can be configured instead for pages whose structure a selector cannot
// reach.
type HTMLIndex struct {
	// Selector is the CSS selector matching release links
	Selector string
	// XPath, when set, is used instead of Selector
	XPath  string
	client *HTTPClient
}

// DefaultLinkSelector matches any anchor carrying an href.
const DefaultLinkSelector = "a[href]"

// NewHTMLIndex creates an HTML release index with the default link selector.
func NewHTMLIndex(client *HTTPClient) *HTMLIndex {
	return &HTMLIndex{
		Selector: DefaultLinkSelector,
		client:   client,
	}
}

// LatestVersion fetches the addon's releases page and returns the highest
// version found among download links matching the addon's tag prefix.
// Document order is preserved, so for non-numeric versions the page's own
// ordering decides what "latest" means.
func (h *HTMLIndex) LatestVersion(ctx context.Context, addon catalog.Addon) (string, error) {
	headers := map[string]string{"User-Agent": userAgent}

	resp, err := h.client.Get(ctx, addon.PageURL, headers)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrNoReleases
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrIndexUnavailable, resp.StatusCode)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}

	var hrefs []string
	if h.XPath != "" {
		hrefs, err = h.linksByXPath(content)
	} else {
		hrefs, err = h.linksBySelector(content)
	}
	if err != nil {
		return "", err
	}

	return latestOf(versionsFromLinks(hrefs, addon.TagPrefix))
}

// linksBySelector extracts hrefs using the configured CSS selector.
func (h *HTMLIndex) linksBySelector(content []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	selector := h.Selector
	if selector == "" {
		selector = DefaultLinkSelector
	}

	var hrefs []string
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		if href, ok := sel.Attr("href"); ok {
			hrefs = append(hrefs, href)
		}
	})
	return hrefs, nil
}

// linksByXPath extracts hrefs using the configured XPath expression.
func (h *HTMLIndex) linksByXPath(content []byte) ([]string, error) {
	doc, err := htmlquery.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	nodes, err := htmlquery.QueryAll(doc, h.XPath)
	if err != nil {
		return nil, fmt.Errorf("invalid XPath expression: %w", err)
	}

	var hrefs []string
	for _, node := range nodes {
		if href := htmlquery.SelectAttr(node, "href"); href != "" {
			hrefs = append(hrefs, href)
		}
	}
	return hrefs, nil
}

// versionsFromLinks extracts versions from download links whose release-tag
// path segment matches "<tag_prefix>-v<version>", in document order.
func versionsFromLinks(hrefs []string, tagPrefix string) []string {
	tagRe := regexp.MustCompile(`/releases/download/` + regexp.QuoteMeta(tagPrefix) + `-v([^/]+)/`)

	var versions []string
	seen := make(map[string]bool)
	for _, href := range hrefs {
		matches := tagRe.FindStringSubmatch(href)
		if matches == nil {
			continue
		}
		v := strings.TrimSpace(matches[1])
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		versions = append(versions, v)
	}
	return versions
}
