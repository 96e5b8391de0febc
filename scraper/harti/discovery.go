package harti

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"bulletin-etl/utils"
)

// HTTPDiscoverer finds bulletin links in the static HTML of the source page.
type HTTPDiscoverer struct {
	fetcher *HTTPFetcher
	logger  *utils.Logger
}

func NewHTTPDiscoverer(fetcher *HTTPFetcher, logger *utils.Logger) *HTTPDiscoverer {
	return &HTTPDiscoverer{fetcher: fetcher, logger: logger}
}

// Discover returns the absolute URLs of every PDF linked from pageURL, in
// page order.
func (d *HTTPDiscoverer) Discover(ctx context.Context, pageURL string) ([]string, error) {
	body, contentType, err := d.fetcher.get(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}

	var r io.Reader = bytes.NewReader(body)
	if utf8Reader, err := charset.NewReader(r, contentType); err == nil {
		r = utf8Reader
	} else {
		d.logger.Debug("[discover] Charset detection failed for %s: %v", pageURL, err)
	}

	links, err := ExtractPDFLinks(pageURL, r)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	d.logger.Info("[discover] Found %d PDF links on %s", len(links), pageURL)
	return links, nil
}

// ExtractPDFLinks parses an HTML document and returns the hrefs that
// mention ".pdf", resolved against pageURL and without repeats.
func ExtractPDFLinks(pageURL string, r io.Reader) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("bad page url %q: %w", pageURL, err)
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	seen := make(map[string]struct{})
	var links []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if !strings.Contains(href, ".pdf") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref).String()
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		links = append(links, abs)
	})
	return links, nil
}
