// Package currency looks up the official USD exchange rate by scraping the
// publisher's page, with a Redis cache in front.
package currency

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/net/html"
)

// ErrRateNotFound is returned when the page does not contain a parsable rate.
var ErrRateNotFound = errors.New("exchange rate not found in page")

// maxPageBytes caps how much of the page is read.
const maxPageBytes = 4 << 20

// Source fetches the current rate from its origin.
type Source interface {
	Fetch(ctx context.Context) (decimal.Decimal, error)
	Name() string
}

// HTMLSource scrapes a rate from the first <strong> inside the element
// with the configured id.
type HTMLSource struct {
	client    *http.Client
	url       string
	elementID string
}

// NewHTMLSource creates a source for url. The client carries the timeout.
func NewHTMLSource(client *http.Client, url, elementID string) *HTMLSource {
	return &HTMLSource{client: client, url: url, elementID: elementID}
}

// Name identifies the source in responses.
func (s *HTMLSource) Name() string { return s.url }

func (s *HTMLSource) Fetch(ctx context.Context) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "brokerdesk-api/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to fetch %s: %w", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, s.url)
	}

	return ParseRate(io.LimitReader(resp.Body, maxPageBytes), s.elementID)
}

// ParseRate extracts the rate from an HTML document.
func ParseRate(r io.Reader, elementID string) (decimal.Decimal, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse page: %w", err)
	}

	container := findElement(doc, func(n *html.Node) bool { return attr(n, "id") == elementID })
	if container == nil {
		return decimal.Zero, fmt.Errorf("%w: no element with id %q", ErrRateNotFound, elementID)
	}
	strong := findElement(container, func(n *html.Node) bool { return n.Data == "strong" })
	if strong == nil {
		return decimal.Zero, fmt.Errorf("%w: no <strong> inside #%s", ErrRateNotFound, elementID)
	}

	return parseLocalizedDecimal(textContent(strong))
}

// parseLocalizedDecimal accepts "36,54320000", "1.234,56" and "36.54".
func parseLocalizedDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrRateNotFound, s)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: non-positive rate %s", ErrRateNotFound, d)
	}
	return d, nil
}

// findElement returns the first element in depth-first order, n included,
// that matches.
func findElement(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, match); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
