package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// PageContent is the bounded summary of a fetched page. It is built once
// per fetch and replaced wholesale when the user switches sites.
type PageContent struct {
	URL             string
	Title           string
	MainContent     string
	Headings        []string
	Links           []string
	MetaDescription string
}

const (
	maxContentChars = 5000
	maxHeadings     = 20
	maxLinks        = 10

	titleFallback = "No title found"
	metaFallback  = "No meta description found"
)

// mainSelectors is the content fallback chain, walked in order; the first
// selector with at least one match wins, otherwise the full body is used.
var mainSelectors = []string{"main", "article", ".content", "#content", ".main", "#main"}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Extractor fetches a page over HTTP and derives a PageContent from it.
type Extractor struct {
	httpClient *http.Client
	userAgent  string
	maxSizeMB  int
}

// New creates an extractor. timeout bounds the whole fetch; maxSizeMB caps
// the response body read (<=0 means 5MB).
func New(timeout time.Duration, userAgent string, maxSizeMB int) *Extractor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if maxSizeMB <= 0 {
		maxSizeMB = 5
	}
	return &Extractor{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		userAgent: userAgent,
		maxSizeMB: maxSizeMB,
	}
}

// Fetch retrieves pageURL and parses it into a PageContent. Network
// failures and non-2xx statuses are returned as errors and never retried.
func (e *Extractor) Fetch(ctx context.Context, pageURL string) (*PageContent, error) {
	html, err := e.fetchHTML(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	content, err := parseHTML(pageURL, html)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}
	return content, nil
}

func (e *Extractor) fetchHTML(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-GB,en;q=0.9")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	maxBytes := int64(e.maxSizeMB) * 1024 * 1024
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) >= maxBytes {
		return "", fmt.Errorf("content exceeds size limit of %dMB", e.maxSizeMB)
	}
	return string(body), nil
}

func parseHTML(pageURL, html string) (*PageContent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	// Chrome and navigation never pollute the extracted text.
	doc.Find("script, style, nav, footer, header, aside").Remove()

	return &PageContent{
		URL:             pageURL,
		Title:           extractTitle(doc),
		MainContent:     extractMainContent(doc),
		Headings:        extractHeadings(doc),
		Links:           extractLinks(doc, pageURL),
		MetaDescription: extractMetaDescription(doc),
	}, nil
}

func extractTitle(doc *goquery.Document) string {
	nodes := doc.Find("title")
	if nodes.Length() == 0 {
		return titleFallback
	}
	return strings.TrimSpace(nodes.First().Text())
}

func extractMainContent(doc *goquery.Document) string {
	var content string
	for _, sel := range mainSelectors {
		nodes := doc.Find(sel)
		if nodes.Length() == 0 {
			continue
		}
		parts := make([]string, 0, nodes.Length())
		nodes.Each(func(_ int, s *goquery.Selection) {
			parts = append(parts, strings.TrimSpace(s.Text()))
		})
		content = strings.Join(parts, " ")
		break
	}
	if content == "" {
		content = doc.Find("body").Text()
	}

	content = strings.TrimSpace(whitespaceRun.ReplaceAllString(content, " "))
	if runes := []rune(content); len(runes) > maxContentChars {
		content = string(runes[:maxContentChars])
	}
	return content
}

func extractHeadings(doc *goquery.Document) []string {
	var headings []string
	for level := 1; level <= 6; level++ {
		doc.Find(fmt.Sprintf("h%d", level)).Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if text != "" {
				headings = append(headings, fmt.Sprintf("H%d: %s", level, text))
			}
		})
	}
	if len(headings) > maxHeadings {
		headings = headings[:maxHeadings]
	}
	return headings
}

// extractLinks scans only the first maxLinks anchors carrying an href, in
// document order; anchors with empty visible text are skipped, so fewer
// than maxLinks entries may result.
func extractLinks(doc *goquery.Document, pageURL string) []string {
	base, baseErr := url.Parse(pageURL)

	var links []string
	doc.Find("a[href]").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= maxLinks {
			return false
		}
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return true
		}
		href, _ := s.Attr("href")
		resolved := strings.TrimSpace(href)
		if baseErr == nil {
			if ref, err := url.Parse(resolved); err == nil {
				resolved = base.ResolveReference(ref).String()
			}
		}
		links = append(links, fmt.Sprintf("%s: %s", text, resolved))
		return true
	})
	return links
}

func extractMetaDescription(doc *goquery.Document) string {
	desc, ok := doc.Find(`meta[name="description"]`).First().Attr("content")
	desc = strings.TrimSpace(desc)
	if !ok || desc == "" {
		return metaFallback
	}
	return desc
}
