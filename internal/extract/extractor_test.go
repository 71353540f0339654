package extract

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func serve(t *testing.T, html string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(html))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func fetch(t *testing.T, html string) *PageContent {
	t.Helper()
	ts := serve(t, html)
	content, err := New(5*time.Second, "test-agent", 5).Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	return content
}

func TestFetchBasicFields(t *testing.T) {
	content := fetch(t, `<html><head>
		<title> Example Site </title>
		<meta name="description" content=" A test page. ">
	</head><body><main>Hello world</main></body></html>`)

	if content.Title != "Example Site" {
		t.Errorf("title=%q", content.Title)
	}
	if content.MetaDescription != "A test page." {
		t.Errorf("meta=%q", content.MetaDescription)
	}
	if content.MainContent != "Hello world" {
		t.Errorf("main=%q", content.MainContent)
	}
}

func TestFetchFallbacks(t *testing.T) {
	content := fetch(t, `<html><body><p>just text</p></body></html>`)
	if content.Title != "No title found" {
		t.Errorf("title=%q", content.Title)
	}
	if content.MetaDescription != "No meta description found" {
		t.Errorf("meta=%q", content.MetaDescription)
	}
	if content.MainContent != "just text" {
		t.Errorf("main=%q, want body fallback", content.MainContent)
	}
}

func TestMainContentTruncatedAndCollapsed(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body><main>")
	for i := 0; i < 2000; i++ {
		b.WriteString("word  \n\t ")
	}
	b.WriteString("</main></body></html>")

	content := fetch(t, b.String())
	if got := len([]rune(content.MainContent)); got != 5000 {
		t.Errorf("main content length=%d, want exactly 5000", got)
	}
	if strings.Contains(content.MainContent, "  ") {
		t.Error("main content contains a double-space run")
	}
}

func TestSelectorPriority(t *testing.T) {
	content := fetch(t, `<html><body>
		<div class="content">secondary</div>
		<main>primary</main>
	</body></html>`)
	if content.MainContent != "primary" {
		t.Errorf("main=%q, want text from <main> only", content.MainContent)
	}
}

func TestSelectorJoinsAllMatches(t *testing.T) {
	content := fetch(t, `<html><body>
		<article>first</article>
		<article>second</article>
	</body></html>`)
	if content.MainContent != "first second" {
		t.Errorf("main=%q, want space-joined article text", content.MainContent)
	}
}

func TestStripsNoiseElements(t *testing.T) {
	content := fetch(t, `<html><body>
		<nav>menu</nav><header>masthead</header>
		<script>var x = 1;</script><style>.a{}</style>
		<main>real content</main>
		<aside>sidebar</aside><footer>legal</footer>
	</body></html>`)
	for _, banned := range []string{"menu", "masthead", "var x", ".a{}", "sidebar", "legal"} {
		if strings.Contains(content.MainContent, banned) {
			t.Errorf("main content contains stripped element text %q", banned)
		}
	}
}

func TestHeadingsCapAndPrefix(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for level := 1; level <= 6; level++ {
		for i := 0; i < 5; i++ {
			fmt.Fprintf(&b, "<h%d>heading %d-%d</h%d>", level, level, i, level)
		}
	}
	b.WriteString("<h2> </h2></body></html>")

	content := fetch(t, b.String())
	if len(content.Headings) != 20 {
		t.Fatalf("headings=%d, want exactly 20", len(content.Headings))
	}
	if content.Headings[0] != "H1: heading 1-0" {
		t.Errorf("first heading=%q", content.Headings[0])
	}
	// 5 H1s then 5 H2s, etc: entry 19 is the last H4.
	if content.Headings[19] != "H4: heading 4-4" {
		t.Errorf("last heading=%q", content.Headings[19])
	}
	for _, h := range content.Headings {
		if !strings.HasPrefix(h, "H") || !strings.Contains(h, ": ") {
			t.Errorf("heading %q missing level prefix", h)
		}
	}
}

func TestLinksScanFirstTenAndSkipEmptyText(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	// 12 anchors; #2 and #5 have empty text, anchor 11+ must not be scanned.
	for i := 0; i < 12; i++ {
		if i == 2 || i == 5 {
			fmt.Fprintf(&b, `<a href="/empty%d"></a>`, i)
			continue
		}
		fmt.Fprintf(&b, `<a href="/page%d">link %d</a>`, i, i)
	}
	b.WriteString("</body></html>")

	content := fetch(t, b.String())
	if len(content.Links) != 8 {
		t.Fatalf("links=%d, want 8 (10 scanned minus 2 empty)", len(content.Links))
	}
	for _, l := range content.Links {
		if strings.Contains(l, "page10") || strings.Contains(l, "page11") {
			t.Errorf("link beyond the first 10 anchors was collected: %q", l)
		}
	}
}

func TestLinksResolvedAgainstPageURL(t *testing.T) {
	ts := serve(t, `<html><body><a href="/docs">Docs</a><a href="https://other.example/x">Other</a></body></html>`)
	content, err := New(5*time.Second, "test-agent", 5).Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(content.Links) != 2 {
		t.Fatalf("links=%d, want 2", len(content.Links))
	}
	if want := "Docs: " + ts.URL + "/docs"; content.Links[0] != want {
		t.Errorf("link[0]=%q, want %q", content.Links[0], want)
	}
	if want := "Other: https://other.example/x"; content.Links[1] != want {
		t.Errorf("link[1]=%q, want %q", content.Links[1], want)
	}
}

func TestFetchRejectsNon2xx(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not here", http.StatusNotFound)
	}))
	defer ts.Close()

	_, err := New(5*time.Second, "test-agent", 5).Fetch(context.Background(), ts.URL)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error %q does not mention the status", err)
	}
}

func TestFetchSendsUserAgent(t *testing.T) {
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer ts.Close()

	if _, err := New(5*time.Second, "Mozilla/5.0 (test)", 5).Fetch(context.Background(), ts.URL); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotUA != "Mozilla/5.0 (test)" {
		t.Errorf("user agent=%q", gotUA)
	}
}
