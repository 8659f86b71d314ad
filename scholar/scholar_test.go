package scholar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const searchFixture = `{
  "organic_results": [
    {
      "result_id": "abc123",
      "position": 1,
      "title": "Attention <b>is</b> all you need",
      "snippet": "We propose the Transformer &amp; friends",
      "link": "https://example.org/paper",
      "publication_info": {
        "summary": "A Vaswani, N Shazeer - Advances in neural information processing systems, 2017 - proceedings",
        "authors": [{"name": "A Vaswani"}, {"name": "N Shazeer"}]
      },
      "inline_links": {"cited_by": {"total": 100000}},
      "resources": [{"link": "https://example.org/paper.pdf"}]
    },
    {
      "position": 2,
      "title": "Sparse paper",
      "publication_info": {"summary": "no separator here"}
    }
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(&Config{APIKey: "test-key", BaseURL: srv.URL}), srv
}

func TestSearchMapsResults(t *testing.T) {
	var gotQuery map[string]string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"engine": q.Get("engine"),
			"q":      q.Get("q"),
			"num":    q.Get("num"),
			"as_ylo": q.Get("as_ylo"),
			"as_yhi": q.Get("as_yhi"),
		}
		w.Write([]byte(searchFixture))
	})

	papers, err := client.Search(context.Background(), "transformers", 10, 2015, 2020)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if gotQuery["engine"] != "google_scholar" || gotQuery["q"] != "transformers" {
		t.Errorf("query params = %v", gotQuery)
	}
	if gotQuery["num"] != "10" || gotQuery["as_ylo"] != "2015" || gotQuery["as_yhi"] != "2020" {
		t.Errorf("query params = %v", gotQuery)
	}

	if len(papers) != 2 {
		t.Fatalf("papers = %d, want 2", len(papers))
	}

	p := papers[0]
	if p.ID != "abc123" {
		t.Errorf("ID = %q", p.ID)
	}
	if p.Title != "Attention is all you need" {
		t.Errorf("Title = %q, markup not stripped", p.Title)
	}
	if p.Abstract != "We propose the Transformer & friends" {
		t.Errorf("Abstract = %q, entities not unescaped", p.Abstract)
	}
	if p.Year == nil || *p.Year != 2017 {
		t.Errorf("Year = %v, want 2017", p.Year)
	}
	if p.Authors != "A Vaswani" {
		t.Errorf("Authors = %q, want first author", p.Authors)
	}
	if p.Venue != "A Vaswani, N Shazeer" {
		t.Errorf("Venue = %q", p.Venue)
	}
	if p.CitationCount == nil || *p.CitationCount != 100000 {
		t.Errorf("CitationCount = %v", p.CitationCount)
	}
	if p.PDFURL != "https://example.org/paper.pdf" {
		t.Errorf("PDFURL = %q", p.PDFURL)
	}
	if p.Provider != "google_scholar" {
		t.Errorf("Provider = %q", p.Provider)
	}

	// Sparse result falls back to the position as ID; citation count stays
	// nil, distinct from an explicit zero at the record level.
	sparse := papers[1]
	if sparse.ID != "2" {
		t.Errorf("sparse ID = %q", sparse.ID)
	}
	if sparse.CitationCount != nil {
		t.Errorf("sparse CitationCount = %v, want nil", sparse.CitationCount)
	}
	if sparse.Year != nil {
		t.Errorf("sparse Year = %v, want nil", sparse.Year)
	}
	if sparse.Venue != "" {
		t.Errorf("sparse Venue = %q, want empty without separator", sparse.Venue)
	}
}

func TestSearchMissingKeyDegrades(t *testing.T) {
	client := New(&Config{})
	papers, err := client.Search(context.Background(), "anything", 10, 0, 0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if papers != nil {
		t.Errorf("papers = %v, want nil", papers)
	}
}

func TestSearchProviderErrorDegrades(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	papers, err := client.Search(context.Background(), "q", 10, 0, 0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(papers) != 0 {
		t.Errorf("papers = %d, want 0", len(papers))
	}
}

func TestSearchMalformedBodyDegrades(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})

	papers, err := client.Search(context.Background(), "q", 10, 0, 0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(papers) != 0 {
		t.Errorf("papers = %d, want 0", len(papers))
	}
}

func TestSearchClampsLimit(t *testing.T) {
	var gotNum string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotNum = r.URL.Query().Get("num")
		w.Write([]byte(`{"organic_results": []}`))
	})

	if _, err := client.Search(context.Background(), "q", 500, 0, 0); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if gotNum != "20" {
		t.Errorf("num = %q, want clamped to 20", gotNum)
	}
}

func TestCitations(t *testing.T) {
	var gotCites string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotCites = r.URL.Query().Get("cites")
		w.Write([]byte(searchFixture))
	})

	papers, err := client.Citations(context.Background(), "cite-42", 10)
	if err != nil {
		t.Fatalf("Citations() error = %v", err)
	}
	if gotCites != "cite-42" {
		t.Errorf("cites = %q", gotCites)
	}
	if len(papers) != 2 || papers[0].Title != "Attention is all you need" {
		t.Errorf("papers = %+v", papers)
	}
}

func TestAuthor(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"author": {"name": "Jane Doe", "affiliations": "Example University"},
			"interests": [{"title": "machine learning"}],
			"cited_by": {"table": [
				{"citations": {"all": 1234}},
				{"h_index": {"all": 21}}
			]}
		}`))
	})

	profile, err := client.Author(context.Background(), "author-1")
	if err != nil {
		t.Fatalf("Author() error = %v", err)
	}
	if profile == nil {
		t.Fatal("profile = nil")
	}
	if profile.Name != "Jane Doe" || profile.Affiliations != "Example University" {
		t.Errorf("profile = %+v", profile)
	}
	if len(profile.Interests) != 1 || profile.Interests[0] != "machine learning" {
		t.Errorf("interests = %v", profile.Interests)
	}
	if profile.CitationCount == nil || *profile.CitationCount != 1234 {
		t.Errorf("citations = %v", profile.CitationCount)
	}
	if profile.HIndex == nil || *profile.HIndex != 21 {
		t.Errorf("h-index = %v", profile.HIndex)
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello world", "hello world"},
		{"markup stripped", "the <b>best</b> result", "the best result"},
		{"entities unescaped", "A &amp; B", "A & B"},
		{"whitespace collapsed", "a\n  b\t c", "a b c"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanText(tt.in); got != tt.want {
				t.Errorf("cleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
