// Package scholar adapts the Google Scholar API (via SerpAPI) into the
// canonical paper shape. A missing credential or a failing provider degrades
// to empty results; callers treat empty as a valid outcome, never as an
// error.
package scholar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cortexlab/discovery/paper"
	"github.com/cortexlab/discovery/pkg/logging"
)

const (
	defaultBaseURL = "https://serpapi.com/search"
	providerTag    = "google_scholar"

	// SerpAPI returns at most 20 organic results per page.
	maxPageSize = 20
)

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// Config holds the adapter configuration.
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Cache      *Cache // optional search-result cache
}

// Client queries Google Scholar through SerpAPI.
type Client struct {
	cfg    *Config
	client *http.Client
	logger *slog.Logger
}

// New creates a scholar client. A missing API key is a supported degraded
// mode: every call returns empty results.
func New(cfg *Config) *Client {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		cfg:    cfg,
		client: client,
		logger: logging.WithComponent("scholar"),
	}
}

// Search returns papers matching the query. yearFrom/yearTo of zero mean no
// bound. Transport and provider errors are logged and yield empty results.
func (c *Client) Search(ctx context.Context, query string, limit, yearFrom, yearTo int) ([]paper.Paper, error) {
	if c.cfg.APIKey == "" {
		c.logger.Warn("SERPAPI key not set, scholar search unavailable")
		return nil, nil
	}
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}

	if c.cfg.Cache != nil {
		if papers, ok := c.cfg.Cache.get(ctx, searchKey(query, limit, yearFrom, yearTo)); ok {
			c.logger.Debug("scholar cache hit", "query", query)
			return papers, nil
		}
	}

	params := url.Values{}
	params.Set("engine", "google_scholar")
	params.Set("q", query)
	params.Set("api_key", c.cfg.APIKey)
	params.Set("num", strconv.Itoa(limit))
	if yearFrom > 0 {
		params.Set("as_ylo", strconv.Itoa(yearFrom))
	}
	if yearTo > 0 {
		params.Set("as_yhi", strconv.Itoa(yearTo))
	}

	var resp searchResponse
	if !c.fetch(ctx, params, &resp) {
		return nil, nil
	}

	papers := make([]paper.Paper, 0, len(resp.OrganicResults))
	for _, result := range resp.OrganicResults {
		papers = append(papers, result.toPaper())
	}

	if c.cfg.Cache != nil {
		c.cfg.Cache.set(ctx, searchKey(query, limit, yearFrom, yearTo), papers)
	}
	return papers, nil
}

// Citations returns papers citing the paper identified by citesID.
func (c *Client) Citations(ctx context.Context, citesID string, limit int) ([]paper.Paper, error) {
	if c.cfg.APIKey == "" {
		return nil, nil
	}
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}

	params := url.Values{}
	params.Set("engine", "google_scholar")
	params.Set("cites", citesID)
	params.Set("api_key", c.cfg.APIKey)
	params.Set("num", strconv.Itoa(limit))

	var resp searchResponse
	if !c.fetch(ctx, params, &resp) {
		return nil, nil
	}

	papers := make([]paper.Paper, 0, len(resp.OrganicResults))
	for _, result := range resp.OrganicResults {
		papers = append(papers, paper.Paper{
			ID:       result.id(),
			Title:    cleanText(result.Title),
			Abstract: cleanText(result.Snippet),
			URL:      result.Link,
			Provider: providerTag,
		})
	}
	return papers, nil
}

// AuthorProfile holds a Google Scholar author summary.
type AuthorProfile struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Affiliations  string   `json:"affiliations"`
	Email         string   `json:"email,omitempty"`
	Interests     []string `json:"interests,omitempty"`
	CitationCount *int     `json:"citation_count,omitempty"`
	HIndex        *int     `json:"h_index,omitempty"`
}

// Author fetches an author profile; nil (without error) when the credential
// is unset or the provider fails.
func (c *Client) Author(ctx context.Context, authorID string) (*AuthorProfile, error) {
	if c.cfg.APIKey == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("engine", "google_scholar_author")
	params.Set("author_id", authorID)
	params.Set("api_key", c.cfg.APIKey)

	var resp authorResponse
	if !c.fetch(ctx, params, &resp) {
		return nil, nil
	}

	profile := &AuthorProfile{
		ID:           authorID,
		Name:         resp.Author.Name,
		Affiliations: resp.Author.Affiliations,
		Email:        resp.Author.Email,
	}
	for _, interest := range resp.Interests {
		profile.Interests = append(profile.Interests, interest.Title)
	}
	for _, row := range resp.CitedBy.Table {
		if row.Citations != nil && row.Citations.All != nil {
			profile.CitationCount = row.Citations.All
		}
		if row.HIndex != nil && row.HIndex.All != nil {
			profile.HIndex = row.HIndex.All
		}
	}
	return profile, nil
}

// fetch performs one GET against SerpAPI, decoding into out. It reports
// false on any transport or provider failure, which callers translate into
// empty results.
func (c *Client) fetch(ctx context.Context, params url.Values, out any) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		c.logger.Error("scholar request construction failed", "error", err)
		return false
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("scholar request failed", "error", err)
		return false
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("scholar response read failed", "error", err)
		return false
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("scholar provider error", "status", resp.StatusCode)
		return false
	}
	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Warn("scholar response decode failed", "error", err)
		return false
	}
	return true
}

type searchResponse struct {
	OrganicResults []organicResult `json:"organic_results"`
}

type organicResult struct {
	ResultID        string          `json:"result_id"`
	Position        int             `json:"position"`
	Title           string          `json:"title"`
	Snippet         string          `json:"snippet"`
	Link            string          `json:"link"`
	PublicationInfo publicationInfo `json:"publication_info"`
	InlineLinks     struct {
		CitedBy struct {
			Total *int `json:"total"`
		} `json:"cited_by"`
	} `json:"inline_links"`
	Resources []struct {
		Link string `json:"link"`
	} `json:"resources"`
}

type publicationInfo struct {
	Summary string `json:"summary"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
}

func (r organicResult) id() string {
	if r.ResultID != "" {
		return r.ResultID
	}
	return strconv.Itoa(r.Position)
}

// toPaper translates one SerpAPI result into the canonical record,
// tolerating missing nested fields at every level.
func (r organicResult) toPaper() paper.Paper {
	p := paper.Paper{
		ID:            r.id(),
		Title:         cleanText(r.Title),
		Abstract:      cleanText(r.Snippet),
		URL:           r.Link,
		CitationCount: r.InlineLinks.CitedBy.Total,
		Provider:      providerTag,
	}

	summary := r.PublicationInfo.Summary
	if match := yearPattern.FindString(summary); match != "" {
		if year, err := strconv.Atoi(match); err == nil {
			p.Year = &year
		}
	}
	if len(r.PublicationInfo.Authors) > 0 {
		p.Authors = r.PublicationInfo.Authors[0].Name
	}
	if venue, _, found := strings.Cut(summary, " - "); found {
		p.Venue = venue
	}
	if len(r.Resources) > 0 {
		p.PDFURL = r.Resources[0].Link
	}
	return p
}

type authorResponse struct {
	Author struct {
		Name         string `json:"name"`
		Affiliations string `json:"affiliations"`
		Email        string `json:"email"`
	} `json:"author"`
	Interests []struct {
		Title string `json:"title"`
	} `json:"interests"`
	CitedBy struct {
		Table []struct {
			Citations *struct {
				All *int `json:"all"`
			} `json:"citations"`
			HIndex *struct {
				All *int `json:"all"`
			} `json:"h_index"`
		} `json:"table"`
	} `json:"cited_by"`
}

func searchKey(query string, limit, yearFrom, yearTo int) string {
	return fmt.Sprintf("%s|%d|%d|%d", query, limit, yearFrom, yearTo)
}
