// Package paper holds the canonical literature record shared by the search
// adapter and the pipeline.
package paper

import "sort"

// Paper is one literature record in the canonical shape the pipeline
// consumes. Optional metadata uses pointers so an absent value survives the
// round-trip through JSON.
type Paper struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Abstract      string `json:"abstract"`
	Year          *int   `json:"year,omitempty"`
	Authors       string `json:"authors"`
	Venue         string `json:"venue,omitempty"`
	CitationCount *int   `json:"citation_count,omitempty"`
	URL           string `json:"url"`
	PDFURL        string `json:"pdf_url,omitempty"`
	Provider      string `json:"provider"`
}

// Citations returns the citation count used for ranking. A missing count
// ranks as zero; an explicit zero is indistinguishable from missing.
func (p Paper) Citations() int {
	if p.CitationCount == nil {
		return 0
	}
	return *p.CitationCount
}

// Dedupe drops records whose ID was already seen, keeping the first
// occurrence's content.
func Dedupe(papers []Paper) []Paper {
	seen := make(map[string]struct{}, len(papers))
	out := make([]Paper, 0, len(papers))
	for _, p := range papers {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}

// RankByCitations sorts papers by citation count descending, in place. The
// sort is stable so equally cited papers keep their relative order.
func RankByCitations(papers []Paper) {
	sort.SliceStable(papers, func(i, j int) bool {
		return papers[i].Citations() > papers[j].Citations()
	})
}
