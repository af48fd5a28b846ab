package newswire

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxHeadlines caps the headlines handed to the prompt assembler.
const maxHeadlines = 5

// ParseHeadlines extracts distinct result headlines from a news search page.
func ParseHeadlines(htmlContent string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	seen := make(map[string]bool)
	var headlines []string

	collect := func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if len(text) < 15 || len(text) > 200 {
			return
		}
		if seen[text] || len(headlines) >= maxHeadlines {
			return
		}
		seen[text] = true
		headlines = append(headlines, text)
	}

	// News results render headline text in role=heading divs; plain result
	// pages fall back to h3 anchors.
	doc.Find(`div[role="heading"]`).Each(collect)
	if len(headlines) == 0 {
		doc.Find("h3").Each(collect)
	}

	return headlines, nil
}
