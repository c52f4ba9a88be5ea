// Package metadata extracts page metadata and plain text from Wikipedia page summaries.
package metadata

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// PageSummary is the subset of the REST page summary the pipeline uses
type PageSummary struct {
	Title       string
	Description string
	Extract     string // plain text, rendered from extract_html when present
	ImageURL    string
	PageURL     string
	Language    string
	WordCount   int64
}

// summaryDocument mirrors the REST /page/summary response
type summaryDocument struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Extract     string `json:"extract"`
	ExtractHTML string `json:"extract_html"`
	Lang        string `json:"lang"`
	Thumbnail   *struct {
		Source string `json:"source"`
	} `json:"thumbnail"`
	OriginalImage *struct {
		Source string `json:"source"`
	} `json:"originalimage"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

var whitespace = regexp.MustCompile(`\s+`)

// ParseSummary decodes a page summary response body
func ParseSummary(body []byte) (*PageSummary, error) {
	var doc summaryDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode page summary: %w", err)
	}

	summary := &PageSummary{
		Title:       doc.Title,
		Description: doc.Description,
		PageURL:     doc.ContentURLs.Desktop.Page,
		Language:    doc.Lang,
	}

	// Disambiguation pages carry no usable extract or image
	if doc.Type == "disambiguation" {
		return summary, nil
	}

	switch {
	case doc.Thumbnail != nil && doc.Thumbnail.Source != "":
		summary.ImageURL = doc.Thumbnail.Source
	case doc.OriginalImage != nil && doc.OriginalImage.Source != "":
		summary.ImageURL = doc.OriginalImage.Source
	}

	if doc.ExtractHTML != "" {
		text, err := TextContent(doc.ExtractHTML)
		if err != nil {
			return nil, err
		}
		summary.Extract = text
	}
	if summary.Extract == "" {
		summary.Extract = whitespace.ReplaceAllString(strings.TrimSpace(doc.Extract), " ")
	}
	if summary.Extract != "" {
		summary.WordCount = int64(len(strings.Fields(summary.Extract)))
	}

	return summary, nil
}

// TextContent renders an HTML fragment as whitespace-collapsed plain text
func TextContent(fragment string) (string, error) {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	var extractText func(*html.Node) string
	extractText = func(n *html.Node) string {
		// Skip script and style elements
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return ""
		}

		var text strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				text.WriteString(c.Data)
			} else if c.Type == html.ElementNode {
				childText := extractText(c)
				if childText != "" {
					if text.Len() > 0 && c.Data == "p" {
						text.WriteString(" ")
					}
					text.WriteString(childText)
				}
			}
		}
		return text.String()
	}

	return whitespace.ReplaceAllString(strings.TrimSpace(extractText(doc)), " "), nil
}
