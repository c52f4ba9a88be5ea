package wikidata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"earthistory/internal/metadata"
)

// maintenanceMarkers flags tracking and housekeeping categories that make poor suggestions
var maintenanceMarkers = []string{
	"Template", "User", "Wikipedia", "維基百科", "條目", "頁面", "使用", "CS1",
}

func isMaintenanceCategory(title string) bool {
	for _, marker := range maintenanceMarkers {
		if strings.Contains(title, marker) {
			return true
		}
	}
	return false
}

type categoryMembersResponse struct {
	Query *struct {
		CategoryMembers []struct {
			NS    int    `json:"ns"`
			Title string `json:"title"`
		} `json:"categorymembers"`
	} `json:"query"`
}

type pageCategoriesResponse struct {
	Query *struct {
		Pages map[string]struct {
			Title      string `json:"title"`
			Categories []struct {
				Title string `json:"title"`
			} `json:"categories"`
		} `json:"pages"`
	} `json:"query"`
}

func (c *Client) wikipediaAPI(lang string) string {
	if lang == "" {
		lang = "en"
	}
	if strings.Contains(c.endpoints.WikipediaAPI, "%s") {
		return fmt.Sprintf(c.endpoints.WikipediaAPI, lang)
	}
	return c.endpoints.WikipediaAPI
}

// FetchCategoryMembers lists up to ten members of the Wikipedia category named topic.
// The "Category:" prefix is added when missing and stripped from the results.
func (c *Client) FetchCategoryMembers(ctx context.Context, topic, lang string) ([]string, error) {
	title := topic
	if !strings.HasPrefix(strings.ToLower(title), "category:") {
		title = "Category:" + title
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "categorymembers")
	params.Set("cmtitle", title)
	params.Set("cmlimit", "10")
	params.Set("format", "json")

	res := c.fetcher.Get(ctx, c.wikipediaAPI(lang)+"?"+params.Encode())
	if !res.OK() {
		return nil, fmt.Errorf("category members for %q: %w", topic, res.Failure())
	}

	var resp categoryMembersResponse
	if err := json.Unmarshal(res.Body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode category members: %w", err)
	}
	if resp.Query == nil {
		return nil, nil
	}

	var out []string
	for _, m := range resp.Query.CategoryMembers {
		name := strings.TrimPrefix(m.Title, "Category:")
		if name == "" || strings.Contains(name, "Template") || strings.Contains(name, "User") {
			continue
		}
		out = append(out, name)
	}
	return out, nil
}

// FetchPageCategories lists the categories of the Wikipedia page titled topic,
// minus maintenance categories.
func (c *Client) FetchPageCategories(ctx context.Context, topic, lang string) ([]string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("prop", "categories")
	params.Set("titles", topic)
	params.Set("cllimit", "10")
	params.Set("format", "json")

	res := c.fetcher.Get(ctx, c.wikipediaAPI(lang)+"?"+params.Encode())
	if !res.OK() {
		return nil, fmt.Errorf("page categories for %q: %w", topic, res.Failure())
	}

	var resp pageCategoriesResponse
	if err := json.Unmarshal(res.Body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode page categories: %w", err)
	}
	if resp.Query == nil {
		return nil, nil
	}

	var out []string
	for _, page := range resp.Query.Pages {
		for _, cat := range page.Categories {
			name := strings.TrimPrefix(cat.Title, "Category:")
			if name == "" || isMaintenanceCategory(name) {
				continue
			}
			out = append(out, name)
		}
		// Single-title query, one page
		break
	}
	return out, nil
}

// FetchPageSummary returns the REST summary of the English Wikipedia page titled title.
// A missing page is (nil, nil).
func (c *Client) FetchPageSummary(ctx context.Context, title string) (*metadata.PageSummary, error) {
	encoded := url.PathEscape(strings.ReplaceAll(strings.TrimSpace(title), " ", "_"))
	res := c.fetcher.Get(ctx, strings.TrimRight(c.endpoints.WikipediaREST, "/")+"/"+encoded)
	if !res.OK() {
		if res.StatusCode == 404 {
			return nil, nil
		}
		return nil, fmt.Errorf("page summary for %q: %w", title, res.Failure())
	}
	return metadata.ParseSummary(res.Body)
}
