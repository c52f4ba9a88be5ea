package wikidata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

// Topic is a resolved Wikidata item
type Topic struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Language    string `json:"language"`
}

// searchResponse mirrors wbsearchentities output
type searchResponse struct {
	Search []struct {
		ID          string `json:"id"`
		Label       string `json:"label"`
		Description string `json:"description"`
	} `json:"search"`
}

// HasHan reports whether text contains any CJK ideograph
func HasHan(text string) bool {
	for _, r := range text {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// SearchLanguages returns the entity-search language order for text
func SearchLanguages(text string) []string {
	if HasHan(text) {
		return []string{"zh", "zh-tw", "zh-cn", "en"}
	}
	return []string{"en", "zh"}
}

// ResolveTopic maps free text to a Wikidata item, trying each search language in
// order until one returns a match. A failed language is logged and skipped.
// The error is only non-nil when ctx is done.
func (c *Client) ResolveTopic(ctx context.Context, text string) (Topic, bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Topic{}, false, nil
	}

	cacheKey := strings.ToLower(text)
	if topic, ok := c.cachedTopic(ctx, cacheKey); ok {
		return topic, true, nil
	}

	for _, lang := range SearchLanguages(text) {
		if err := ctx.Err(); err != nil {
			return Topic{}, false, err
		}

		topic, found, err := c.searchEntities(ctx, text, lang)
		if err != nil {
			if ctx.Err() != nil {
				return Topic{}, false, ctx.Err()
			}
			c.log.Warn("⚠️ entity search failed", "lang", lang, "topic", text, "error", err)
			continue
		}
		if found {
			c.log.Info("🔎 found topic", "lang", lang, "label", topic.Label, "qid", topic.ID)
			c.storeTopic(ctx, cacheKey, topic)
			return topic, true, nil
		}
	}

	return Topic{}, false, nil
}

func (c *Client) searchEntities(ctx context.Context, text, lang string) (Topic, bool, error) {
	params := url.Values{}
	params.Set("action", "wbsearchentities")
	params.Set("search", text)
	params.Set("language", lang)
	params.Set("format", "json")
	params.Set("limit", "1")

	res := c.fetcher.Get(ctx, c.endpoints.EntitySearch+"?"+params.Encode())
	if !res.OK() {
		return Topic{}, false, res.Failure()
	}

	var resp searchResponse
	if err := json.Unmarshal(res.Body, &resp); err != nil {
		return Topic{}, false, fmt.Errorf("failed to decode search response: %w", err)
	}
	if len(resp.Search) == 0 || resp.Search[0].ID == "" {
		return Topic{}, false, nil
	}

	hit := resp.Search[0]
	return Topic{ID: hit.ID, Label: hit.Label, Description: hit.Description, Language: lang}, true, nil
}

func (c *Client) cachedTopic(ctx context.Context, key string) (Topic, bool) {
	if c.topicCache == nil {
		return Topic{}, false
	}
	raw, ok, err := c.topicCache.Get(ctx, key)
	if err != nil {
		c.log.Warn("⚠️ topic cache read failed", "key", key, "error", err)
		return Topic{}, false
	}
	if !ok {
		return Topic{}, false
	}
	var topic Topic
	if err := json.Unmarshal([]byte(raw), &topic); err != nil || topic.ID == "" {
		return Topic{}, false
	}
	return topic, true
}

func (c *Client) storeTopic(ctx context.Context, key string, topic Topic) {
	if c.topicCache == nil {
		return
	}
	raw, err := json.Marshal(topic)
	if err != nil {
		return
	}
	if err := c.topicCache.Set(ctx, key, string(raw), c.cacheTTL); err != nil {
		c.log.Warn("⚠️ topic cache write failed", "key", key, "error", err)
	}
}
