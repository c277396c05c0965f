package core

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"newshound/internal/store"
)

const defaultAlgoliaBaseURL = "https://hn.algolia.com"

// SourceFetcher returns candidate grounding documents for a query. Entries
// may carry a nil Text when nothing could be extracted; callers filter those
// out before prompting.
type SourceFetcher interface {
	Fetch(ctx context.Context, query string, limit int) ([]store.WebSource, error)
}

// HNFetcher retrieves Hacker News threads via the Algolia search API: one
// search call for the top hits, then one item call per hit to collect the
// thread text.
type HNFetcher struct {
	baseURL    string
	httpClient *http.Client
}

func NewHNFetcher() *HNFetcher {
	return &HNFetcher{
		baseURL:    defaultAlgoliaBaseURL,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
}

type searchHit struct {
	ObjectID string `json:"objectID"`
	Title    string `json:"title"`
	URL      string `json:"url"`
}

type searchResponse struct {
	Hits []searchHit `json:"hits"`
}

type hnItem struct {
	Title    string   `json:"title"`
	Text     string   `json:"text"`
	Children []hnItem `json:"children"`
}

func (f *HNFetcher) Fetch(ctx context.Context, query string, limit int) ([]store.WebSource, error) {
	searchURL := fmt.Sprintf("%s/api/v1/search?query=%s&hitsPerPage=%s",
		f.baseURL, url.QueryEscape(query), strconv.Itoa(limit))

	var sr searchResponse
	if err := f.getJSON(ctx, searchURL, &sr); err != nil {
		return nil, fmt.Errorf("hn search failed: %w", err)
	}

	sources := make([]store.WebSource, 0, len(sr.Hits))
	for _, hit := range sr.Hits {
		sourceURL := hit.URL
		if sourceURL == "" {
			sourceURL = fmt.Sprintf("https://news.ycombinator.com/item?id=%s", hit.ObjectID)
		}

		var item hnItem
		itemURL := fmt.Sprintf("%s/api/v1/items/%s", f.baseURL, hit.ObjectID)
		if err := f.getJSON(ctx, itemURL, &item); err != nil {
			return nil, fmt.Errorf("hn item %s failed: %w", hit.ObjectID, err)
		}

		source := store.WebSource{URL: sourceURL}
		if text := flattenThread(item); text != "" {
			source.Text = &text
		}
		sources = append(sources, source)
	}
	return sources, nil
}

func (f *HNFetcher) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, rawURL)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// flattenThread collects the title, story text, and all comment texts of a
// thread into one plain-text block, oldest-branch first.
func flattenThread(item hnItem) string {
	var parts []string
	collectThreadText(item, &parts)
	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}

func collectThreadText(item hnItem, parts *[]string) {
	if item.Title != "" {
		*parts = append(*parts, item.Title)
	}
	if text := stripHTML(item.Text); text != "" {
		*parts = append(*parts, text)
	}
	for _, child := range item.Children {
		collectThreadText(child, parts)
	}
}

// stripHTML extracts plain text from the HTML fragments the Algolia API
// returns for story and comment bodies.
func stripHTML(fragment string) string {
	if fragment == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.TrimSpace(doc.Text())
}
