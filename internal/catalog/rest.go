package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

type restRequest struct {
	Query    string `json:"query"`
	PageSize int    `json:"page_size"`
}

type restResponse struct {
	Items []restItem `json:"items"`
}

type restItem struct {
	Title               string     `json:"title"`
	ObjectType          string     `json:"object_type"` // movie or show
	OriginalReleaseYear flexString `json:"original_release_year"`
	ExternalIDs         []struct {
		Provider   string     `json:"provider"`
		ExternalID flexString `json:"external_id"`
	} `json:"external_ids"`
	Offers []restOffer `json:"offers"`
}

// searchREST runs the fallback search against the legacy content endpoint.
func (m *Matcher) searchREST(ctx context.Context, title string) ([]candidate, error) {
	body, err := json.Marshal(restRequest{Query: title, PageSize: maxCandidates})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	locale := strings.ToLower(m.language) + "_" + strings.ToUpper(m.country)
	u := fmt.Sprintf("%s/titles/%s/popular?body=%s", m.restURL, locale, url.QueryEscape(string(body)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rest status: %s", resp.Status)
	}

	var rr restResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	cands := make([]candidate, 0, len(rr.Items))
	for _, item := range rr.Items {
		c := candidate{
			Title:      item.Title,
			Year:       item.OriginalReleaseYear,
			ObjectType: strings.ToUpper(item.ObjectType),
		}
		for _, id := range item.ExternalIDs {
			if id.Provider == "tmdb" || id.Provider == "tmdb_latest" {
				c.ExternalID = string(id.ExternalID)
				break
			}
		}
		for _, o := range item.Offers {
			c.Offers = append(c.Offers, fromRestOffer(o))
		}
		cands = append(cands, c)
	}
	return cands, nil
}
