package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const searchQuery = `query SearchTitles($country: Country!, $language: Language!, $first: Int!, $filter: TitleFilter) {
  popularTitles(country: $country, first: $first, filter: $filter) {
    edges {
      node {
        objectType
        content(country: $country, language: $language) {
          title
          originalReleaseYear
          externalIds { tmdbId }
        }
        offers(country: $country, platform: WEB) {
          monetizationType
          standardWebURL
          package { packageId clearName }
        }
      }
    }
  }
}`

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLResponse struct {
	Data struct {
		PopularTitles struct {
			Edges []struct {
				Node graphQLNode `json:"node"`
			} `json:"edges"`
		} `json:"popularTitles"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type graphQLNode struct {
	ObjectType string `json:"objectType"`
	Content    struct {
		Title               string     `json:"title"`
		OriginalReleaseYear flexString `json:"originalReleaseYear"`
		ExternalIDs         struct {
			TMDBID flexString `json:"tmdbId"`
		} `json:"externalIds"`
	} `json:"content"`
	Offers []graphQLOffer `json:"offers"`
}

// searchGraphQL runs the primary search. Any transport failure, non-200
// status, undecodable body, or GraphQL error list is returned as an error.
func (m *Matcher) searchGraphQL(ctx context.Context, title string) ([]candidate, error) {
	body, err := json.Marshal(graphQLRequest{
		Query: searchQuery,
		Variables: map[string]any{
			"country":  m.country,
			"language": m.language,
			"first":    maxCandidates,
			"filter":   map[string]any{"searchQuery": title},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.graphQLURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("graphql status: %s", resp.Status)
	}

	var gr graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(gr.Errors) > 0 {
		msgs := make([]string, len(gr.Errors))
		for i, e := range gr.Errors {
			msgs[i] = e.Message
		}
		return nil, errors.New("graphql errors: " + strings.Join(msgs, "; "))
	}

	edges := gr.Data.PopularTitles.Edges
	cands := make([]candidate, 0, len(edges))
	for _, e := range edges {
		n := e.Node
		c := candidate{
			Title:      n.Content.Title,
			Year:       n.Content.OriginalReleaseYear,
			ObjectType: strings.ToUpper(n.ObjectType),
			ExternalID: string(n.Content.ExternalIDs.TMDBID),
		}
		for _, o := range n.Offers {
			c.Offers = append(c.Offers, fromGraphQLOffer(o))
		}
		cands = append(cands, c)
	}
	return cands, nil
}
