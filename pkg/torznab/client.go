// Package torznab implements a client for the Torznab torrent indexer API.
package torznab

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrUnavailable marks failures worth retrying: the indexer could not be
// reached or answered with a server error.
var ErrUnavailable = errors.New("torznab: indexer unavailable")

// Category IDs from the Torznab standard.
const (
	CategoryMovies = 2000
	CategoryTV     = 5000
)

// Client talks to a single Torznab endpoint (Jackett, Prowlarr, etc).
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *slog.Logger
}

// Result is a single torrent returned by a search.
type Result struct {
	Title       string
	GUID        string
	MagnetURI   string
	InfoHash    string
	Size        int64
	Seeders     int
	Peers       int
	PublishDate time.Time
}

// NewClient creates a new Torznab client.
func NewClient(baseURL, apiKey string, log *slog.Logger) *Client {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log.With("component", "torznab"),
	}
}

// URL returns the indexer base URL.
func (c *Client) URL() string {
	return c.baseURL
}

type rssResponse struct {
	XMLName xml.Name   `xml:"rss"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title     string        `xml:"title"`
	GUID      string        `xml:"guid"`
	Link      string        `xml:"link"`
	Size      int64         `xml:"size"`
	PubDate   string        `xml:"pubDate"`
	Enclosure rssEnclosure  `xml:"enclosure"`
	Attrs     []torznabAttr `xml:"http://torznab.com/schemas/2015/feed attr"`
}

type rssEnclosure struct {
	URL    string `xml:"url,attr"`
	Length int64  `xml:"length,attr"`
}

type torznabAttr struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// Caps performs a capabilities request to test connectivity.
func (c *Client) Caps(ctx context.Context) error {
	resp, err := c.get(ctx, url.Values{"t": {"caps"}})
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}

// Search queries the indexer. Categories may be empty.
func (c *Client) Search(ctx context.Context, query string, categories []int) ([]Result, error) {
	start := time.Now()

	params := url.Values{}
	params.Set("t", "search")
	params.Set("q", query)
	if len(categories) > 0 {
		cats := make([]string, len(categories))
		for i, cat := range categories {
			cats[i] = strconv.Itoa(cat)
		}
		params.Set("cat", strings.Join(cats, ","))
	}

	resp, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var rss rssResponse
	if err := xml.NewDecoder(resp.Body).Decode(&rss); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	results := make([]Result, 0, len(rss.Channel.Items))
	for _, item := range rss.Channel.Items {
		results = append(results, item.toResult())
	}

	c.log.Debug("search complete", "query", query, "results", len(results), "duration_ms", time.Since(start).Milliseconds())
	return results, nil
}

func (c *Client) get(ctx context.Context, params url.Values) (*http.Response, error) {
	reqURL, err := url.Parse(c.baseURL + "/api")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	params.Set("apikey", c.apiKey)
	reqURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode >= 500 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return resp, nil
}

func (item rssItem) toResult() Result {
	res := Result{
		Title: item.Title,
		GUID:  item.GUID,
		Size:  item.Size,
	}
	if item.Enclosure.Length > 0 {
		res.Size = item.Enclosure.Length
	}

	for _, attr := range item.Attrs {
		switch attr.Name {
		case "seeders":
			res.Seeders, _ = strconv.Atoi(attr.Value)
		case "peers":
			res.Peers, _ = strconv.Atoi(attr.Value)
		case "magneturl":
			res.MagnetURI = attr.Value
		case "infohash":
			res.InfoHash = strings.ToLower(attr.Value)
		case "size":
			if res.Size == 0 {
				res.Size, _ = strconv.ParseInt(attr.Value, 10, 64)
			}
		}
	}

	// Some indexers only put the magnet in link or enclosure.
	for _, u := range []string{item.Link, item.Enclosure.URL} {
		if res.MagnetURI == "" && strings.HasPrefix(u, "magnet:") {
			res.MagnetURI = u
		}
	}
	if res.MagnetURI == "" && res.InfoHash != "" {
		res.MagnetURI = BuildMagnet(res.InfoHash, res.Title)
	}

	if item.PubDate != "" {
		for _, format := range []string{time.RFC1123Z, time.RFC1123} {
			if t, err := time.Parse(format, item.PubDate); err == nil {
				res.PublishDate = t
				break
			}
		}
	}
	return res
}

// BuildMagnet constructs a magnet URI from an info hash.
func BuildMagnet(infoHash, name string) string {
	u := "magnet:?xt=urn:btih:" + strings.ToLower(infoHash)
	if name != "" {
		u += "&dn=" + url.QueryEscape(name)
	}
	return u
}
