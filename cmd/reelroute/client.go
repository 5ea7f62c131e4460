package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vmunix/reelroute/internal/automation"
	"github.com/vmunix/reelroute/internal/catalog"
	"github.com/vmunix/reelroute/internal/debrid"
	"github.com/vmunix/reelroute/internal/engine"
	"github.com/vmunix/reelroute/internal/library"
	"github.com/vmunix/reelroute/internal/registry"
)

// Client wraps HTTP calls to the reelroute server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new reelroute API client. Bulk automation calls can
// run for minutes, so the timeout is generous.
func NewClient(serverURL string) *Client {
	return &Client{
		baseURL: serverURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Minute,
		},
	}
}

// ServerError is a non-2xx response from the server.
type ServerError struct {
	StatusCode int
	Code       string
	Message    string
	TorrentID  string // debrid job left upstream by a failed request
}

func (e *ServerError) Error() string {
	msg := fmt.Sprintf("server error %d: %s", e.StatusCode, e.Message)
	if e.Code != "" {
		msg = fmt.Sprintf("server error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	if e.TorrentID != "" {
		msg += fmt.Sprintf(" (torrent %s)", e.TorrentID)
	}
	return msg
}

func readServerError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	var payload struct {
		Error     string `json:"error"`
		Code      string `json:"code"`
		TorrentID string `json:"torrent_id"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		return &ServerError{StatusCode: resp.StatusCode, Code: payload.Code, Message: payload.Error, TorrentID: payload.TorrentID}
	}
	return &ServerError{StatusCode: resp.StatusCode, Message: string(body)}
}

func (c *Client) do(method, path string, body, result any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal error: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, c.baseURL+path, r)
	if err != nil {
		return fmt.Errorf("request creation failed: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readServerError(resp)
	}
	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(result)
}

func (c *Client) get(path string, result any) error {
	return c.do(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body, result any) error {
	return c.do(http.MethodPost, path, body, result)
}

func (c *Client) delete(path string) error {
	return c.do(http.MethodDelete, path, nil, nil)
}

// API response types (mirror server types)

type StatusResponse struct {
	Status        string   `json:"status"`
	Content       int      `json:"content"`
	MissingStream int      `json:"missing_stream"`
	Mirrors       []string `json:"mirrors"`
	Services      struct {
		Catalog    bool `json:"catalog"`
		Debrid     bool `json:"debrid"`
		Indexer    bool `json:"indexer"`
		Automation bool `json:"automation"`
		EventLog   bool `json:"event_log"`
	} `json:"services"`
	IndexerError string `json:"indexer_error,omitempty"`
}

type SourcesResponse struct {
	Sources []registry.SourceCandidate `json:"sources"`
	Total   int                        `json:"total"`
}

type LookupRequest struct {
	Title      string `json:"title,omitempty"`
	Year       int    `json:"year,omitempty"`
	MediaType  string `json:"media_type,omitempty"`
	ExternalID string `json:"external_id,omitempty"`
}

type JobResponse struct {
	debrid.Job
	Error string `json:"error,omitempty"`
}

type ListContentResponse struct {
	Items  []library.Content `json:"items"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

type PlanResponse struct {
	ContentID     int64                 `json:"content_id"`
	Sources       []engine.Source       `json:"sources"`
	ExternalLinks []engine.ExternalLink `json:"external_links"`
	DefaultIndex  int                   `json:"default_index"`
}

type AutoResolveResponse struct {
	automation.ResolveResult
	Error string `json:"error,omitempty"`
}

type EventResponse struct {
	ID         int64     `json:"id"`
	EventType  string    `json:"event_type"`
	EntityType string    `json:"entity_type"`
	EntityID   int64     `json:"entity_id"`
	Payload    string    `json:"payload"`
	OccurredAt time.Time `json:"occurred_at"`
}

type ListEventsResponse struct {
	Items []EventResponse `json:"items"`
	Total int             `json:"total"`
}

// Client methods

func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.get("/api/v1/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Sources(externalID, mediaType string, season, episode int) (*SourcesResponse, error) {
	params := url.Values{}
	params.Set("external_id", externalID)
	if mediaType != "" {
		params.Set("type", mediaType)
	}
	if season > 0 {
		params.Set("season", strconv.Itoa(season))
	}
	if episode > 0 {
		params.Set("episode", strconv.Itoa(episode))
	}

	var resp SourcesResponse
	if err := c.get("/api/v1/sources?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Lookup(req LookupRequest) (*catalog.Result, error) {
	var resp catalog.Result
	if err := c.post("/api/v1/lookup", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) AddMagnet(magnet string) (*JobResponse, error) {
	var resp JobResponse
	if err := c.post("/api/v1/debrid/torrents", map[string]string{"magnet": magnet}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TorrentStatus polls a debrid job. contentID ties the poll to a library
// item in the event log; 0 leaves it unattributed.
func (c *Client) TorrentStatus(torrentID string, contentID int64) (*JobResponse, error) {
	path := "/api/v1/debrid/torrents/" + url.PathEscape(torrentID)
	if contentID > 0 {
		path += "?content_id=" + strconv.FormatInt(contentID, 10)
	}
	var resp JobResponse
	if err := c.get(path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) DeleteTorrent(torrentID string) error {
	return c.delete("/api/v1/debrid/torrents/" + url.PathEscape(torrentID))
}

func (c *Client) Unrestrict(link string) (*debrid.Stream, error) {
	var resp debrid.Stream
	if err := c.post("/api/v1/debrid/unrestrict", map[string]string{"link": link}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ResolveMagnet(magnet string) (*debrid.Outcome, error) {
	var resp debrid.Outcome
	if err := c.post("/api/v1/debrid/resolve", map[string]string{"magnet": magnet}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListContent(missing string, limit int) (*ListContentResponse, error) {
	params := url.Values{}
	if missing != "" {
		params.Set("missing", missing)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/v1/content"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var resp ListContentResponse
	if err := c.get(path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) AddContent(ref library.ContentRef) (*library.Content, error) {
	var resp library.Content
	if err := c.post("/api/v1/content", ref, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Plan(contentID int64) (*PlanResponse, error) {
	var resp PlanResponse
	if err := c.get(fmt.Sprintf("/api/v1/content/%d/plan", contentID), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) AutoResolve(contentID int64) (*AutoResolveResponse, error) {
	var resp AutoResolveResponse
	if err := c.post(fmt.Sprintf("/api/v1/automation/resolve/%d", contentID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) BulkResolve(limit int) (*automation.BatchReport, error) {
	var resp automation.BatchReport
	if err := c.post("/api/v1/automation/resolve", map[string]int{"limit": limit}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Refresh(limit int) (*automation.RefreshReport, error) {
	var resp automation.RefreshReport
	if err := c.post("/api/v1/automation/refresh", map[string]int{"limit": limit}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Apply(proposals []automation.Proposal, approved []int64) (*automation.ApplyReport, error) {
	body := map[string]any{"proposals": proposals, "approved": approved}
	var resp automation.ApplyReport
	if err := c.post("/api/v1/automation/apply", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Events(limit int) (*ListEventsResponse, error) {
	var resp ListEventsResponse
	if err := c.get(fmt.Sprintf("/api/v1/events?limit=%d", limit), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
