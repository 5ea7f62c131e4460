package library

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const contentColumns = "id, type, title, year, external_id, season, episode, video_embed_url, external_watch_links, added_at, updated_at"

// mapSQLiteError converts SQLite errors to package errors.
func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	// modernc.org/sqlite only exposes constraint failures through the message.
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		return ErrDuplicate
	}
	if strings.Contains(msg, "CHECK constraint failed") {
		return ErrConstraint
	}
	return err
}

func encodeLinks(links map[string]string) (string, error) {
	if len(links) == 0 {
		return "", nil
	}
	b, err := json.Marshal(links)
	if err != nil {
		return "", fmt.Errorf("encode watch links: %w", err)
	}
	return string(b), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanContent(s scanner) (*Content, error) {
	c := &Content{}
	var links string
	if err := s.Scan(&c.ID, &c.MediaType, &c.Title, &c.Year, &c.ExternalID, &c.Season, &c.Episode,
		&c.VideoEmbedURL, &links, &c.AddedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if links != "" {
		if err := json.Unmarshal([]byte(links), &c.ExternalWatchLinks); err != nil {
			return nil, fmt.Errorf("decode watch links for content %d: %w", c.ID, err)
		}
	}
	return c, nil
}

func addContent(q querier, c *Content) error {
	if !c.MediaType.Valid() {
		return fmt.Errorf("insert content: type %q: %w", c.MediaType, ErrConstraint)
	}
	links, err := encodeLinks(c.ExternalWatchLinks)
	if err != nil {
		return err
	}
	now := time.Now()
	result, err := q.Exec(`
		INSERT INTO content (type, title, year, external_id, season, episode, video_embed_url, external_watch_links, added_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.MediaType, c.Title, c.Year, c.ExternalID, c.Season, c.Episode, c.VideoEmbedURL, links, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert content: %w", mapSQLiteError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	c.ID = id
	c.AddedAt = now
	c.UpdatedAt = now
	return nil
}

// AddContent inserts a new content item.
// Sets ID, AddedAt, and UpdatedAt on the struct.
func (s *Store) AddContent(c *Content) error { return addContent(s.db, c) }

// AddContent inserts a new content item within a transaction.
func (t *Tx) AddContent(c *Content) error { return addContent(t.tx, c) }

func getContent(q querier, id int64) (*Content, error) {
	c, err := scanContent(q.QueryRow("SELECT "+contentColumns+" FROM content WHERE id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("get content %d: %w", id, mapSQLiteError(err))
	}
	return c, nil
}

// GetContent retrieves a content item by ID.
// Returns ErrNotFound if the content does not exist.
func (s *Store) GetContent(id int64) (*Content, error) { return getContent(s.db, id) }

// GetContent retrieves a content item by ID within a transaction.
func (t *Tx) GetContent(id int64) (*Content, error) { return getContent(t.tx, id) }

func listContent(q querier, f ContentFilter) ([]*Content, int, error) {
	var conditions []string
	var args []any

	if f.Type != nil {
		conditions = append(conditions, "type = ?")
		args = append(args, *f.Type)
	}
	if f.ExternalID != nil {
		conditions = append(conditions, "external_id = ?")
		args = append(args, *f.ExternalID)
	}
	if f.MissingEmbed || f.MissingStream {
		conditions = append(conditions, "video_embed_url = ''")
	}
	if f.MissingStream {
		conditions = append(conditions, "external_watch_links = ''")
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := q.QueryRow("SELECT COUNT(*) FROM content "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count content: %w", err)
	}

	query := "SELECT " + contentColumns + " FROM content " + where + " ORDER BY id"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list content: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Content
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan content: %w", err)
		}
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate content: %w", err)
	}
	return results, total, nil
}

// ListContent returns content items matching the filter with pagination.
// Returns (results, totalCount, error).
func (s *Store) ListContent(f ContentFilter) ([]*Content, int, error) { return listContent(s.db, f) }

// ListContent returns content items matching the filter within a transaction.
func (t *Tx) ListContent(f ContentFilter) ([]*Content, int, error) { return listContent(t.tx, f) }

func updateColumn(q querier, id int64, column string, value any) error {
	result, err := q.Exec("UPDATE content SET "+column+" = ?, updated_at = ? WHERE id = ?", value, time.Now(), id)
	if err != nil {
		return fmt.Errorf("update content %d: %w", id, mapSQLiteError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update content %d: %w", id, ErrNotFound)
	}
	return nil
}

// SetVideoEmbedURL stores the primary playback URL for a content item.
func (s *Store) SetVideoEmbedURL(id int64, url string) error {
	return updateColumn(s.db, id, "video_embed_url", url)
}

// SetVideoEmbedURL stores the primary playback URL within a transaction.
func (t *Tx) SetVideoEmbedURL(id int64, url string) error {
	return updateColumn(t.tx, id, "video_embed_url", url)
}

func setWatchLinks(q querier, id int64, links map[string]string) error {
	enc, err := encodeLinks(links)
	if err != nil {
		return err
	}
	return updateColumn(q, id, "external_watch_links", enc)
}

// SetExternalWatchLinks replaces the external watch-link map. A nil or empty
// map clears it.
func (s *Store) SetExternalWatchLinks(id int64, links map[string]string) error {
	return setWatchLinks(s.db, id, links)
}

// SetExternalWatchLinks replaces the external watch-link map within a transaction.
func (t *Tx) SetExternalWatchLinks(id int64, links map[string]string) error {
	return setWatchLinks(t.tx, id, links)
}

func deleteContent(q querier, id int64) error {
	if _, err := q.Exec("DELETE FROM content WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete content %d: %w", id, mapSQLiteError(err))
	}
	return nil
}

// DeleteContent removes a content item by ID.
// This operation is idempotent - no error is returned if the content does not exist.
func (s *Store) DeleteContent(id int64) error { return deleteContent(s.db, id) }

// DeleteContent removes a content item by ID within a transaction.
func (t *Tx) DeleteContent(id int64) error { return deleteContent(t.tx, id) }
