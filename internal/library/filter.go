package library

// ContentFilter specifies criteria for listing content.
type ContentFilter struct {
	Type          *ContentType
	ExternalID    *string
	MissingEmbed  bool // no video_embed_url
	MissingStream bool // neither video_embed_url nor external_watch_links
	Limit         int  // 0 = no limit
	Offset        int
}
