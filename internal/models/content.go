package models

import "time"

const (
	ContentTypeArticle  = "article"
	ContentTypeCourse   = "course"
	ContentTypeEvent    = "event"
	ContentTypeDownload = "download"
	ContentTypeLink     = "link"
)

type ContentItem struct {
	ID           string    `json:"id"`
	OrgID        string    `json:"org_id"`
	Type         string    `json:"type"`
	Title        string    `json:"title"`
	PriceInCents int64     `json:"price_in_cents"`
	ProgramIDs   []string  `json:"program_ids"`
	CreatedAt    time.Time `json:"created_at"`
}

type ContentPurchase struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"org_id"`
	UserID    string    `json:"user_id"`
	ContentID string    `json:"content_id"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

const ContentPurchaseSourceProgramGrant = "program-grant"
