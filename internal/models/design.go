package models

import (
	"time"

	"github.com/google/uuid"
)

type DesignStatus string

const (
	DesignDraft     DesignStatus = "draft"
	DesignSubmitted DesignStatus = "submitted"
	DesignApproved  DesignStatus = "approved"
	DesignRejected  DesignStatus = "rejected"
)

// Placement positions one artwork element on a garment area.
type Placement struct {
	Area     string  `json:"area"`
	ImageURL string  `json:"image_url"`
	Text     string  `json:"text,omitempty"`
	Scale    float64 `json:"scale"`
	Rotation float64 `json:"rotation"`
}

type Design struct {
	ID         uuid.UUID    `json:"id"`
	UserID     uuid.UUID    `json:"user_id"`
	ProductID  uuid.UUID    `json:"product_id"`
	Name       string       `json:"name"`
	Preview    string       `json:"preview"`
	Placements []Placement  `json:"placements"`
	Status     DesignStatus `json:"status"`
	ReviewNote string       `json:"review_note,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}
