package models

import (
	"time"

	"github.com/google/uuid"
)

type Product struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Image        string    `json:"image"`
	Price        float64   `json:"price"`
	Sizes        []string  `json:"sizes"`
	Colors       []string  `json:"colors"`
	Stock        int       `json:"stock"`
	IsActive     bool      `json:"is_active"`
	Customizable bool      `json:"customizable"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
