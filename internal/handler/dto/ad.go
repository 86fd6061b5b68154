// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/adboard/adboard/internal/model"
)

// CreateAdRequest represents the request body for creating an ad.
type CreateAdRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	UserID      int64   `json:"userId"`
}

// UpdateAdRequest represents the request body for overwriting an ad.
// The ad is addressed by ID in the body.
type UpdateAdRequest struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	UserID      int64   `json:"userId"`
}

// AdResponse represents an ad in API responses.
type AdResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	UserID      int64     `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ToAdResponse converts an Ad model to AdResponse DTO.
func ToAdResponse(ad *model.Ad) AdResponse {
	return AdResponse{
		ID:          ad.ID,
		Title:       ad.Title,
		Description: ad.Description,
		Price:       ad.Price,
		UserID:      ad.UserID,
		CreatedAt:   ad.CreatedAt,
	}
}

// ToAdResponses converts ads, never returning nil.
func ToAdResponses(ads []*model.Ad) []AdResponse {
	out := make([]AdResponse, len(ads))
	for i, ad := range ads {
		out[i] = ToAdResponse(ad)
	}
	return out
}
