package product

import (
	"strings"
	"time"

	"cardlink/pkg/domain"
	dErrors "cardlink/pkg/domain-errors"
)

// Product is a showcase item on a profile's card. Price stays a free-form
// string; the card renders it verbatim and no arithmetic is ever done on it.
type Product struct {
	ID          domain.ProductID `json:"id"`
	Profile     domain.ProfileID `json:"profile"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Price       string           `json:"price"`
	URL         string           `json:"url"`
	Image       string           `json:"image"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func New(id domain.ProductID, profileID domain.ProfileID, title string, now time.Time) (*Product, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "product title cannot be empty")
	}
	return &Product{
		ID:        id,
		Profile:   profileID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
