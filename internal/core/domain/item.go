package domain

import "time"

type ItemStatus string

const (
	ItemStatusAvailable ItemStatus = "AVAILABLE"
	ItemStatusSold      ItemStatus = "SOLD"
	ItemStatusRemoved   ItemStatus = "REMOVED"
)

func (s ItemStatus) Valid() bool {
	switch s {
	case ItemStatusAvailable, ItemStatusSold, ItemStatusRemoved:
		return true
	}
	return false
}

type Item struct {
	ID          int64
	Name        string
	Description string
	Price       float64
	OwnerID     int64
	Status      ItemStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ItemUpdate carries a partial update; nil fields are left untouched.
type ItemUpdate struct {
	Name        *string
	Description *string
	Price       *float64
	Status      *ItemStatus
}

// ItemFilter narrows a listing query. Keyword matches name or description,
// case-insensitive. Statuses nil means AVAILABLE only.
type ItemFilter struct {
	Keyword         string
	MinPrice        *float64
	MaxPrice        *float64
	MinSellerRating *float64
	Statuses        []ItemStatus
}
