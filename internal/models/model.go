package models

import "time"

// User represents a registered account. PasswordHash is never serialized.
type User struct {
	ID           int64  `json:"id" gorm:"primaryKey"`
	Username     string `json:"username" gorm:"uniqueIndex;not null"`
	PasswordHash string `json:"-" gorm:"not null"`
	IsAdmin      bool   `json:"is_admin"`
}

// Item represents an auction listing. CurrentPrice tracks the highest
// accepted bid and never drops below StartPrice. Once IsActive goes false
// the item stays closed.
type Item struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"not null"`
	Description  string    `json:"description"`
	StartPrice   float64   `json:"start_price"`
	CurrentPrice float64   `json:"current_price"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	IsActive     bool      `json:"is_active"`
	AdminID      int64     `json:"admin_id"`
	WinnerID     *int64    `json:"winner_id"`
}

// Bid represents a user's offer on an item. Bids are immutable once recorded.
type Bid struct {
	ID      int64     `json:"id" gorm:"primaryKey"`
	ItemID  int64     `json:"item_id" gorm:"index;not null"`
	UserID  int64     `json:"user_id" gorm:"not null"`
	Amount  float64   `json:"amount"`
	BidTime time.Time `json:"bid_time"`
}

// ItemSpec carries the admin-supplied fields for a new listing.
type ItemSpec struct {
	Name        string
	Description string
	StartPrice  float64
	EndTime     time.Time
}

// ItemPatch is a partial update of the mutable listing fields. Nil fields
// are left untouched.
type ItemPatch struct {
	Name        *string
	Description *string
	EndTime     *time.Time
}
