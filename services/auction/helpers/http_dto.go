package helpers

import (
	"time"

	model "bidhouse/internal/models"
)

// Request DTOs
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	IsAdmin  bool   `json:"is_admin"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type CreateItemRequest struct {
	Name        string    `json:"name" binding:"required"`
	Description string    `json:"description"`
	StartPrice  float64   `json:"start_price" binding:"gte=0"`
	EndTime     time.Time `json:"end_time" binding:"required"`
}

type UpdateItemRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	EndTime     *time.Time `json:"end_time"`
}

type PlaceBidRequest struct {
	ItemID int64   `json:"item_id" binding:"required"`
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// Response DTOs
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type ItemResponse struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	StartPrice   float64 `json:"start_price"`
	CurrentPrice float64 `json:"current_price"`
	StartTime    string  `json:"start_time"`
	EndTime      string  `json:"end_time"`
	IsActive     bool    `json:"is_active"`
	AdminID      int64   `json:"admin_id"`
	WinnerID     *int64  `json:"winner_id"`
}

type BidResponse struct {
	BidID   int64   `json:"bid_id"`
	ItemID  int64   `json:"item_id"`
	UserID  int64   `json:"user_id"`
	Amount  float64 `json:"amount"`
	BidTime string  `json:"bid_time"`
}

// NewItemResponse converts a stored item to its wire shape. Times go out as
// UTC RFC 3339.
func NewItemResponse(item model.Item) ItemResponse {
	return ItemResponse{
		ID:           item.ID,
		Name:         item.Name,
		Description:  item.Description,
		StartPrice:   item.StartPrice,
		CurrentPrice: item.CurrentPrice,
		StartTime:    item.StartTime.UTC().Format(time.RFC3339),
		EndTime:      item.EndTime.UTC().Format(time.RFC3339),
		IsActive:     item.IsActive,
		AdminID:      item.AdminID,
		WinnerID:     item.WinnerID,
	}
}

// NewBidResponse converts a stored bid to its wire shape.
func NewBidResponse(bid model.Bid) BidResponse {
	return BidResponse{
		BidID:   bid.ID,
		ItemID:  bid.ItemID,
		UserID:  bid.UserID,
		Amount:  bid.Amount,
		BidTime: bid.BidTime.UTC().Format(time.RFC3339),
	}
}

// NewItemResponses converts a slice of items, never returning nil.
func NewItemResponses(items []model.Item) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewItemResponse(item))
	}
	return out
}

// NewBidResponses converts a slice of bids, never returning nil.
func NewBidResponses(bids []model.Bid) []BidResponse {
	out := make([]BidResponse, 0, len(bids))
	for _, bid := range bids {
		out = append(out, NewBidResponse(bid))
	}
	return out
}
