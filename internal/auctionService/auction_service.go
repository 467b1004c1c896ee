package auction

import (
	"fmt"
	"time"

	"bidhouse/internal/auctionerrors"
	"bidhouse/internal/clock"
	"bidhouse/internal/models"
	"bidhouse/internal/repository"
)

// Listing page bounds.
const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// AuctionService implements the auction lifecycle: item creation, bid
// acceptance, and closure with winner determination. Admin privilege is
// enforced by the identity layer before these methods run; callers pass the
// already-resolved user.
type AuctionService struct {
	repo repository.Store
	clk  clock.Clock

	// hideEndedItems controls whether listings also filter out active items
	// whose end time has passed but that nobody has closed yet. The default
	// (false) reproduces the historical behavior where such items still
	// appear.
	hideEndedItems bool
}

// NewAuctionService creates a new AuctionService instance.
func NewAuctionService(repo repository.Store, clk clock.Clock, hideEndedItems bool) *AuctionService {
	return &AuctionService{
		repo:           repo,
		clk:            clk,
		hideEndedItems: hideEndedItems,
	}
}

// CreateItem validates and stores a new listing for the given admin.
func (s *AuctionService) CreateItem(spec models.ItemSpec, admin models.User) (models.Item, error) {
	if spec.Name == "" {
		return models.Item{}, fmt.Errorf("service: %w - item name is required", auctionerrors.ErrValidation)
	}
	if spec.StartPrice < 0 {
		return models.Item{}, fmt.Errorf("service: %w - start price must not be negative", auctionerrors.ErrValidation)
	}

	now := s.clk.Now().UTC()
	if !spec.EndTime.After(now) {
		return models.Item{}, fmt.Errorf("service: %w - end time must be after the current time", auctionerrors.ErrValidation)
	}

	item := models.Item{
		Name:         spec.Name,
		Description:  spec.Description,
		StartPrice:   spec.StartPrice,
		CurrentPrice: spec.StartPrice,
		StartTime:    now,
		EndTime:      spec.EndTime.UTC(),
		IsActive:     true,
		AdminID:      admin.ID,
	}

	created, err := s.repo.CreateItem(item)
	if err != nil {
		return models.Item{}, fmt.Errorf("service: failed to create item %q: %w", spec.Name, err)
	}
	return created, nil
}

// PlaceBid validates and records a bid by the given user. The store
// serializes the price check and update per item, so after a successful call
// the item's current price equals the bid amount.
func (s *AuctionService) PlaceBid(itemID int64, amount float64, bidder models.User) (models.Bid, error) {
	if itemID <= 0 {
		return models.Bid{}, fmt.Errorf("service: %w - missing item id", auctionerrors.ErrValidation)
	}
	if amount <= 0 {
		return models.Bid{}, fmt.Errorf("service: %w - non-positive bid amount", auctionerrors.ErrValidation)
	}

	bid := models.Bid{
		ItemID:  itemID,
		UserID:  bidder.ID,
		Amount:  amount,
		BidTime: s.clk.Now().UTC(),
	}

	recorded, err := s.repo.RecordBid(bid)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to record bid for item %d by user %d: %w", itemID, bidder.ID, err)
	}
	return recorded, nil
}

// CloseAuction finalizes an item whose end time has passed, awarding it to
// the highest bidder. Ties on amount go to the earliest bid. An item with no
// bids closes without a winner.
func (s *AuctionService) CloseAuction(itemID int64, admin models.User) (models.Item, error) {
	if itemID <= 0 {
		return models.Item{}, fmt.Errorf("service: %w - missing item id", auctionerrors.ErrValidation)
	}

	item, err := s.repo.CloseItem(itemID, s.clk.Now().UTC())
	if err != nil {
		return models.Item{}, fmt.Errorf("service: failed to close item %d: %w", itemID, err)
	}
	return item, nil
}

// ListActiveItems returns active listings in insertion order, paged by
// offset/limit. Limit is clamped to [1, maxPageLimit] with a default of
// defaultPageLimit.
func (s *AuctionService) ListActiveItems(offset, limit int) ([]models.Item, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	var endedAfter time.Time
	if s.hideEndedItems {
		endedAfter = s.clk.Now().UTC()
	}

	items, err := s.repo.ListActiveItems(offset, limit, endedAfter)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list active items: %w", err)
	}
	return items, nil
}

// GetItem returns a single listing.
func (s *AuctionService) GetItem(itemID int64) (models.Item, error) {
	if itemID <= 0 {
		return models.Item{}, fmt.Errorf("service: %w - missing item id", auctionerrors.ErrValidation)
	}

	item, err := s.repo.GetItem(itemID)
	if err != nil {
		return models.Item{}, fmt.Errorf("service: failed to get item %d: %w", itemID, err)
	}
	return item, nil
}

// UpdateItem applies a partial update of name/description/end_time. No
// business-rule validation runs here: shortening the end time below "now" is
// accepted, matching the historical behavior.
func (s *AuctionService) UpdateItem(itemID int64, patch models.ItemPatch, admin models.User) (models.Item, error) {
	if itemID <= 0 {
		return models.Item{}, fmt.Errorf("service: %w - missing item id", auctionerrors.ErrValidation)
	}

	item, err := s.repo.UpdateItem(itemID, patch)
	if err != nil {
		return models.Item{}, fmt.Errorf("service: failed to update item %d: %w", itemID, err)
	}
	return item, nil
}

// DeleteItem hard-deletes an item regardless of its state; dependent bids
// are removed with it.
func (s *AuctionService) DeleteItem(itemID int64, admin models.User) error {
	if itemID <= 0 {
		return fmt.Errorf("service: %w - missing item id", auctionerrors.ErrValidation)
	}

	if err := s.repo.DeleteItem(itemID); err != nil {
		return fmt.Errorf("service: failed to delete item %d: %w", itemID, err)
	}
	return nil
}

// GetBidsForItem returns all bids for a specific item.
func (s *AuctionService) GetBidsForItem(itemID int64) ([]models.Bid, error) {
	if itemID <= 0 {
		return nil, fmt.Errorf("service: %w - missing item id", auctionerrors.ErrValidation)
	}

	bids, err := s.repo.GetBidsByItem(itemID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for item %d: %w", itemID, err)
	}
	return bids, nil
}

// GetWinningBid returns the current highest bid for a specific item.
func (s *AuctionService) GetWinningBid(itemID int64) (models.Bid, error) {
	if itemID <= 0 {
		return models.Bid{}, fmt.Errorf("service: %w - missing item id", auctionerrors.ErrValidation)
	}

	winningBid, err := s.repo.GetWinningBid(itemID)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to get winning bid for item %d: %w", itemID, err)
	}
	return winningBid, nil
}
