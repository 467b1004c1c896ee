package repository

import (
	"fmt"
	"sync"
	"time"

	"bidhouse/internal/auctionerrors"
	model "bidhouse/internal/models"
)

// Store defines the persistence interface for the auction system.
//
// RecordBid and CloseItem are the two mutating primitives that must be
// serialized per item: both run their check-and-update sequence atomically
// with respect to other bids and closures on the same item.
type Store interface {
	CreateUser(user model.User) (model.User, error)
	GetUser(userID int64) (model.User, error)
	GetUserByUsername(username string) (model.User, error)

	CreateItem(item model.Item) (model.Item, error)
	GetItem(itemID int64) (model.Item, error)
	// ListActiveItems returns active items in insertion order. A non-zero
	// endedAfter additionally filters out items whose EndTime has passed.
	ListActiveItems(offset, limit int, endedAfter time.Time) ([]model.Item, error)
	UpdateItem(itemID int64, patch model.ItemPatch) (model.Item, error)
	// DeleteItem removes an item and cascades to its bids.
	DeleteItem(itemID int64) error

	// RecordBid atomically validates and inserts a bid: the item must exist,
	// be active with EndTime after bid.BidTime, and bid.Amount must exceed
	// the item's current price. On success the item's current price equals
	// the bid amount.
	RecordBid(bid model.Bid) (model.Bid, error)
	GetBidsByItem(itemID int64) ([]model.Bid, error)
	GetWinningBid(itemID int64) (model.Bid, error)
	// CloseItem finalizes an item: the item must exist, be active, and its
	// EndTime must not be after now. The bid with the highest amount wins,
	// earliest BidTime breaking ties; with no bids the item closes with no
	// winner.
	CloseItem(itemID int64, now time.Time) (model.Item, error)
}

// MemoryRepo is a concurrency-safe in-memory implementation of Store.
// A single write lock is held across every check-and-update sequence, which
// trivially satisfies per-item serialization.
type MemoryRepo struct {
	mu        sync.RWMutex
	users     map[int64]model.User
	usernames map[string]int64 // username -> userID
	items     map[int64]model.Item
	itemOrder []int64 // itemIDs in insertion order
	bids      map[int64][]model.Bid // key: itemID -> bids in placement order

	nextUserID int64
	nextItemID int64
	nextBidID  int64
}

// NewMemoryRepo creates a new in-memory repository instance.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		users:     make(map[int64]model.User),
		usernames: make(map[string]int64),
		items:     make(map[int64]model.Item),
		bids:      make(map[int64][]model.Bid),
	}
}

// CreateUser stores a new user, assigning its id. Usernames are unique.
func (r *MemoryRepo) CreateUser(user model.User) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.usernames[user.Username]; taken {
		return model.User{}, fmt.Errorf("create user %q: username already taken: %w", user.Username, auctionerrors.ErrValidation)
	}

	r.nextUserID++
	user.ID = r.nextUserID
	r.users[user.ID] = user
	r.usernames[user.Username] = user.ID
	return user, nil
}

// GetUser returns the user with the given id.
func (r *MemoryRepo) GetUser(userID int64) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[userID]
	if !ok {
		return model.User{}, fmt.Errorf("get user %d: %w", userID, auctionerrors.ErrUserNotFound)
	}
	return user, nil
}

// GetUserByUsername returns the user with the given username.
func (r *MemoryRepo) GetUserByUsername(username string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.usernames[username]
	if !ok {
		return model.User{}, fmt.Errorf("get user %q: %w", username, auctionerrors.ErrUserNotFound)
	}
	return r.users[id], nil
}

// CreateItem stores a new item, assigning its id.
func (r *MemoryRepo) CreateItem(item model.Item) (model.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextItemID++
	item.ID = r.nextItemID
	r.items[item.ID] = item
	r.itemOrder = append(r.itemOrder, item.ID)
	return item, nil
}

// GetItem returns the item with the given id.
func (r *MemoryRepo) GetItem(itemID int64) (model.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[itemID]
	if !ok {
		return model.Item{}, fmt.Errorf("get item %d: %w", itemID, auctionerrors.ErrItemNotFound)
	}
	return item, nil
}

// ListActiveItems returns active items in insertion order, paged by
// offset/limit.
func (r *MemoryRepo) ListActiveItems(offset, limit int, endedAfter time.Time) ([]model.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	active := make([]model.Item, 0, limit)
	skipped := 0
	for _, id := range r.itemOrder {
		item, ok := r.items[id]
		if !ok || !item.IsActive {
			continue
		}
		if !endedAfter.IsZero() && !item.EndTime.After(endedAfter) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		active = append(active, item)
		if len(active) == limit {
			break
		}
	}
	return active, nil
}

// UpdateItem applies a partial update of name/description/end_time.
func (r *MemoryRepo) UpdateItem(itemID int64, patch model.ItemPatch) (model.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[itemID]
	if !ok {
		return model.Item{}, fmt.Errorf("update item %d: %w", itemID, auctionerrors.ErrItemNotFound)
	}

	if patch.Name != nil {
		item.Name = *patch.Name
	}
	if patch.Description != nil {
		item.Description = *patch.Description
	}
	if patch.EndTime != nil {
		item.EndTime = patch.EndTime.UTC()
	}
	r.items[itemID] = item
	return item, nil
}

// DeleteItem hard-deletes an item and all bids referencing it.
func (r *MemoryRepo) DeleteItem(itemID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[itemID]; !ok {
		return fmt.Errorf("delete item %d: %w", itemID, auctionerrors.ErrItemNotFound)
	}

	delete(r.items, itemID)
	delete(r.bids, itemID)
	for i, id := range r.itemOrder {
		if id == itemID {
			r.itemOrder = append(r.itemOrder[:i], r.itemOrder[i+1:]...)
			break
		}
	}
	return nil
}

// RecordBid validates and records a bid while holding the write lock, so the
// read-price-then-write-price sequence cannot interleave with another bid or
// a closure on the same item.
func (r *MemoryRepo) RecordBid(bid model.Bid) (model.Bid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[bid.ItemID]
	if !ok {
		return model.Bid{}, fmt.Errorf("record bid for item %d: %w", bid.ItemID, auctionerrors.ErrItemNotFound)
	}
	if !item.IsActive || !item.EndTime.After(bid.BidTime) {
		return model.Bid{}, fmt.Errorf("record bid for item %d: %w", bid.ItemID, auctionerrors.ErrAuctionClosed)
	}
	if bid.Amount <= item.CurrentPrice {
		return model.Bid{}, fmt.Errorf("record bid for item %d: %w - current price is %.2f", bid.ItemID, auctionerrors.ErrBidTooLow, item.CurrentPrice)
	}

	r.nextBidID++
	bid.ID = r.nextBidID
	r.bids[bid.ItemID] = append(r.bids[bid.ItemID], bid)

	item.CurrentPrice = bid.Amount
	r.items[bid.ItemID] = item
	return bid, nil
}

// GetBidsByItem returns all bids for an item in placement order.
func (r *MemoryRepo) GetBidsByItem(itemID int64) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.items[itemID]; !ok {
		return nil, fmt.Errorf("get bids for item %d: %w", itemID, auctionerrors.ErrItemNotFound)
	}
	return append([]model.Bid(nil), r.bids[itemID]...), nil
}

// GetWinningBid returns the highest-amount bid for an item, earliest
// BidTime winning ties.
func (r *MemoryRepo) GetWinningBid(itemID int64) (model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.items[itemID]; !ok {
		return model.Bid{}, fmt.Errorf("get winning bid for item %d: %w", itemID, auctionerrors.ErrItemNotFound)
	}
	winning, ok := highestBid(r.bids[itemID])
	if !ok {
		return model.Bid{}, fmt.Errorf("get winning bid for item %d: %w", itemID, auctionerrors.ErrNoBids)
	}
	return winning, nil
}

// CloseItem finalizes an item under the write lock.
func (r *MemoryRepo) CloseItem(itemID int64, now time.Time) (model.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[itemID]
	if !ok {
		return model.Item{}, fmt.Errorf("close item %d: %w", itemID, auctionerrors.ErrItemNotFound)
	}
	if item.EndTime.After(now) {
		return model.Item{}, fmt.Errorf("close item %d: %w", itemID, auctionerrors.ErrTooEarly)
	}
	if !item.IsActive {
		return model.Item{}, fmt.Errorf("close item %d: %w", itemID, auctionerrors.ErrAlreadyClosed)
	}

	if winning, ok := highestBid(r.bids[itemID]); ok {
		winnerID := winning.UserID
		item.WinnerID = &winnerID
	}
	item.IsActive = false
	r.items[itemID] = item
	return item, nil
}

// highestBid picks the maximum-amount bid, breaking ties by earliest BidTime.
func highestBid(bids []model.Bid) (model.Bid, bool) {
	if len(bids) == 0 {
		return model.Bid{}, false
	}
	winning := bids[0]
	for _, b := range bids[1:] {
		if b.Amount > winning.Amount || (b.Amount == winning.Amount && b.BidTime.Before(winning.BidTime)) {
			winning = b
		}
	}
	return winning, true
}
