package repository

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bidhouse/internal/auctionerrors"
	model "bidhouse/internal/models"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// Helper to create a new active Item ending an hour after baseTime
func newItem(name string, startPrice float64) model.Item {
	return model.Item{
		Name:         name,
		Description:  fmt.Sprintf("%s description", name),
		StartPrice:   startPrice,
		CurrentPrice: startPrice,
		StartTime:    baseTime,
		EndTime:      baseTime.Add(time.Hour),
		IsActive:     true,
		AdminID:      1,
	}
}

// Helper to create a new Bid
func newBid(itemID, userID int64, amount float64, bidTime time.Time) model.Bid {
	return model.Bid{
		ItemID:  itemID,
		UserID:  userID,
		Amount:  amount,
		BidTime: bidTime,
	}
}

// Test CreateUser / GetUser / GetUserByUsername
func TestMemoryRepo_Users(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepo()

	alice, err := repo.CreateUser(model.User{Username: "alice", PasswordHash: "x", IsAdmin: true})
	require.NoError(t, err)
	require.Equal(t, int64(1), alice.ID)

	bob, err := repo.CreateUser(model.User{Username: "bob", PasswordHash: "y"})
	require.NoError(t, err)
	require.Equal(t, int64(2), bob.ID)

	// duplicate username is rejected
	_, err = repo.CreateUser(model.User{Username: "alice", PasswordHash: "z"})
	require.ErrorIs(t, err, auctionerrors.ErrValidation)

	got, err := repo.GetUser(alice.ID)
	require.NoError(t, err)
	require.Equal(t, alice, got)

	got, err = repo.GetUserByUsername("bob")
	require.NoError(t, err)
	require.Equal(t, bob, got)

	_, err = repo.GetUser(99)
	require.ErrorIs(t, err, auctionerrors.ErrUserNotFound)

	_, err = repo.GetUserByUsername("nobody")
	require.ErrorIs(t, err, auctionerrors.ErrUserNotFound)
}

// Test RecordBid preconditions and price update
func TestMemoryRepo_RecordBid(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) (*MemoryRepo, model.Item) {
		repo := NewMemoryRepo()
		item, err := repo.CreateItem(newItem("Item 1", 100))
		require.NoError(t, err)
		return repo, item
	}

	t.Run("first_bid_updates_current_price", func(t *testing.T) {
		t.Parallel()
		repo, item := setup(t)

		bid, err := repo.RecordBid(newBid(item.ID, 7, 150, baseTime.Add(time.Minute)))
		require.NoError(t, err)
		require.Equal(t, int64(1), bid.ID)

		got, err := repo.GetItem(item.ID)
		require.NoError(t, err)
		require.Equal(t, 150.0, got.CurrentPrice)
		require.Equal(t, 100.0, got.StartPrice)
	})

	t.Run("item_not_found", func(t *testing.T) {
		t.Parallel()
		repo, _ := setup(t)

		_, err := repo.RecordBid(newBid(999, 7, 150, baseTime))
		require.ErrorIs(t, err, auctionerrors.ErrItemNotFound)
	})

	t.Run("inactive_item_rejected", func(t *testing.T) {
		t.Parallel()
		repo, _ := setup(t)
		closed := newItem("Closed", 100)
		closed.IsActive = false
		item, err := repo.CreateItem(closed)
		require.NoError(t, err)

		_, err = repo.RecordBid(newBid(item.ID, 7, 150, baseTime))
		require.ErrorIs(t, err, auctionerrors.ErrAuctionClosed)
	})

	t.Run("past_end_time_rejected", func(t *testing.T) {
		t.Parallel()
		repo, item := setup(t)

		_, err := repo.RecordBid(newBid(item.ID, 7, 150, baseTime.Add(2*time.Hour)))
		require.ErrorIs(t, err, auctionerrors.ErrAuctionClosed)
	})

	t.Run("bid_at_end_time_rejected", func(t *testing.T) {
		t.Parallel()
		repo, item := setup(t)

		_, err := repo.RecordBid(newBid(item.ID, 7, 150, baseTime.Add(time.Hour)))
		require.ErrorIs(t, err, auctionerrors.ErrAuctionClosed)
	})

	t.Run("bid_equal_to_current_price_rejected", func(t *testing.T) {
		t.Parallel()
		repo, item := setup(t)

		_, err := repo.RecordBid(newBid(item.ID, 7, 100, baseTime.Add(time.Minute)))
		require.ErrorIs(t, err, auctionerrors.ErrBidTooLow)
		require.Contains(t, err.Error(), "100.00")

		// rejected bid leaves no state behind
		bids, berr := repo.GetBidsByItem(item.ID)
		require.NoError(t, berr)
		require.Empty(t, bids)
	})

	t.Run("bid_below_new_current_price_rejected", func(t *testing.T) {
		t.Parallel()
		repo, item := setup(t)

		_, err := repo.RecordBid(newBid(item.ID, 7, 150, baseTime.Add(time.Minute)))
		require.NoError(t, err)

		_, err = repo.RecordBid(newBid(item.ID, 8, 120, baseTime.Add(2*time.Minute)))
		require.ErrorIs(t, err, auctionerrors.ErrBidTooLow)
		require.Contains(t, err.Error(), "150.00")
	})

	// concurrency test: no lost updates on a single item
	t.Run("concurrent_bids_no_lost_updates", func(t *testing.T) {
		t.Parallel()
		repo, item := setup(t)

		var wg sync.WaitGroup
		concurrentCount := 50

		for i := 0; i < concurrentCount; i++ {
			wg.Add(1)
			i := i
			go func() {
				defer wg.Done()
				// lower bids may legitimately lose to a faster higher bid
				_, _ = repo.RecordBid(newBid(item.ID, int64(i+1), float64(101+i), baseTime.Add(time.Minute)))
			}()
		}

		wg.Wait()

		got, err := repo.GetItem(item.ID)
		require.NoError(t, err)
		require.Equal(t, float64(101+concurrentCount-1), got.CurrentPrice)

		// accepted amounts must be strictly increasing in acceptance order
		bids, err := repo.GetBidsByItem(item.ID)
		require.NoError(t, err)
		require.NotEmpty(t, bids)
		for i := 1; i < len(bids); i++ {
			require.Greater(t, bids[i].Amount, bids[i-1].Amount)
		}
		require.Equal(t, got.CurrentPrice, bids[len(bids)-1].Amount)
	})
}

// Test CloseItem state machine
func TestMemoryRepo_CloseItem(t *testing.T) {
	t.Parallel()

	afterEnd := baseTime.Add(2 * time.Hour)

	t.Run("close_before_end_time_rejected", func(t *testing.T) {
		t.Parallel()
		repo := NewMemoryRepo()
		item, err := repo.CreateItem(newItem("Item 1", 100))
		require.NoError(t, err)

		_, err = repo.CloseItem(item.ID, baseTime.Add(time.Minute))
		require.ErrorIs(t, err, auctionerrors.ErrTooEarly)

		got, gerr := repo.GetItem(item.ID)
		require.NoError(t, gerr)
		require.True(t, got.IsActive)
	})

	t.Run("close_with_winner", func(t *testing.T) {
		t.Parallel()
		repo := NewMemoryRepo()
		item, err := repo.CreateItem(newItem("Item 1", 100))
		require.NoError(t, err)

		_, err = repo.RecordBid(newBid(item.ID, 7, 150, baseTime.Add(time.Minute)))
		require.NoError(t, err)
		_, err = repo.RecordBid(newBid(item.ID, 8, 200, baseTime.Add(2*time.Minute)))
		require.NoError(t, err)

		closed, err := repo.CloseItem(item.ID, afterEnd)
		require.NoError(t, err)
		require.False(t, closed.IsActive)
		require.NotNil(t, closed.WinnerID)
		require.Equal(t, int64(8), *closed.WinnerID)
		require.Equal(t, 200.0, closed.CurrentPrice)
	})

	t.Run("close_without_bids_has_no_winner", func(t *testing.T) {
		t.Parallel()
		repo := NewMemoryRepo()
		item, err := repo.CreateItem(newItem("Item 1", 100))
		require.NoError(t, err)

		closed, err := repo.CloseItem(item.ID, afterEnd)
		require.NoError(t, err)
		require.False(t, closed.IsActive)
		require.Nil(t, closed.WinnerID)
	})

	t.Run("double_close_rejected", func(t *testing.T) {
		t.Parallel()
		repo := NewMemoryRepo()
		item, err := repo.CreateItem(newItem("Item 1", 100))
		require.NoError(t, err)

		_, err = repo.CloseItem(item.ID, afterEnd)
		require.NoError(t, err)

		_, err = repo.CloseItem(item.ID, afterEnd)
		require.ErrorIs(t, err, auctionerrors.ErrAlreadyClosed)
	})

	t.Run("item_not_found", func(t *testing.T) {
		t.Parallel()
		repo := NewMemoryRepo()

		_, err := repo.CloseItem(42, afterEnd)
		require.ErrorIs(t, err, auctionerrors.ErrItemNotFound)
	})
}

// Test GetWinningBid tie-break
func TestMemoryRepo_GetWinningBid(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepo()
	item, err := repo.CreateItem(newItem("Item 1", 10))
	require.NoError(t, err)
	empty, err := repo.CreateItem(newItem("Item 2", 10))
	require.NoError(t, err)

	first, err := repo.RecordBid(newBid(item.ID, 7, 50, baseTime.Add(time.Minute)))
	require.NoError(t, err)

	// a later bid can only be accepted above the current price, so equal-amount
	// ties are seeded directly
	repo.bids[item.ID] = append(repo.bids[item.ID], model.Bid{
		ID: 99, ItemID: item.ID, UserID: 8, Amount: 50, BidTime: baseTime.Add(2 * time.Minute),
	})

	winning, err := repo.GetWinningBid(item.ID)
	require.NoError(t, err)
	require.Equal(t, first.ID, winning.ID, "earliest bid wins the tie")

	_, err = repo.GetWinningBid(empty.ID)
	require.ErrorIs(t, err, auctionerrors.ErrNoBids)

	_, err = repo.GetWinningBid(999)
	require.ErrorIs(t, err, auctionerrors.ErrItemNotFound)
}

// Test ListActiveItems ordering, paging and the end-time filter
func TestMemoryRepo_ListActiveItems(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepo()
	var ids []int64
	for i := 0; i < 5; i++ {
		item, err := repo.CreateItem(newItem(fmt.Sprintf("Item %d", i+1), 10))
		require.NoError(t, err)
		ids = append(ids, item.ID)
	}

	// one ended-but-unclosed item and one closed item
	ended := newItem("Ended", 10)
	ended.EndTime = baseTime.Add(-time.Hour)
	endedItem, err := repo.CreateItem(ended)
	require.NoError(t, err)

	_, err = repo.CloseItem(endedItem.ID, baseTime)
	require.NoError(t, err)

	stillOpen := newItem("Expired but open", 10)
	stillOpen.EndTime = baseTime.Add(-time.Minute)
	stillOpenItem, err := repo.CreateItem(stillOpen)
	require.NoError(t, err)

	t.Run("insertion_order_with_paging", func(t *testing.T) {
		t.Parallel()

		items, err := repo.ListActiveItems(1, 2, time.Time{})
		require.NoError(t, err)
		require.Len(t, items, 2)
		require.Equal(t, ids[1], items[0].ID)
		require.Equal(t, ids[2], items[1].ID)
	})

	t.Run("closed_items_excluded_ended_items_kept", func(t *testing.T) {
		t.Parallel()

		items, err := repo.ListActiveItems(0, 100, time.Time{})
		require.NoError(t, err)
		require.Len(t, items, 6)
		require.Equal(t, stillOpenItem.ID, items[5].ID)
	})

	t.Run("end_time_filter_hides_ended_items", func(t *testing.T) {
		t.Parallel()

		items, err := repo.ListActiveItems(0, 100, baseTime)
		require.NoError(t, err)
		require.Len(t, items, 5)
		for _, item := range items {
			require.True(t, item.EndTime.After(baseTime))
		}
	})

	t.Run("offset_past_end_returns_empty", func(t *testing.T) {
		t.Parallel()

		items, err := repo.ListActiveItems(100, 10, time.Time{})
		require.NoError(t, err)
		require.Empty(t, items)
	})
}

// Test UpdateItem partial semantics
func TestMemoryRepo_UpdateItem(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepo()
	item, err := repo.CreateItem(newItem("Item 1", 100))
	require.NoError(t, err)

	name := "Renamed"
	updated, err := repo.UpdateItem(item.ID, model.ItemPatch{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Name)
	require.Equal(t, item.Description, updated.Description)
	require.Equal(t, item.EndTime, updated.EndTime)

	// shortening end_time below "now" is not rejected here
	past := baseTime.Add(-time.Hour)
	updated, err = repo.UpdateItem(item.ID, model.ItemPatch{EndTime: &past})
	require.NoError(t, err)
	require.Equal(t, past, updated.EndTime)

	_, err = repo.UpdateItem(999, model.ItemPatch{Name: &name})
	require.ErrorIs(t, err, auctionerrors.ErrItemNotFound)
}

// Test DeleteItem cascade
func TestMemoryRepo_DeleteItem(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepo()
	item, err := repo.CreateItem(newItem("Item 1", 100))
	require.NoError(t, err)
	keep, err := repo.CreateItem(newItem("Item 2", 100))
	require.NoError(t, err)

	_, err = repo.RecordBid(newBid(item.ID, 7, 150, baseTime.Add(time.Minute)))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteItem(item.ID))

	_, err = repo.GetItem(item.ID)
	require.ErrorIs(t, err, auctionerrors.ErrItemNotFound)

	// bids went with the item
	_, err = repo.GetBidsByItem(item.ID)
	require.ErrorIs(t, err, auctionerrors.ErrItemNotFound)

	items, err := repo.ListActiveItems(0, 100, time.Time{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, keep.ID, items[0].ID)

	require.ErrorIs(t, repo.DeleteItem(item.ID), auctionerrors.ErrItemNotFound)
}
