package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"bidhouse/internal/auctionerrors"
	model "bidhouse/internal/models"
)

// maxBidRetries bounds the optimistic-update loop in RecordBid before the
// conflict is surfaced to the caller.
const maxBidRetries = 3

// GormRepo is a Postgres-backed implementation of Store. Bid acceptance uses
// an optimistic conditional update on current_price with a bounded retry;
// closure locks the item row for the duration of the winner selection.
type GormRepo struct {
	db *gorm.DB
}

// NewGormRepo connects to Postgres and ensures the schema exists.
func NewGormRepo(dsn string) (*GormRepo, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.Item{}, &model.Bid{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &GormRepo{db: db}, nil
}

func (r *GormRepo) CreateUser(user model.User) (model.User, error) {
	if err := r.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return model.User{}, fmt.Errorf("create user %q: username already taken: %w", user.Username, auctionerrors.ErrValidation)
		}
		return model.User{}, fmt.Errorf("create user %q: %w", user.Username, err)
	}
	return user, nil
}

func (r *GormRepo) GetUser(userID int64) (model.User, error) {
	var user model.User
	if err := r.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.User{}, fmt.Errorf("get user %d: %w", userID, auctionerrors.ErrUserNotFound)
		}
		return model.User{}, fmt.Errorf("get user %d: %w", userID, err)
	}
	return user, nil
}

func (r *GormRepo) GetUserByUsername(username string) (model.User, error) {
	var user model.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.User{}, fmt.Errorf("get user %q: %w", username, auctionerrors.ErrUserNotFound)
		}
		return model.User{}, fmt.Errorf("get user %q: %w", username, err)
	}
	return user, nil
}

func (r *GormRepo) CreateItem(item model.Item) (model.Item, error) {
	if err := r.db.Create(&item).Error; err != nil {
		return model.Item{}, fmt.Errorf("create item %q: %w", item.Name, err)
	}
	return item, nil
}

func (r *GormRepo) GetItem(itemID int64) (model.Item, error) {
	var item model.Item
	if err := r.db.First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Item{}, fmt.Errorf("get item %d: %w", itemID, auctionerrors.ErrItemNotFound)
		}
		return model.Item{}, fmt.Errorf("get item %d: %w", itemID, err)
	}
	return item, nil
}

func (r *GormRepo) ListActiveItems(offset, limit int, endedAfter time.Time) ([]model.Item, error) {
	q := r.db.Where("is_active = ?", true)
	if !endedAfter.IsZero() {
		q = q.Where("end_time > ?", endedAfter)
	}

	var items []model.Item
	if err := q.Order("id").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list active items: %w", err)
	}
	return items, nil
}

func (r *GormRepo) UpdateItem(itemID int64, patch model.ItemPatch) (model.Item, error) {
	updates := map[string]any{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.EndTime != nil {
		updates["end_time"] = patch.EndTime.UTC()
	}

	var item model.Item
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return auctionerrors.ErrItemNotFound
			}
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&item).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&item, itemID).Error
	})
	if err != nil {
		return model.Item{}, fmt.Errorf("update item %d: %w", itemID, err)
	}
	return item, nil
}

func (r *GormRepo) DeleteItem(itemID int64) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&model.Item{}, itemID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return auctionerrors.ErrItemNotFound
		}
		// cascade to dependent bids
		return tx.Where("item_id = ?", itemID).Delete(&model.Bid{}).Error
	})
	if err != nil {
		return fmt.Errorf("delete item %d: %w", itemID, err)
	}
	return nil
}

// RecordBid validates and inserts a bid using an optimistic conditional
// update: the price write only succeeds if current_price is still the value
// the checks ran against. A concurrent acceptance makes the update match
// zero rows, in which case the price is re-read and the checks re-run, up to
// maxBidRetries times.
func (r *GormRepo) RecordBid(bid model.Bid) (model.Bid, error) {
	for attempt := 0; attempt < maxBidRetries; attempt++ {
		item, err := r.GetItem(bid.ItemID)
		if err != nil {
			return model.Bid{}, fmt.Errorf("record bid for item %d: %w", bid.ItemID, errors.Unwrap(err))
		}
		if !item.IsActive || !item.EndTime.After(bid.BidTime) {
			return model.Bid{}, fmt.Errorf("record bid for item %d: %w", bid.ItemID, auctionerrors.ErrAuctionClosed)
		}
		if bid.Amount <= item.CurrentPrice {
			return model.Bid{}, fmt.Errorf("record bid for item %d: %w - current price is %.2f", bid.ItemID, auctionerrors.ErrBidTooLow, item.CurrentPrice)
		}

		var stale bool
		err = r.db.Transaction(func(tx *gorm.DB) error {
			result := tx.Model(&model.Item{}).
				Where("id = ? AND is_active = ? AND current_price = ?", bid.ItemID, true, item.CurrentPrice).
				Update("current_price", bid.Amount)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				stale = true
				return auctionerrors.ErrConflict // rolls the tx back
			}
			return tx.Create(&bid).Error
		})
		if err == nil {
			return bid, nil
		}
		if stale {
			continue
		}
		return model.Bid{}, fmt.Errorf("record bid for item %d: %w", bid.ItemID, err)
	}
	return model.Bid{}, fmt.Errorf("record bid for item %d: %w", bid.ItemID, auctionerrors.ErrConflict)
}

func (r *GormRepo) GetBidsByItem(itemID int64) ([]model.Bid, error) {
	if _, err := r.GetItem(itemID); err != nil {
		return nil, fmt.Errorf("get bids for item %d: %w", itemID, errors.Unwrap(err))
	}

	var bids []model.Bid
	if err := r.db.Where("item_id = ?", itemID).Order("id").Find(&bids).Error; err != nil {
		return nil, fmt.Errorf("get bids for item %d: %w", itemID, err)
	}
	return bids, nil
}

func (r *GormRepo) GetWinningBid(itemID int64) (model.Bid, error) {
	if _, err := r.GetItem(itemID); err != nil {
		return model.Bid{}, fmt.Errorf("get winning bid for item %d: %w", itemID, errors.Unwrap(err))
	}

	var winning model.Bid
	err := r.db.Where("item_id = ?", itemID).
		Order("amount DESC").Order("bid_time ASC").
		First(&winning).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Bid{}, fmt.Errorf("get winning bid for item %d: %w", itemID, auctionerrors.ErrNoBids)
		}
		return model.Bid{}, fmt.Errorf("get winning bid for item %d: %w", itemID, err)
	}
	return winning, nil
}

// CloseItem locks the item row so closure cannot interleave with bid
// acceptance, then finalizes the winner.
func (r *GormRepo) CloseItem(itemID int64, now time.Time) (model.Item, error) {
	var item model.Item
	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&item, itemID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return auctionerrors.ErrItemNotFound
			}
			return err
		}
		if item.EndTime.After(now) {
			return auctionerrors.ErrTooEarly
		}
		if !item.IsActive {
			return auctionerrors.ErrAlreadyClosed
		}

		var winning model.Bid
		err = tx.Where("item_id = ?", itemID).
			Order("amount DESC").Order("bid_time ASC").
			First(&winning).Error
		switch {
		case err == nil:
			item.WinnerID = &winning.UserID
		case errors.Is(err, gorm.ErrRecordNotFound):
			// no bids: close with no winner
		default:
			return err
		}

		item.IsActive = false
		return tx.Model(&model.Item{}).Where("id = ?", itemID).
			Updates(map[string]any{"is_active": false, "winner_id": item.WinnerID}).Error
	})
	if err != nil {
		return model.Item{}, fmt.Errorf("close item %d: %w", itemID, err)
	}
	return item, nil
}
