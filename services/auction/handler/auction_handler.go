package handler

import (
	"fmt"
	"net/http"
	"strconv"

	model "bidhouse/internal/models"
	"bidhouse/services/auction/helpers"
	"bidhouse/utils"

	"github.com/gin-gonic/gin"
)

type AuctionServiceInterface interface {
	CreateItem(spec model.ItemSpec, admin model.User) (model.Item, error)
	PlaceBid(itemID int64, amount float64, bidder model.User) (model.Bid, error)
	CloseAuction(itemID int64, admin model.User) (model.Item, error)
	ListActiveItems(offset, limit int) ([]model.Item, error)
	GetItem(itemID int64) (model.Item, error)
	UpdateItem(itemID int64, patch model.ItemPatch, admin model.User) (model.Item, error)
	DeleteItem(itemID int64, admin model.User) error
	GetBidsForItem(itemID int64) ([]model.Bid, error)
	GetWinningBid(itemID int64) (model.Bid, error)
}

type AuctionHandler struct {
	service AuctionServiceInterface
}

func NewAuctionHandler(service AuctionServiceInterface) *AuctionHandler {
	return &AuctionHandler{service: service}
}

// itemIDParam parses the :item_id path parameter, replying 400 on garbage.
func itemIDParam(c *gin.Context, handlerName string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("item_id"), 10, 64)
	if err != nil || id <= 0 {
		wrapped := fmt.Errorf("invalid item id %q", c.Param("item_id"))
		utils.JSONError(c, http.StatusBadRequest, "validation_error", wrapped, "invalid item id")
		utils.Warn(handlerName+": invalid item id", map[string]any{"item_id": c.Param("item_id")})
		return 0, false
	}
	return id, true
}

// CreateItemHandler handles POST /api/items (admin)
func (h *AuctionHandler) CreateItemHandler(c *gin.Context) {
	admin, ok := helpers.CurrentUser(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing identity"), "could not validate credentials")
		return
	}

	var req helpers.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateItemHandler", err)
		return
	}

	item, err := h.service.CreateItem(model.ItemSpec{
		Name:        req.Name,
		Description: req.Description,
		StartPrice:  req.StartPrice,
		EndTime:     req.EndTime,
	}, admin)
	if err != nil {
		status, kind, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, kind, err, message)
		utils.Error("CreateItemHandler: failed to create item", map[string]any{
			"handler":  "CreateItemHandler",
			"admin_id": admin.ID,
			"error":    err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewItemResponse(item), "item created successfully")
	helpers.LogSuccess("CreateItemHandler", "item created successfully", map[string]any{
		"item_id":  item.ID,
		"admin_id": admin.ID,
		"end_time": item.EndTime,
	})
}

// ListActiveItemsHandler handles GET /api/items
func (h *AuctionHandler) ListActiveItemsHandler(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	items, err := h.service.ListActiveItems(offset, limit)
	if err != nil {
		status, kind, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, kind, err, message)
		utils.Warn("ListActiveItemsHandler: error retrieving items", map[string]any{"error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewItemResponses(items), "items retrieved successfully")
}

// GetItemHandler handles GET /api/items/:item_id
func (h *AuctionHandler) GetItemHandler(c *gin.Context) {
	itemID, ok := itemIDParam(c, "GetItemHandler")
	if !ok {
		return
	}

	item, err := h.service.GetItem(itemID)
	if err != nil {
		status, kind, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, kind, err, message)
		utils.Warn("GetItemHandler: error retrieving item", map[string]any{"item_id": itemID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewItemResponse(item), "item retrieved successfully")
}

// UpdateItemHandler handles PATCH /api/items/:item_id (admin)
func (h *AuctionHandler) UpdateItemHandler(c *gin.Context) {
	admin, _ := helpers.CurrentUser(c)
	itemID, ok := itemIDParam(c, "UpdateItemHandler")
	if !ok {
		return
	}

	var req helpers.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "UpdateItemHandler", err)
		return
	}

	item, err := h.service.UpdateItem(itemID, model.ItemPatch{
		Name:        req.Name,
		Description: req.Description,
		EndTime:     req.EndTime,
	}, admin)
	if err != nil {
		status, kind, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, kind, err, message)
		utils.Warn("UpdateItemHandler: failed to update item", map[string]any{"item_id": itemID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewItemResponse(item), "item updated successfully")
	helpers.LogSuccess("UpdateItemHandler", "item updated successfully", map[string]any{
		"item_id":  itemID,
		"admin_id": admin.ID,
	})
}

// DeleteItemHandler handles DELETE /api/items/:item_id (admin)
func (h *AuctionHandler) DeleteItemHandler(c *gin.Context) {
	admin, _ := helpers.CurrentUser(c)
	itemID, ok := itemIDParam(c, "DeleteItemHandler")
	if !ok {
		return
	}

	if err := h.service.DeleteItem(itemID, admin); err != nil {
		status, kind, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, kind, err, message)
		utils.Warn("DeleteItemHandler: failed to delete item", map[string]any{"item_id": itemID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, nil, "item deleted successfully")
	helpers.LogSuccess("DeleteItemHandler", "item deleted successfully", map[string]any{
		"item_id":  itemID,
		"admin_id": admin.ID,
	})
}

// CloseAuctionHandler handles POST /api/items/:item_id/close (admin)
func (h *AuctionHandler) CloseAuctionHandler(c *gin.Context) {
	admin, _ := helpers.CurrentUser(c)
	itemID, ok := itemIDParam(c, "CloseAuctionHandler")
	if !ok {
		return
	}

	item, err := h.service.CloseAuction(itemID, admin)
	if err != nil {
		status, kind, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, kind, err, message)
		utils.Warn("CloseAuctionHandler: failed to close auction", map[string]any{"item_id": itemID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewItemResponse(item), "auction closed successfully")
	helpers.LogSuccess("CloseAuctionHandler", "auction closed successfully", map[string]any{
		"item_id":   itemID,
		"admin_id":  admin.ID,
		"winner_id": item.WinnerID,
	})
}

// PlaceBidHandler handles POST /api/bids (authenticated)
func (h *AuctionHandler) PlaceBidHandler(c *gin.Context) {
	bidder, ok := helpers.CurrentUser(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing identity"), "could not validate credentials")
		return
	}

	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	bid, err := h.service.PlaceBid(req.ItemID, req.Amount, bidder)
	if err != nil {
		status, kind, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, kind, err, message)
		utils.Error("PlaceBidHandler: failed to record bid", map[string]any{
			"handler": "PlaceBidHandler",
			"item_id": req.ItemID,
			"user_id": bidder.ID,
			"error":   err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewBidResponse(bid), "bid recorded successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid recorded successfully", map[string]any{
		"bid_id":  bid.ID,
		"item_id": bid.ItemID,
		"user_id": bidder.ID,
		"amount":  bid.Amount,
	})
}

// GetBidsByItemHandler handles GET /api/items/:item_id/bids
func (h *AuctionHandler) GetBidsByItemHandler(c *gin.Context) {
	itemID, ok := itemIDParam(c, "GetBidsByItemHandler")
	if !ok {
		return
	}

	bids, err := h.service.GetBidsForItem(itemID)
	if err != nil {
		status, kind, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, kind, err, message)
		utils.Warn("GetBidsByItemHandler: error retrieving bids", map[string]any{"item_id": itemID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewBidResponses(bids), "bids retrieved successfully")
}

// GetWinningBidHandler handles GET /api/items/:item_id/winning
func (h *AuctionHandler) GetWinningBidHandler(c *gin.Context) {
	itemID, ok := itemIDParam(c, "GetWinningBidHandler")
	if !ok {
		return
	}

	bid, err := h.service.GetWinningBid(itemID)
	if err != nil {
		status, kind, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, kind, err, message)
		utils.Info("GetWinningBidHandler: no winning bid", map[string]any{"item_id": itemID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewBidResponse(bid), "winning bid retrieved successfully")
}
