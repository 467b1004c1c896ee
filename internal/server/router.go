package server

import (
	handler "bidhouse/services/auction/handler"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures all Gin routes for the application
func SetupRouter(auctionService handler.AuctionServiceInterface, identityService handler.IdentityServiceInterface, resolver UserResolver) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestIDMiddleware)     // tag requests for log correlation
	router.Use(RequestLoggerMiddleware) // custom request logging

	auctionHandler := handler.NewAuctionHandler(auctionService)
	userHandler := handler.NewUserHandler(identityService)

	api := router.Group("/api")

	api.POST("/users", userHandler.RegisterHandler)
	api.POST("/token", userHandler.LoginHandler)

	items := api.Group("/items")
	{
		items.GET("", auctionHandler.ListActiveItemsHandler)
		items.GET("/:item_id", auctionHandler.GetItemHandler)
		items.GET("/:item_id/bids", auctionHandler.GetBidsByItemHandler)
		items.GET("/:item_id/winning", auctionHandler.GetWinningBidHandler)
	}

	adminItems := api.Group("/items", AuthRequired(resolver), AdminRequired())
	{
		adminItems.POST("", auctionHandler.CreateItemHandler)
		adminItems.PATCH("/:item_id", auctionHandler.UpdateItemHandler)
		adminItems.DELETE("/:item_id", auctionHandler.DeleteItemHandler)
		adminItems.POST("/:item_id/close", auctionHandler.CloseAuctionHandler)
	}

	bids := api.Group("/bids", AuthRequired(resolver))
	{
		bids.POST("", auctionHandler.PlaceBidHandler)
	}

	return router
}
