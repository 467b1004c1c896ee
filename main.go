package main

import (
	auction "bidhouse/internal/auctionService"
	"bidhouse/internal/clock"
	"bidhouse/internal/identity"
	"bidhouse/internal/repository"
	"bidhouse/internal/server"
	"bidhouse/utils"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; environment variables win either way
	_ = godotenv.Load()

	args := ParseArgs()
	if !args.Validate() {
		utils.Fatal("missing arguments: addr, jwt-secret and token-ttl are required", nil)
	}

	repo, err := newStore(args)
	if err != nil {
		utils.Fatal("failed to initialize store", map[string]any{"error": err.Error()})
	}

	clk := clock.Real{}

	identityProvider, err := identity.NewProvider(repo, args.JWTSecret, args.TokenTTL, clk)
	if err != nil {
		utils.Fatal("failed to initialize identity provider", map[string]any{"error": err.Error()})
	}

	auctionSvc := auction.NewAuctionService(repo, clk, args.HideEndedItems)

	router := server.SetupRouter(auctionSvc, identityProvider, identityProvider)

	utils.Info("starting auction server", map[string]any{"addr": args.Addr, "hide_ended_items": args.HideEndedItems})
	if err := router.Run(args.Addr); err != nil {
		utils.Fatal("failed to start server", map[string]any{"error": err.Error()})
	}
}

// newStore picks the persistence backend: Postgres when a DSN is configured,
// otherwise the in-memory store.
func newStore(args Args) (repository.Store, error) {
	if args.DBDSN != "" {
		return repository.NewGormRepo(args.DBDSN)
	}
	return repository.NewMemoryRepo(), nil
}
