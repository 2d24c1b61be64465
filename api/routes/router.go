package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cosmicpe/auctionhouse-backend/api/controllers"
	"github.com/cosmicpe/auctionhouse-backend/api/middleware"
	"github.com/cosmicpe/auctionhouse-backend/pkg/config"
	"github.com/cosmicpe/auctionhouse-backend/pkg/db"
	"github.com/cosmicpe/auctionhouse-backend/pkg/logger"
	pkgredis "github.com/cosmicpe/auctionhouse-backend/pkg/redis"
)

// NewRouter wires the HTTP surface of the auction house.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	house controllers.House,
	gatherer prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)
	if redisClient != nil {
		r.Use(middleware.Idempotency(redisClient, logg))
	}

	limitWrites := func(next http.Handler) http.Handler { return next }
	if redisClient != nil {
		limitWrites = middleware.RateLimit(
			middleware.NewRateLimitPolicy("write", cfg.RateLimit.Window, cfg.RateLimit.WriteLimit),
			redisClient,
			logg,
		)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		var redisP db.Pinger
		if redisClient != nil {
			redisP = redisClient
		}
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/listings", func(r chi.Router) {
			r.Get("/", controllers.BrowseListings(house, logg))
			r.With(limitWrites).Post("/", controllers.SellListing(house, logg))
			r.Get("/groups", controllers.ListingGroups(house, logg))
			r.Get("/groups/{kind}/{meta}", controllers.ListingGroup(house, logg))
			r.Get("/{listingID}", controllers.ListingDetail(house, logg))
			r.With(limitWrites).Post("/{listingID}/confirm", controllers.ConfirmPurchase(house, logg))
			r.With(limitWrites).Post("/{listingID}/bids", controllers.PlaceBid(house, logg))
			r.With(limitWrites).Post("/{listingID}/withdraw", controllers.WithdrawListing(house, logg))
		})

		r.Route("/players", func(r chi.Router) {
			r.Get("/lookup", controllers.LookupPlayer(house, logg))
			r.Get("/{playerID}/listings", controllers.PlayerListings(house, logg))
			r.Get("/{playerID}/bin", controllers.PlayerBin(house, logg))
			r.With(limitWrites).Post("/{playerID}/bin/claim", controllers.ClaimAllBinItems(house, logg))
			r.With(limitWrites).Post("/{playerID}/bin/{itemID}/claim", controllers.ClaimBinItem(house, logg))
			r.Get("/{playerID}/stats", controllers.PlayerStats(house, logg))
			r.Get("/{playerID}/logs", controllers.PlayerSaleLogs(house, logg))
			r.Get("/{playerID}/sold", controllers.PlayerSoldLogs(house, logg))
		})

		r.Get("/logs", controllers.SaleLogs(house, logg))
	})

	return r
}
