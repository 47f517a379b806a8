package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/RodgersChayuga/hekaheka-backend/api/controllers"
	"github.com/RodgersChayuga/hekaheka-backend/api/middleware"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/config"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/logger"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers. Redis and the
// metrics registry are optional; absent deps disable the features that
// need them.
type Deps struct {
	DB       controllers.Pinger
	Redis    *redis.Client
	Comics   controllers.ComicDeps
	Market   controllers.MarketDeps
	Admin    controllers.AdminDeps
	Registry *prometheus.Registry
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	txPolicy := middleware.NewTxRateLimitPolicy("tx", cfg.RateLimit.TxWindow, cfg.RateLimit.TxLimit)
	txLimit := middleware.TxRateLimit(txPolicy, limiterFor(deps.Redis), logg)

	pingers := map[string]controllers.Pinger{}
	if deps.DB != nil {
		pingers["database"] = deps.DB
	}
	if deps.Redis != nil {
		pingers["redis"] = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, pingers))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/comics", func(r chi.Router) {
		r.With(txLimit).Post("/", controllers.MintComic(deps.Comics, logg))
		r.With(txLimit).Post("/approve", controllers.ApproveOperator(deps.Comics, logg))
		r.Get("/", controllers.ListComics(deps.Comics, logg))
		r.Get("/{token_id}", controllers.GetComic(deps.Comics, logg))
		r.Get("/{token_id}/onchain", controllers.GetComicOnChain(deps.Comics, logg))
		r.Get("/{token_id}/history", controllers.GetComicHistory(deps.Comics, logg))
	})

	r.Route("/api/v1/marketplace", func(r chi.Router) {
		r.Get("/fees", controllers.GetFees(deps.Market, logg))
		r.Route("/listings", func(r chi.Router) {
			r.With(txLimit).Post("/", controllers.CreateListing(deps.Market, logg))
			r.Get("/", controllers.GetListings(deps.Market, logg))
			r.Get("/{listing_id}", controllers.GetListing(deps.Market, logg))
			r.With(txLimit).Post("/{listing_id}/buy", controllers.BuyListing(deps.Market, logg))
			r.With(txLimit).Post("/{listing_id}/cancel", controllers.CancelListing(deps.Market, logg))
		})
		r.Get("/tokens/{token_id}/listing", controllers.GetTokenListing(deps.Market, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Post("/marketplace/listing-fee", controllers.SetListingFee(deps.Admin, logg))
		r.Post("/marketplace/platform-fee", controllers.SetPlatformFee(deps.Admin, logg))
		r.Post("/marketplace/withdraw", controllers.WithdrawMarketplaceFunds(deps.Admin, logg))
		r.Post("/nft/withdraw", controllers.WithdrawMintFees(deps.Admin, logg))
	})

	return r
}

// limiterFor avoids handing the middleware a typed-nil redis client.
func limiterFor(c *redis.Client) middleware.RateLimiterStore {
	if c == nil {
		return nil
	}
	return c
}
