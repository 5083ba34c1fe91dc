package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mwhitfield/wishlist-backend/api/controllers"
	"github.com/mwhitfield/wishlist-backend/api/middleware"
	"github.com/mwhitfield/wishlist-backend/internal/auth"
	"github.com/mwhitfield/wishlist-backend/internal/children"
	"github.com/mwhitfield/wishlist-backend/internal/equity"
	"github.com/mwhitfield/wishlist-backend/internal/family"
	"github.com/mwhitfield/wishlist-backend/internal/items"
	"github.com/mwhitfield/wishlist-backend/internal/reservations"
	"github.com/mwhitfield/wishlist-backend/pkg/auth/session"
	"github.com/mwhitfield/wishlist-backend/pkg/config"
	"github.com/mwhitfield/wishlist-backend/pkg/db"
	"github.com/mwhitfield/wishlist-backend/pkg/enums"
	"github.com/mwhitfield/wishlist-backend/pkg/feed"
	"github.com/mwhitfield/wishlist-backend/pkg/logger"
	"github.com/mwhitfield/wishlist-backend/pkg/redis"
)

// RouterParams bundles everything the HTTP surface needs.
type RouterParams struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           db.Pinger
	Redis        *redis.Client
	Sessions     session.SessionChecker
	Auth         auth.Service
	Children     children.Service
	Family       family.Service
	Items        items.Service
	Reservations reservations.Service
	Equity       equity.Service
	Feed         *feed.Subscriber
	Registry     *prometheus.Registry
}

// NewRouter builds the chi router with the full middleware stack and all
// wishlist routes.
func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.Login.Window,
		cfg.Login.IPLimit,
		cfg.Login.EmailLimit,
	)
	routePolicy := middleware.NewAuthRateLimitPolicy(
		"route",
		cfg.Login.Window,
		cfg.Login.IPLimit,
		0,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})

	if p.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	requireAuth := middleware.Auth(cfg.JWT, p.Sessions, logg)
	parentOnly := middleware.RequireRole(logg, enums.RoleParent)
	anyRole := middleware.RequireRole(logg, enums.RoleParent, enums.RoleChild, enums.RoleFamilyMember)
	reservers := middleware.RequireRole(logg, enums.RoleParent, enums.RoleFamilyMember)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).
			Post("/login", controllers.AuthLogin(p.Auth, logg))
		r.With(middleware.AuthRateLimit(routePolicy, p.Redis, logg)).
			Post("/route", controllers.AuthRoute(p.Auth, logg))
		r.With(requireAuth).Post("/logout", controllers.AuthLogout(p.Auth, logg))
	})

	r.Route("/api/v1/children", func(r chi.Router) {
		r.Use(requireAuth, parentOnly)
		r.Post("/", controllers.ChildrenCreate(p.Children, logg))
		r.Get("/", controllers.ChildrenList(p.Children, logg))
		r.Get("/{id}", controllers.ChildrenGet(p.Children, logg))
		r.Patch("/{id}", controllers.ChildrenUpdate(p.Children, logg))
		r.Delete("/{id}", controllers.ChildrenDelete(p.Children, logg))
	})

	r.Route("/api/v1/family", func(r chi.Router) {
		r.Use(requireAuth, parentOnly)
		r.Post("/", controllers.FamilyCreate(p.Family, logg))
		r.Get("/", controllers.FamilyList(p.Family, logg))
		r.Get("/{id}", controllers.FamilyGet(p.Family, logg))
		r.Patch("/{id}", controllers.FamilyUpdate(p.Family, logg))
		r.Delete("/{id}", controllers.FamilyDelete(p.Family, logg))
	})

	r.Route("/api/v1/items", func(r chi.Router) {
		r.Use(requireAuth, anyRole)
		r.Post("/", controllers.ItemsCreate(p.Items, logg))
		r.Get("/", controllers.ItemsList(p.Items, logg))
		r.Get("/approved", controllers.ItemsListApproved(p.Items, logg))
		r.Get("/{id}", controllers.ItemsGet(p.Items, logg))
		r.Patch("/{id}", controllers.ItemsUpdate(p.Items, logg))
		r.Delete("/{id}", controllers.ItemsDelete(p.Items, logg))

		r.With(parentOnly).Post("/{id}/approve", controllers.ItemsChangeStatus(p.Items, logg, enums.ItemStatusApproved))
		r.With(parentOnly).Post("/{id}/reject", controllers.ItemsChangeStatus(p.Items, logg, enums.ItemStatusRejected))
		r.With(parentOnly).Post("/{id}/unapprove", controllers.ItemsChangeStatus(p.Items, logg, enums.ItemStatusPending))
		r.With(parentOnly).Post("/{id}/unreject", controllers.ItemsChangeStatus(p.Items, logg, enums.ItemStatusPending))

		r.Post("/priorities", controllers.ItemsPriorities(p.Items, logg))
		r.Post("/{id}/send-to-top", controllers.ItemsSendToTop(p.Items, logg))
		r.With(parentOnly).Post("/fix-priorities", controllers.ItemsFixPriorities(p.Items, logg))
	})

	r.Route("/api/v1/reservations", func(r chi.Router) {
		r.Use(requireAuth, reservers)
		r.Post("/", controllers.ReservationsCreate(p.Reservations, logg))
		r.Get("/", controllers.ReservationsList(p.Reservations, logg))
		r.Delete("/{id}", controllers.ReservationsDelete(p.Reservations, logg))
		r.Post("/{id}/purchased", controllers.ReservationsSetPurchased(p.Reservations, logg))
	})

	r.With(requireAuth, parentOnly).Get("/api/v1/equity", controllers.EquitySnapshot(p.Equity, logg))
	r.With(requireAuth, anyRole).Get("/api/v1/feed", controllers.FeedStream(p.Feed, logg))

	return r
}
