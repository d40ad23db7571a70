package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/merchforge/merchforge-backend/api/controllers"
	"github.com/merchforge/merchforge-backend/api/middleware"
	"github.com/merchforge/merchforge-backend/internal/address"
	"github.com/merchforge/merchforge-backend/internal/cart"
	"github.com/merchforge/merchforge-backend/internal/categories"
	"github.com/merchforge/merchforge-backend/internal/notifications"
	"github.com/merchforge/merchforge-backend/internal/orders"
	"github.com/merchforge/merchforge-backend/internal/users"
	products "github.com/merchforge/merchforge-backend/internal/products"
	"github.com/merchforge/merchforge-backend/pkg/config"
	"github.com/merchforge/merchforge-backend/pkg/db"
	"github.com/merchforge/merchforge-backend/pkg/enums"
	"github.com/merchforge/merchforge-backend/pkg/logger"
	"github.com/merchforge/merchforge-backend/pkg/metrics"
	"github.com/merchforge/merchforge-backend/pkg/redis"
)

// Dependencies carries everything the HTTP surface needs.
type Dependencies struct {
	DB            db.Pinger
	Redis         *redis.Client
	Users         middleware.UserVerifier
	Profiles      users.Service
	Products      products.Service
	Categories    categories.Service
	Cart          cart.Service
	Orders        orders.Service
	Notifications notifications.Service
	Addresses     address.Service
	Gatherer      prometheus.Gatherer
	HTTPMetrics   *metrics.HTTPMetrics
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTPMetrics),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]db.Pinger{
			"database": deps.DB,
			"redis":    redisPinger(deps.Redis),
		}))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, deps.Users, logg))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ListProducts(deps.Products, logg))
				r.Get("/{productId}", controllers.GetProduct(deps.Products, logg))
				r.With(middleware.RateLimit("quote", deps.Redis, cfg.RateLimit.QuotePerMinute, logg)).
					Post("/{productId}/calculate-price", controllers.CalculateProductPrice(deps.Products, logg))
			})
			r.Route("/categories", func(r chi.Router) {
				r.Get("/", controllers.ListCategories(deps.Categories, logg))
				r.Get("/{categoryId}", controllers.GetCategory(deps.Categories, logg))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Users, logg))
			r.Use(middleware.Idempotency(deps.Redis, cfg.Idempotency.TTL, logg))

			r.Get("/me", controllers.GetMe(deps.Profiles, logg))
			r.Patch("/me", controllers.UpdateMe(deps.Profiles, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.GetCart(deps.Cart, logg))
				r.Delete("/", controllers.ClearCart(deps.Cart, logg))
				r.Post("/items", controllers.AddCartItem(deps.Cart, logg))
				r.Patch("/items/{itemId}", controllers.UpdateCartItem(deps.Cart, logg))
				r.Delete("/items/{itemId}", controllers.RemoveCartItem(deps.Cart, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", controllers.CreateOrder(deps.Orders, logg))
				r.Get("/", controllers.ListOrders(deps.Orders, logg))
				r.Get("/{orderId}", controllers.GetOrder(deps.Orders, logg))
				r.Post("/{orderId}/cancel", controllers.CancelOrder(deps.Orders, logg))
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
				r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
				r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
			})

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", controllers.ListAddresses(deps.Addresses, logg))
				r.Post("/", controllers.CreateAddress(deps.Addresses, logg))
				r.Get("/{addressId}", controllers.GetAddress(deps.Addresses, logg))
				r.Put("/{addressId}", controllers.UpdateAddress(deps.Addresses, logg))
				r.Delete("/{addressId}", controllers.DeleteAddress(deps.Addresses, logg))
				r.Post("/{addressId}/default", controllers.SetDefaultAddress(deps.Addresses, logg))
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))

				r.Route("/products", func(r chi.Router) {
					r.Post("/", controllers.AdminCreateProduct(deps.Products, logg))
					r.Patch("/{productId}", controllers.AdminUpdateProduct(deps.Products, logg))
					r.Delete("/{productId}", controllers.AdminDeleteProduct(deps.Products, logg))
				})
				r.Route("/categories", func(r chi.Router) {
					r.Post("/", controllers.AdminCreateCategory(deps.Categories, logg))
					r.Patch("/{categoryId}", controllers.AdminUpdateCategory(deps.Categories, logg))
					r.Delete("/{categoryId}", controllers.AdminDeleteCategory(deps.Categories, logg))
				})
				r.Route("/carts", func(r chi.Router) {
					r.Get("/", controllers.AdminListCarts(deps.Cart, logg))
					r.Get("/{userId}", controllers.AdminGetUserCart(deps.Cart, logg))
					r.Delete("/{userId}", controllers.AdminClearUserCart(deps.Cart, logg))
				})
				r.Route("/orders", func(r chi.Router) {
					r.Get("/", controllers.AdminListOrders(deps.Orders, logg))
					r.Get("/{orderId}", controllers.AdminGetOrder(deps.Orders, logg))
					r.Patch("/{orderId}/status", controllers.AdminUpdateOrderStatus(deps.Orders, logg))
				})
				r.Route("/addresses", func(r chi.Router) {
					r.Get("/", controllers.AdminListAddresses(deps.Addresses, logg))
					r.Delete("/{addressId}", controllers.AdminDeleteAddress(deps.Addresses, logg))
				})
				r.Get("/users/{userId}/addresses", controllers.AdminListUserAddresses(deps.Addresses, logg))
			})
		})
	})

	return r
}

// redisPinger keeps a nil client out of the readiness map as a nil interface.
func redisPinger(client *redis.Client) db.Pinger {
	if client == nil {
		return nil
	}
	return client
}
