package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bazaarly/storefront-backend/api/controllers"
	"github.com/bazaarly/storefront-backend/api/middleware"
	authsvc "github.com/bazaarly/storefront-backend/internal/auth"
	bannersvc "github.com/bazaarly/storefront-backend/internal/banners"
	cartsvc "github.com/bazaarly/storefront-backend/internal/cart"
	notificationsvc "github.com/bazaarly/storefront-backend/internal/notifications"
	ordersvc "github.com/bazaarly/storefront-backend/internal/orders"
	paymentsvc "github.com/bazaarly/storefront-backend/internal/payments"
	productsvc "github.com/bazaarly/storefront-backend/internal/products"
	reviewsvc "github.com/bazaarly/storefront-backend/internal/reviews"
	"github.com/bazaarly/storefront-backend/pkg/auth/session"
	"github.com/bazaarly/storefront-backend/pkg/config"
	"github.com/bazaarly/storefront-backend/pkg/db"
	"github.com/bazaarly/storefront-backend/pkg/logger"
	"github.com/bazaarly/storefront-backend/pkg/redis"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             db.Pinger
	Redis          *redis.Client
	SessionChecker session.AccessSessionChecker

	Auth          authsvc.Service
	Products      productsvc.Service
	Cart          cartsvc.Service
	Orders        ordersvc.Service
	Payments      paymentsvc.Service
	Notifications notificationsvc.Service
	Banners       bannersvc.Service
	Reviews       reviewsvc.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(deps.DB, deps.Redis, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", controllers.Register(deps.Auth, logg))
			r.Post("/login", controllers.Login(deps.Auth, logg))
			r.With(middleware.Auth(cfg.JWT, deps.SessionChecker, logg)).
				Post("/logout", controllers.Logout(deps.Auth, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(deps.Products, logg))
			r.Get("/{productID}", controllers.GetProduct(deps.Products, logg))
			r.Get("/{productID}/reviews", controllers.ListProductReviews(deps.Reviews, logg))
		})

		r.Get("/banners", controllers.ListActiveBanners(deps.Banners, logg))

		// gateway callback carries its own signature, no session required
		r.Post("/payments/verify", controllers.VerifyPayment(deps.Payments, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.SessionChecker, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.GetCart(deps.Cart, logg))
				r.Post("/items", controllers.AddCartItem(deps.Cart, logg))
				r.Put("/items/{productID}", controllers.UpdateCartItem(deps.Cart, logg))
				r.Delete("/items/{productID}", controllers.RemoveCartItem(deps.Cart, logg))
				r.Delete("/", controllers.ClearCart(deps.Cart, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", controllers.PlaceOrder(deps.Orders, logg))
				r.Get("/", controllers.ListMyOrders(deps.Orders, logg))
				r.Get("/{orderID}", controllers.GetOrder(deps.Orders, logg))
			})

			r.Post("/payments/create-order", controllers.CreateGatewayOrder(deps.Payments, logg))

			r.Route("/reviews", func(r chi.Router) {
				r.Post("/", controllers.CreateReview(deps.Reviews, logg))
				r.Get("/mine", controllers.ListMyReviews(deps.Reviews, logg))
				r.Put("/{reviewID}", controllers.UpdateReview(deps.Reviews, logg))
				r.Delete("/{reviewID}", controllers.DeleteReview(deps.Reviews, logg))
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
				r.Post("/{notificationID}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
				r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionChecker, logg))
		r.Use(middleware.RequireAdmin(logg))

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.CreateProduct(deps.Products, logg))
			r.Put("/{productID}", controllers.UpdateProduct(deps.Products, logg))
			r.Delete("/{productID}", controllers.DeleteProduct(deps.Products, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminListOrders(deps.Orders, logg))
			r.Put("/{orderID}/status", controllers.AdminUpdateOrderStatus(deps.Orders, logg))
		})

		r.Get("/reviews", controllers.AdminListReviews(deps.Reviews, logg))

		r.Route("/banners", func(r chi.Router) {
			r.Get("/", controllers.AdminListBanners(deps.Banners, logg))
			r.Post("/", controllers.CreateBanner(deps.Banners, logg))
			r.Put("/{bannerID}", controllers.UpdateBanner(deps.Banners, logg))
			r.Delete("/{bannerID}", controllers.DeleteBanner(deps.Banners, logg))
		})
	})

	return r
}
