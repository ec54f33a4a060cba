package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"storefront/internal/handlers"
	"storefront/internal/middlewares"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	r.Use(middlewares.Instrument)
	r.Use(middlewares.CorsMiddleware(s.cfg.AllowedOrigins))

	ch := handlers.NewCommonHandler(s.db)
	r.Handle("/", s.public(ch.HelloWorldHandler))
	r.Handle("/health", s.public(ch.HealthHandler))
	r.Handle("/metrics", s.limit(promhttp.Handler())).Methods("GET")

	s.registerAuthRoutes(r)
	s.registerUserRoutes(r)
	s.registerProductRoutes(r)
	s.registerArticleRoutes(r)
	s.registerCouponRoutes(r)
	s.registerCartRoutes(r)
	s.registerOrderRoutes(r)
	s.registerAnalyticsRoutes(r)

	return r
}

// limit applies the request rate limiter. It runs after AuthMiddleware on
// protected routes so that signed-in users get their own bucket.
func (s *Server) limit(h http.Handler) http.Handler {
	if s.limiter == nil {
		return h
	}
	return s.limiter.Middleware(h)
}

func (s *Server) public(h http.HandlerFunc) http.Handler {
	return s.limit(h)
}

func (s *Server) authed(h http.HandlerFunc) http.Handler {
	return middlewares.AuthMiddleware(s.cfg.JWTSecret)(s.limit(h))
}

func (s *Server) admin(h http.HandlerFunc) http.Handler {
	return middlewares.AuthMiddleware(s.cfg.JWTSecret)(s.limit(middlewares.AdminOnly(h)))
}

func (s *Server) registerAuthRoutes(r *mux.Router) {
	uh := handlers.NewUserHandler(s.userService)
	ah := handlers.NewAuthHandler(s.authService, s.resetService)
	throttle := middlewares.ResetThrottle(s.redis, s.cfg.ResetIPLimit, s.cfg.ResetIPWindow)

	r.Handle("/api/auth/register", s.public(uh.Register)).Methods("POST", "OPTIONS")
	r.Handle("/api/auth/login", s.public(uh.Login)).Methods("POST", "OPTIONS")
	r.Handle("/api/auth/admin-login", s.public(uh.AdminLogin)).Methods("POST", "OPTIONS")

	r.Handle("/api/auth/forgot-password", s.limit(throttle(http.HandlerFunc(ah.RequestPasswordReset)))).Methods("POST", "OPTIONS")
	r.Handle("/api/auth/request-reset", s.limit(throttle(http.HandlerFunc(ah.RequestPasswordReset)))).Methods("POST", "OPTIONS")
	r.Handle("/api/auth/verify-otp", s.limit(throttle(http.HandlerFunc(ah.VerifyOTP)))).Methods("POST", "OPTIONS")
	r.Handle("/api/auth/reset-password", s.limit(throttle(http.HandlerFunc(ah.ResetPassword)))).Methods("POST", "OPTIONS")

	r.Handle("/api/auth/success", s.public(ah.AuthSuccess)).Methods("GET", "OPTIONS")
	r.Handle("/api/auth/error", s.public(ah.AuthError)).Methods("GET", "OPTIONS")
	r.Handle("/api/auth/{provider}", s.public(ah.ProviderAuth)).Methods("GET", "OPTIONS")
	r.Handle("/api/auth/{provider}/callback", s.public(ah.ProviderCallback)).Methods("GET", "OPTIONS")
}

func (s *Server) registerUserRoutes(r *mux.Router) {
	uh := handlers.NewUserHandler(s.userService)

	r.Handle("/api/me", s.authed(uh.GetMyProfile)).Methods("GET", "OPTIONS")
	r.Handle("/api/me", s.authed(uh.UpdateMyProfile)).Methods("PATCH", "PUT", "OPTIONS")
	r.Handle("/api/me", s.authed(uh.DeleteMyProfile)).Methods("DELETE", "OPTIONS")
	r.Handle("/api/me/wishlist", s.authed(uh.GetWishlist)).Methods("GET", "OPTIONS")
	r.Handle("/api/me/wishlist/{productId}", s.authed(uh.ToggleWishlist)).Methods("PUT", "OPTIONS")

	r.Handle("/api/admin/users", s.admin(uh.ListUsers)).Methods("GET", "OPTIONS")
	r.Handle("/api/admin/users/{id}/block", s.admin(uh.BlockUser)).Methods("PUT", "OPTIONS")
	r.Handle("/api/admin/users/{id}/unblock", s.admin(uh.UnblockUser)).Methods("PUT", "OPTIONS")
}

func (s *Server) registerProductRoutes(r *mux.Router) {
	ph := handlers.NewProductHandler(s.productService)
	rh := handlers.NewReviewHandler(s.reviewService)

	r.Handle("/api/products", s.public(ph.ListProducts)).Methods("GET", "OPTIONS")
	r.Handle("/api/products/slug/{slug}", s.public(ph.GetProductBySlug)).Methods("GET", "OPTIONS")
	r.Handle("/api/products/{id}", s.public(ph.GetProduct)).Methods("GET", "OPTIONS")
	r.Handle("/api/products", s.admin(ph.CreateProduct)).Methods("POST", "OPTIONS")
	r.Handle("/api/products/{id}", s.admin(ph.UpdateProduct)).Methods("PUT", "OPTIONS")
	r.Handle("/api/products/{id}", s.admin(ph.DeleteProduct)).Methods("DELETE", "OPTIONS")
	r.Handle("/api/products/{id}/describe", s.admin(ph.GenerateDescription)).Methods("POST", "OPTIONS")

	r.Handle("/api/products/{id}/reviews", s.public(rh.ListReviews)).Methods("GET", "OPTIONS")
	r.Handle("/api/products/{id}/reviews", s.authed(rh.WriteReview)).Methods("PUT", "OPTIONS")
	r.Handle("/api/reviews/{reviewId}", s.authed(rh.DeleteReview)).Methods("DELETE", "OPTIONS")
}

func (s *Server) registerArticleRoutes(r *mux.Router) {
	bh := handlers.NewArticleHandler(s.articleService)

	r.Handle("/api/articles", s.public(bh.ListArticles)).Methods("GET", "OPTIONS")
	r.Handle("/api/articles/{slug}", s.public(bh.ReadArticle)).Methods("GET", "OPTIONS")
	r.Handle("/api/articles", s.admin(bh.CreateArticle)).Methods("POST", "OPTIONS")
	r.Handle("/api/articles/{id}", s.admin(bh.UpdateArticle)).Methods("PUT", "OPTIONS")
	r.Handle("/api/articles/{id}", s.admin(bh.DeleteArticle)).Methods("DELETE", "OPTIONS")
	r.Handle("/api/articles/{id}/like", s.authed(bh.Like)).Methods("PUT", "OPTIONS")
	r.Handle("/api/articles/{id}/dislike", s.authed(bh.Dislike)).Methods("PUT", "OPTIONS")
}

func (s *Server) registerCouponRoutes(r *mux.Router) {
	ch := handlers.NewCouponHandler(s.couponService)

	r.Handle("/api/coupons", s.admin(ch.ListCoupons)).Methods("GET", "OPTIONS")
	r.Handle("/api/coupons", s.admin(ch.CreateCoupon)).Methods("POST", "OPTIONS")
	r.Handle("/api/coupons/{id}", s.admin(ch.GetCoupon)).Methods("GET", "OPTIONS")
	r.Handle("/api/coupons/{id}", s.admin(ch.UpdateCoupon)).Methods("PUT", "OPTIONS")
	r.Handle("/api/coupons/{id}", s.admin(ch.DeleteCoupon)).Methods("DELETE", "OPTIONS")
}

func (s *Server) registerCartRoutes(r *mux.Router) {
	ch := handlers.NewCartHandler(s.cartService)

	r.Handle("/api/cart", s.authed(ch.GetCart)).Methods("GET", "OPTIONS")
	r.Handle("/api/cart", s.authed(ch.SaveCart)).Methods("PUT", "OPTIONS")
	r.Handle("/api/cart", s.authed(ch.EmptyCart)).Methods("DELETE", "OPTIONS")
	r.Handle("/api/cart/coupon", s.authed(ch.ApplyCoupon)).Methods("POST", "OPTIONS")
}

func (s *Server) registerOrderRoutes(r *mux.Router) {
	oh := handlers.NewOrderHandler(s.orderService)

	r.Handle("/api/orders", s.authed(oh.CreateOrder)).Methods("POST", "OPTIONS")
	r.Handle("/api/orders/mine", s.authed(oh.ListMyOrders)).Methods("GET", "OPTIONS")
	r.Handle("/api/orders/track/{orderNumber}", s.authed(oh.TrackOrder)).Methods("GET", "OPTIONS")
	r.Handle("/api/orders/{id}", s.authed(oh.GetOrder)).Methods("GET", "OPTIONS")
	r.Handle("/api/orders/{id}/invoice", s.authed(oh.Invoice)).Methods("GET", "OPTIONS")

	r.Handle("/api/admin/orders", s.admin(oh.ListOrders)).Methods("GET", "OPTIONS")
	r.Handle("/api/admin/orders/{id}/status", s.admin(oh.UpdateStatus)).Methods("PUT", "OPTIONS")
}

func (s *Server) registerAnalyticsRoutes(r *mux.Router) {
	ah := handlers.NewAnalyticsHandlers(s.stats)

	r.Handle("/api/admin/stats", s.admin(ah.Dashboard)).Methods("GET", "OPTIONS")
	r.Handle("/api/admin/stats/user-growth", s.admin(ah.GetUserGrowth)).Methods("GET", "OPTIONS")
}
