package server

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/middlewares"
	"storefront/internal/repositories"
	"storefront/internal/services"
)

const totalUsersInterval = 5 * time.Minute

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

type Server struct {
	cfg        *config.Config
	httpServer *http.Server
	db         database.Service
	redis      redis.UniversalClient
	limiter    *middlewares.RateLimiter

	// background jobs stop when the server shuts down
	jobs     context.Context
	stopJobs context.CancelFunc

	userService    services.UserService
	authService    services.AuthService
	resetService   services.PasswordResetService
	productService services.ProductService
	reviewService  services.ReviewService
	articleService services.ArticleService
	couponService  services.CouponService
	cartService    services.CartService
	orderService   services.OrderService
	stats          handlers.StatsProvider
}

func NewServer(cfg *config.Config) *Server {
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET environment variable not set")
	}

	db := database.New(cfg.MongoURI, cfg.MongoDatabase)

	userRepo := repositories.NewUserRepository(db)
	resetRepo := repositories.NewPasswordResetRepository(db)
	productRepo := repositories.NewProductRepository(db)
	reviewRepo := repositories.NewReviewRepository(db)
	articleRepo := repositories.NewArticleRepository(db)
	couponRepo := repositories.NewCouponRepository(db)
	cartRepo := repositories.NewCartRepository(db)
	orderRepo := repositories.NewOrderRepository(db)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, repo := range []indexer{userRepo, resetRepo, productRepo, reviewRepo, articleRepo, couponRepo, cartRepo, orderRepo} {
		if err := repo.EnsureIndexes(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to create indexes")
		}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		// the reset throttle fails open, so a missing Redis only weakens it
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis is not reachable")
	}

	describer, err := services.NewLLMService(ctx, cfg.LLMAPIKey, cfg.LLMModel)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize LLM client, description generation disabled")
	}

	tokens := services.TokenConfig{Secret: cfg.JWTSecret, TTL: cfg.JWTTokenDuration, BcryptCost: cfg.BcryptCost}
	mailer := services.NewEmailService(cfg)
	coupons := services.NewCouponService(couponRepo)

	s := &Server{
		cfg:            cfg,
		db:             db,
		redis:          rdb,
		limiter:        middlewares.NewRateLimiter(rate.Limit(10), 30),
		userService:    services.NewUserService(userRepo, productRepo, tokens),
		authService:    services.NewAuthService(userRepo, tokens),
		resetService:   services.NewPasswordResetService(userRepo, resetRepo, mailer, services.PasswordResetConfigFrom(cfg)),
		productService: services.NewProductService(productRepo, reviewRepo, describer),
		reviewService:  services.NewReviewService(reviewRepo, productRepo),
		articleService: services.NewArticleService(articleRepo),
		couponService:  coupons,
		cartService:    services.NewCartService(cartRepo, productRepo, coupons),
		orderService:   services.NewOrderService(orderRepo, cartRepo, productRepo, userRepo, mailer, services.NewInvoiceRenderer("Storefront")),
		stats:          services.NewAnalyticsService(userRepo, productRepo, orderRepo),
	}

	s.jobs, s.stopJobs = context.WithCancel(context.Background())
	services.InitializeGoth(cfg)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

func (s *Server) Start() error {
	go s.limiter.CleanupVisitors(s.jobs)
	go s.userService.RunTotalUsersGauge(s.jobs, totalUsersInterval)

	log.Info().Int("port", s.cfg.Port).Msg("Starting server")
	return s.httpServer.ListenAndServe()
}

func (s *Server) GracefulShutdown(done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Info().Msg("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown with error")
	}
	s.resetService.WaitForDeliveries()
	s.stopJobs()
	if err := s.redis.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close redis client")
	}
	if err := s.db.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to disconnect from database")
	}

	log.Info().Msg("Server exiting")
	done <- true
}
