package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limiterstdlib "github.com/ulule/limiter/v3/drivers/middleware/stdlib"

	"github.com/vastra-group/storefront-api/internal/app"
	"github.com/vastra-group/storefront-api/internal/auth"
	"github.com/vastra-group/storefront-api/internal/cart"
	"github.com/vastra-group/storefront-api/internal/common"
	"github.com/vastra-group/storefront-api/internal/config"
	"github.com/vastra-group/storefront-api/internal/coupon"
	"github.com/vastra-group/storefront-api/internal/db"
	"github.com/vastra-group/storefront-api/internal/health"
	"github.com/vastra-group/storefront-api/internal/obs"
	"github.com/vastra-group/storefront-api/internal/pincode"
	"github.com/vastra-group/storefront-api/internal/policy"
	"github.com/vastra-group/storefront-api/internal/ratelimit"
	"github.com/vastra-group/storefront-api/internal/returns"
	"github.com/vastra-group/storefront-api/internal/search"
	"github.com/vastra-group/storefront-api/internal/security"
	"github.com/vastra-group/storefront-api/internal/shipping"
	"github.com/vastra-group/storefront-api/internal/wishlist"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "storefront")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "storefront-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: sampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				ctx := context.Background()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := app.NewDBPool(ctx, cfg, "storefront-api")
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise database")
	}
	defer pool.Close()

	if envBool("DB_AUTO_MIGRATE", true) {
		if err := app.RunMigrations(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("run migrations")
		}
	}

	redisClient, err := app.NewRedisClient(ctx, cfg, metricsEnabled)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise redis")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	queries := db.New(pool)
	validate := validator.New()

	verifier, err := auth.NewVerifier(auth.VerifierConfig{
		Secret:   cfg.JWTSecret,
		Issuer:   envOrDefault("JWT_ISSUER", ""),
		Audience: envOrDefault("JWT_AUDIENCE", ""),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise token verifier")
	}
	authMiddleware := auth.Middleware{Verifier: verifier}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}

	couponSvc := coupon.NewService(pool, queries)
	couponHandler := &coupon.Handler{Svc: couponSvc, Validate: validate}

	cartSvc := &cart.Service{Q: queries, Coupons: couponSvc}
	cartHandler := &cart.Handler{Svc: cartSvc, Validate: validate}

	wishlistSvc := &wishlist.Service{Q: queries}
	wishlistHandler := &wishlist.Handler{Svc: wishlistSvc, Validate: validate}

	searchSvc := &search.Service{
		Q:            queries,
		Cache:        search.NewCache(redisClient, cfg.SearchCacheTTL),
		DefaultLimit: envInt("SEARCH_DEFAULT_LIMIT", 20),
		MaxLimit:     envInt("SEARCH_MAX_LIMIT", 100),
	}
	searchHandler := &search.Handler{Svc: searchSvc}

	policyHandler := &policy.Handler{Svc: &policy.Service{Q: queries}}
	pincodeHandler := &pincode.Handler{Svc: &pincode.Service{Q: queries}, Validate: validate}

	var courier shipping.Courier
	if cfg.ShipRocketEmail != "" && cfg.ShipRocketPassword != "" {
		courier = shipping.NewClient(*cfg)
	} else {
		logger.Warn().Msg("courier credentials missing, using mock courier")
		courier = shipping.MockCourier{}
	}
	shippingHandler := &shipping.Handler{Courier: courier, Validate: validate}

	returnsSvc := &returns.Service{Q: queries, Pickup: courier}
	returnsHandler := &returns.Handler{Svc: returnsSvc, Validate: validate}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	searchRateMW, err := searchRateLimiter(cfg, redisClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise search rate limiter")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(security.Headers{Enable: true, EnableHSTS: cfg.AppEnv == "production"}.Middleware)
	r.Use(security.BodyLimit{Max: int64(envInt("HTTP_MAX_BODY_BYTES", 1<<20))}.Middleware)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if envBool("OBS_ENABLE_PPROF", false) {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{
		Checker:      app.ReadinessChecker{DB: pool, Redis: redisClient},
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	pincodeRate := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "rl:pincode:"},
		Config: ratelimit.Config{
			Key:    common.ClientIP,
			Window: time.Minute,
			Max:    envInt("PINCODE_RATE_LIMIT_PER_MIN", 120),
		},
		OnError: func(err error) { logger.Error().Err(err).Msg("pincode rate limit") },
	}

	r.Route("/api/v1", func(v chi.Router) {
		v.With(searchRateMW.Handler).Get("/products/search", searchHandler.Search)
		v.Get("/policies/{kind}", policyHandler.Get)
		v.With(pincodeRate.Middleware).Get("/pincodes/check/{value}", pincodeHandler.Check)
		v.Get("/returns/reasons", returnsHandler.ListReasons)

		v.Route("/cart", func(c chi.Router) {
			c.Use(authMiddleware.RequireAuth)
			c.Get("/", cartHandler.Get)
			c.Get("/count", cartHandler.Count)
			c.Get("/total", cartHandler.Total)
			c.Group(func(g chi.Router) {
				g.Use(idem.Middleware)
				g.Post("/items", cartHandler.AddItem)
				g.Patch("/items", cartHandler.UpdateItem)
				g.Delete("/items/{productID}", cartHandler.RemoveItem)
				g.Delete("/", cartHandler.Clear)
			})
		})

		v.Route("/wishlist", func(wl chi.Router) {
			wl.Use(authMiddleware.RequireAuth)
			wl.Get("/", wishlistHandler.List)
			wl.Get("/count", wishlistHandler.Count)
			wl.Get("/contains/{productID}", wishlistHandler.Contains)
			wl.Post("/", wishlistHandler.Add)
			wl.Delete("/{productID}", wishlistHandler.Remove)
			wl.Delete("/", wishlistHandler.Clear)
		})

		v.Route("/returns", func(rt chi.Router) {
			rt.Use(authMiddleware.RequireAuth)
			rt.Get("/", returnsHandler.ListMine)
			rt.Get("/{id}", returnsHandler.Get)
			rt.With(idem.Middleware).Post("/", returnsHandler.Initiate)
		})

		v.Route("/admin", func(admin chi.Router) {
			admin.Use(authMiddleware.RequireRole("admin"))

			admin.Post("/coupons", couponHandler.Create)
			admin.Get("/coupons", couponHandler.List)
			admin.Get("/coupons/{id}", couponHandler.Get)
			admin.Put("/coupons/{id}", couponHandler.Update)
			admin.Delete("/coupons/{id}", couponHandler.Delete)

			admin.Post("/pincodes", pincodeHandler.Create)
			admin.Get("/pincodes", pincodeHandler.List)
			admin.Put("/pincodes/{id}", pincodeHandler.Update)
			admin.Delete("/pincodes/{id}", pincodeHandler.Delete)
			admin.Post("/pincodes/{id}/restore", pincodeHandler.Restore)

			admin.Put("/policies/{kind}", policyHandler.Publish)

			admin.Post("/return-reasons", returnsHandler.CreateReason)
			admin.Put("/return-reasons/{id}", returnsHandler.UpdateReason)
			admin.Delete("/return-reasons/{id}", returnsHandler.DeleteReason)
			admin.Get("/returns", returnsHandler.ListAll)
			admin.Patch("/returns/{id}/status", returnsHandler.UpdateStatus)

			admin.Post("/shipping/orders", shippingHandler.CreateOrder)
			admin.Get("/shipping/track/{shipmentId}", shippingHandler.Track)
			admin.Get("/shipping/serviceability", shippingHandler.Serviceability)
			admin.Get("/shipping/pickup-locations", shippingHandler.PickupLocations)
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		serverErr <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
		}
	}
}

func searchRateLimiter(cfg *config.Config, rdb *redis.Client) (*limiterstdlib.Middleware, error) {
	rate, err := limiter.NewRateFromFormatted(cfg.SearchRateLimit)
	if err != nil {
		return nil, err
	}
	store, err := app.NewLimiterStore(rdb)
	if err != nil {
		return nil, err
	}
	return limiterstdlib.NewMiddleware(limiter.New(store, rate)), nil
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
