// Package server is the composition root: it builds the router, attaches
// middleware to route groups, schedules background jobs and runs the HTTP
// server until a shutdown signal arrives.
//
// ROUTE GROUPS:
//
//	/healthz, /metrics, /static/*        operational, no auth
//	/, /login, /register, callbacks      pages, session optional
//	/dashboard                           pages, session required
//	/approve-*, /admin/*                 basic auth
//	/api/contact, /api/log-checkpoint    public JSON, rate limited
//	/api/*                               JSON, session required
//
// Shutdown runs in reverse order of construction: HTTP server, cron, mail
// dispatcher, reminder ledger, MongoDB.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/robfig/cron/v3"

	"github.com/sakif/venturehub/internal/auth"
	"github.com/sakif/venturehub/internal/config"
	"github.com/sakif/venturehub/internal/handler"
	"github.com/sakif/venturehub/internal/middleware"
)

const (
	limiterIdle     = 30 * time.Minute
	ledgerRetention = 30 * 24 * time.Hour
	shutdownTimeout = 30 * time.Second
)

// Server owns the router, the scheduler and the backend it serves.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	backend *Backend
	social  handler.SocialProvider
	limiter *middleware.RateLimiter
	cron    *cron.Cron
}

// New wires the routes over backend. social may be nil, in which case the
// social login routes answer 404.
func New(cfg *config.Config, backend *Backend, social handler.SocialProvider, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		backend: backend,
		social:  social,
		limiter: middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, logger),
	}

	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	if err := s.setupJobs(); err != nil {
		return nil, fmt.Errorf("scheduling jobs: %w", err)
	}
	return s, nil
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() error {
	b := s.backend

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics(b.Metrics))

	tokens, err := auth.NewTokenService(s.config.Session.Secret, s.config.Session.TTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	sessions := auth.NewSessions(tokens, s.config.Session.CookieName, s.config.Session.Secure, s.logger)

	passwords := auth.NewPasswordService()
	adminHash, err := passwords.Hash(s.config.BasicAuth.Password)
	if err != nil {
		return fmt.Errorf("hashing basic auth password: %w", err)
	}
	basicAuth := auth.BasicAuth(s.config.BasicAuth.User, adminHash, passwords, s.logger)

	pages, err := handler.NewRenderer(os.DirFS(s.config.Server.TemplateDir), s.logger)
	if err != nil {
		return fmt.Errorf("loading page templates: %w", err)
	}

	authHandler := handler.NewAuthHandler(b.Auth, s.social, sessions, pages, s.logger)
	pageHandler := handler.NewPageHandler(handler.NewDashboardSource(b.Applications, b.Subscriptions), pages, s.logger)
	approvalHandler := handler.NewApprovalHandler(b.Bookings, pages, s.logger)
	callbackHandler := handler.NewCallbackHandler(b.Marketplace, b.Bookings, b.Subscriptions, b.Payments, s.logger)
	applicationHandler := handler.NewApplicationHandler(b.Applications, s.logger)
	marketplaceHandler := handler.NewMarketplaceHandler(b.Marketplace, s.logger)
	bookingHandler := handler.NewBookingHandler(b.Bookings, s.logger)
	subscriptionHandler := handler.NewSubscriptionHandler(b.Subscriptions, s.logger)
	paymentHandler := handler.NewPaymentHandler(b.Payments, s.logger)
	careerHandler := handler.NewCareerHandler(b.Careers, s.logger)
	publicHandler := handler.NewPublicHandler(b.Contact, s.logger)
	adminHandler := handler.NewAdminHandler(b.Operator, s.logger)
	healthHandler := handler.NewHealthHandler(map[string]handler.Pinger{
		"mongodb": b.Mongo,
		"ledger":  b.Ledger,
	}, s.logger)

	// === Operational ===
	s.router.Get("/healthz", healthHandler.HandleHealth)
	s.router.Handle("/metrics", b.Metrics.Handler())
	fileServer := http.FileServer(http.Dir(s.config.Server.StaticDir))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	// === Pages ===
	s.router.Group(func(r chi.Router) {
		r.Use(sessions.OptionalAuth)

		r.Get("/", pageHandler.HandleHome)
		r.Get("/login", authHandler.HandleLoginPage)
		r.Get("/register", authHandler.HandleRegisterPage)
		r.Post("/logout", authHandler.HandleLogout)
		r.Get("/auth/social/login", authHandler.HandleSocialLogin)
		r.Get("/auth/social/callback", authHandler.HandleSocialCallback)

		r.Group(func(r chi.Router) {
			r.Use(s.limiter.Handler)
			r.Post("/login", authHandler.HandleLogin)
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/password/reset", authHandler.HandlePasswordReset)
		})

		// The user comes from the transaction metadata, not the session.
		r.Get("/marketplace/callback", callbackHandler.HandleMarketplace)
		r.Get("/collaborative-spaces/callback", callbackHandler.HandleSpace)
		r.Get("/advisory-services/callback", callbackHandler.HandleService)
		r.Get("/subscription/callback", callbackHandler.HandleSubscription)
		r.Get("/payment/callback", callbackHandler.HandlePayment)
	})

	s.router.With(sessions.RequirePage(b.Auth)).Get("/dashboard", pageHandler.HandleDashboard)

	// === Basic auth ===
	// Every attempt pays for a bcrypt comparison, so the limiter runs first.
	s.router.Group(func(r chi.Router) {
		r.Use(s.limiter.Handler)
		r.Use(basicAuth)

		r.Get("/approve-booking/{id}", approvalHandler.HandleSpaceForm)
		r.Post("/approve-booking/{id}", approvalHandler.HandleSpaceDecision)
		r.Get("/approve-service-booking/{id}", approvalHandler.HandleServiceForm)
		r.Post("/approve-service-booking/{id}", approvalHandler.HandleServiceDecision)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/listings/{id}/verify", adminHandler.HandleVerifyListing)
			r.Post("/kyc/{uid}/approve", adminHandler.HandleApproveKYC)
			r.Post("/investors/{uid}/approve", adminHandler.HandleApproveInvestor)
			r.Post("/investees/{uid}/approve", adminHandler.HandleApproveInvestee)
			r.Post("/reminders/sweep", adminHandler.HandleSweep)
		})
	})

	// === JSON ===
	s.router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.limiter.Handler)
			r.Post("/contact", publicHandler.HandleContact)
			r.Post("/log-checkpoint", publicHandler.HandleLogCheckpoint)
		})

		r.Group(func(r chi.Router) {
			r.Use(sessions.RequireAuth)

			r.Get("/applications/investor", applicationHandler.HandleGetInvestor)
			r.Post("/applications/investor", applicationHandler.HandleSubmitInvestor)
			r.Get("/applications/investee", applicationHandler.HandleGetInvestee)
			r.Post("/applications/investee", applicationHandler.HandleSubmitInvestee)
			r.Get("/kyc", applicationHandler.HandleKYCStatus)
			r.Post("/kyc", applicationHandler.HandleSubmitKYC)
			r.Get("/profile", applicationHandler.HandleGetProfile)
			r.Put("/profile", applicationHandler.HandleSaveProfile)

			r.Get("/listings", marketplaceHandler.HandleList)
			r.Get("/listings/eligibility", marketplaceHandler.HandleEligibility)
			r.Post("/listings", marketplaceHandler.HandleCreate)
			r.Get("/listings/{id}", marketplaceHandler.HandleGet)
			r.Put("/listings/{id}", marketplaceHandler.HandleUpdate)
			r.Post("/listings/{id}/investments", marketplaceHandler.HandleRequestInvestment)
			r.Post("/listings/{id}/investments/{investorID}/approve", marketplaceHandler.HandleApproveInvestment)
			r.Post("/listings/{id}/investments/{investorID}/reject", marketplaceHandler.HandleRejectInvestment)
			r.Post("/listings/{id}/payment", marketplaceHandler.HandleStartPayment)
			r.Put("/listings/{id}/interest", marketplaceHandler.HandleInterest)
			r.Post("/listings/{id}/reviews", marketplaceHandler.HandleReview)
			r.Get("/wishlist", marketplaceHandler.HandleWishlist)
			r.Get("/portfolio", marketplaceHandler.HandlePortfolio)
			r.Get("/investors", marketplaceHandler.HandleInvestors)

			r.Get("/spaces", bookingHandler.HandleListSpaces)
			r.Post("/spaces/bookings", bookingHandler.HandleRequestSpace)
			r.Post("/spaces/bookings/{id}/payment", bookingHandler.HandleSpacePayment)
			r.Get("/services", bookingHandler.HandleListServices)
			r.Get("/services/{type}/providers", bookingHandler.HandleProviders)
			r.Post("/services/bookings", bookingHandler.HandleRequestService)
			r.Post("/services/bookings/{id}/payment", bookingHandler.HandleServicePayment)

			r.Get("/subscriptions", subscriptionHandler.HandleStatus)
			r.Post("/subscriptions/renew", subscriptionHandler.HandleRenew)
			r.Post("/payment/initialize", paymentHandler.HandleInitialize)

			r.Get("/careers", careerHandler.HandleList)
			r.Post("/careers", careerHandler.HandleCreate)
			r.Get("/careers/{id}", careerHandler.HandleGet)
			r.Put("/careers/{id}", careerHandler.HandleUpdate)
			r.Delete("/careers/{id}", careerHandler.HandleDelete)
		})
	})

	return nil
}

// setupJobs schedules the reminder sweep, the rate limiter cleanup and
// the ledger purge. An empty reminder schedule disables the sweep only.
func (s *Server) setupJobs() error {
	cronLog := cron.PrintfLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))
	s.cron = cron.New(cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)))

	if spec := s.config.Reminders.Schedule; spec != "" {
		if _, err := s.cron.AddFunc(spec, s.sweepReminders); err != nil {
			return fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
		}
	}
	if _, err := s.cron.AddFunc("@every 10m", func() { s.limiter.Cleanup(limiterIdle) }); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@daily", s.purgeLedger); err != nil {
		return err
	}
	return nil
}

func (s *Server) sweepReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	sent, err := s.backend.Subscriptions.SweepExpiring(ctx)
	if err != nil {
		s.logger.Error("reminder sweep failed", slog.String("error", err.Error()))
		return
	}
	s.logger.Info("reminder sweep finished", slog.Int("sent", sent))
}

func (s *Server) purgeLedger() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := s.backend.Ledger.Purge(ctx, time.Now().Add(-ledgerRetention))
	if err != nil {
		s.logger.Error("ledger purge failed", slog.String("error", err.Error()))
		return
	}
	if removed > 0 {
		s.logger.Info("ledger purged", slog.Int64("removed", removed))
	}
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully and
// closes the backend.
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("url", s.config.Server.BaseURL),
		)
		serverErrors <- srv.ListenAndServe()
	}()
	s.cron.Start()

	var serveErr error
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("server error: %w", err)
		}
	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			serveErr = fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	<-s.cron.Stop().Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.backend.Close(ctx); err != nil {
		s.logger.Error("closing backend", slog.String("error", err.Error()))
	}
	if serveErr == nil {
		s.logger.Info("server stopped gracefully")
	}
	return serveErr
}
