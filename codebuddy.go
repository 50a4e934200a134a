// Package codebuddy is the web application behind a gamified
// programming-education site: debugging challenges, portfolio projects,
// learning tracks, career roadmaps and a learner dashboard, served with
// Echo and templ.
//
// Page templates are supplied through ViewFuncs, so the app owns handlers,
// middleware, storage and sign-in while the views package owns markup.
package codebuddy

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/codebuddy/catalog"
	"github.com/eringen/codebuddy/content"
	"github.com/eringen/codebuddy/identity"
	"github.com/eringen/codebuddy/passcode"
	"github.com/eringen/codebuddy/progress"
)

// App is the central application. It wires together the stores, cache,
// handlers, middleware, sign-in providers and user-provided templates.
type App struct {
	Config    SiteConfig
	Echo      *echo.Echo
	Store     *Store
	Progress  *progress.Store
	Catalog   *CatalogCache
	Views     ViewFuncs
	Logger    *zap.Logger
	Providers identity.Registry
	Passcodes *passcode.Issuer

	loginLimiter   *LoginLimiter
	otpLimiter     *LoginLimiter
	chatLimiter    *ChatLimiter
	passcodeSender passcode.Sender
	customRoutes   []func(*App)
	staticDir      string
	initialized    bool
}

// New creates a new App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	a := &App{
		Config:    cfg,
		Echo:      e,
		Views:     views,
		Logger:    zap.NewNop(),
		Providers: identity.Registry{},
		staticDir: "public",
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Init opens the databases, loads the catalog, and registers middleware and
// routes. Start calls it; tests call it directly and drive a.Echo.
func (a *App) Init(ctx context.Context) error {
	if a.initialized {
		return nil
	}
	if err := a.Config.validate(); err != nil {
		return err
	}

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("codebuddy: init store: %w", err)
	}
	a.Store = store

	progressStore, err := progress.NewStore(a.Config.ProgressDatabasePath)
	if err != nil {
		return fmt.Errorf("codebuddy: init progress: %w", err)
	}
	a.Progress = progressStore

	a.Catalog = NewCatalogCache(a.Store, a.Config.CatalogCacheTTL)
	if err := a.seedCatalog(ctx); err != nil {
		return err
	}

	a.loginLimiter = NewLoginLimiter(5, time.Minute)
	a.otpLimiter = NewLoginLimiter(otpSendsPerWindow, otpSendWindow)
	a.chatLimiter = NewChatLimiter(a.Config.Chat.PerMinute, a.Config.Chat.Burst)

	if a.passcodeSender == nil {
		a.passcodeSender = passcode.LogSender{Logger: a.Logger}
	}
	a.Passcodes = passcode.NewIssuer(a.Config.passcodeConfig(), a.passcodeSender)

	if len(a.Providers) == 0 {
		a.Providers = identity.NewRegistry(a.defaultProvider())
	}

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.initialized = true
	return nil
}

// seedCatalog loads the configured catalog file into the store. Without a
// file, the built-in catalog is stored on first run only.
func (a *App) seedCatalog(ctx context.Context) error {
	if a.Config.CatalogPath != "" {
		return a.ReloadCatalog(ctx)
	}
	if _, err := a.Store.LoadCatalog(ctx); err == nil {
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("codebuddy: load catalog: %w", err)
	}
	c, err := catalog.Default()
	if err != nil {
		return fmt.Errorf("codebuddy: default catalog: %w", err)
	}
	if err := a.Catalog.Replace(ctx, c); err != nil {
		return fmt.Errorf("codebuddy: seed catalog: %w", err)
	}
	a.Logger.Info("seeded built-in catalog", zap.Int("challenges", len(c.Challenges)), zap.Int("lessons", len(c.Lessons)))
	return nil
}

// ReloadCatalog reads Config.CatalogPath and makes it the live catalog.
// A file that fails to parse leaves the current catalog in place.
func (a *App) ReloadCatalog(ctx context.Context) error {
	c, err := catalog.LoadFile(a.Config.CatalogPath)
	if err != nil {
		return fmt.Errorf("codebuddy: %w", err)
	}
	if err := a.Catalog.Replace(ctx, c); err != nil {
		return fmt.Errorf("codebuddy: store catalog: %w", err)
	}
	a.Logger.Info("catalog loaded", zap.String("path", a.Config.CatalogPath), zap.Int("challenges", len(c.Challenges)))
	return nil
}

func (a *App) defaultProvider() identity.Provider {
	callback := BuildURL(a.Config.URL, "auth", "google", "callback")
	if a.Config.Google.ClientID != "" {
		return identity.NewGoogle(a.Config.Google.ClientID, a.Config.Google.ClientSecret, callback)
	}
	a.Logger.Warn("google client id not set, using simulated sign-in")
	return identity.NewSimulated(callback, 500*time.Millisecond)
}

// Start initializes the app and serves until ctx is cancelled, then shuts
// down gracefully.
func (a *App) Start(ctx context.Context) error {
	if err := a.Init(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("listening", zap.String("addr", a.Config.Addr), zap.String("url", a.Config.URL))
		if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("codebuddy: shutdown: %w", err)
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Framework assets (site.css, site.js) are served from the embedded FS;
	// anything else under /public/ falls through to the static dir.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := echo.WrapHandler(http.StripPrefix("/public/", http.FileServer(http.FS(embeddedFS))))
	e.GET("/public/site.css", embeddedHandler)
	e.GET("/public/site.js", embeddedHandler)
	e.GET("/public/code.css", a.handleCodeCSS)

	e.Static("/public", a.staticDir)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	e.GET("/", a.handleLanding)
	e.GET("/practice/", a.handlePractice)
	e.POST("/practice/:slug/solve/", a.handleSolveChallenge, requireUser)
	e.GET("/projects/", a.handleProjects)
	e.POST("/projects/:slug/complete/", a.handleCompleteProject, requireUser)
	e.GET("/learn/", a.handleLearn)
	e.GET("/learn/lessons/:slug/", a.handleLesson)
	e.POST("/learn/lessons/:slug/complete/", a.handleCompleteLesson, requireUser)
	e.GET("/roadmap/", a.handleRoadmap)
	e.GET("/contact/", a.handleContact)
	e.POST("/contact/", a.handleContactSubmit)

	e.GET("/dashboard/", a.handleDashboard, requireUser)
	e.POST("/dashboard/avatar/", a.handleAvatarUpload, requireUser)

	e.GET("/login/", a.handleLogin)
	e.POST("/login/", a.handleLoginSubmit)
	e.POST("/login/otp/send/", a.handleOTPSend)
	e.POST("/login/otp/verify/", a.handleOTPVerify)
	e.GET("/signup/", a.handleSignup)
	e.POST("/signup/", a.handleSignupSubmit)
	e.GET("/auth/:provider/", a.handleProviderStart)
	e.GET("/auth/:provider/callback/", a.handleProviderCallback)
	e.POST("/logout/", a.handleLogout)

	e.POST("/api/chat", a.handleChat)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.loginLimiter != nil {
		a.loginLimiter.Close()
	}
	if a.otpLimiter != nil {
		a.otpLimiter.Close()
	}
	var errs []error
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	if a.Progress != nil {
		errs = append(errs, a.Progress.Close())
	}
	return errors.Join(errs...)
}

func (a *App) handleCodeCSS(c echo.Context) error {
	css, err := content.CSS()
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "text/css; charset=utf-8", []byte(css))
}
