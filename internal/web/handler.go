// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UserPortal Contributors

// Package web exposes the auth service over HTTP.
package web

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/userportal/userportal/internal/auth"
)

// Redirect targets after successful form submissions.
const (
	PathRegisterSuccess = "/reg_success.html"
	PathLoginSuccess    = "/log_success.html"
	PathEditSuccess     = "/edit_success.html"
	PathIndex           = "/index.html"
	PathLogin           = "/login.html"
)

// maxFormBytes bounds the size of a submitted form.
const maxFormBytes = 64 << 10

//go:embed templates/*.html
var templatesFS embed.FS

// AuthService is the subset of auth.Service used by the handlers.
type AuthService interface {
	Register(ctx context.Context, form auth.RegistrationForm) (*auth.User, error)
	Login(ctx context.Context, form auth.LoginForm) (*auth.Session, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*auth.Session, error)
	GetProfile(ctx context.Context, userID ulid.ULID) (*auth.Profile, error)
	UpdateProfile(ctx context.Context, token string, form auth.ProfileForm) error
}

// Recorder receives request and auth metrics. *observability.Metrics implements it.
type Recorder interface {
	ObserveRequest(route, method string, status int, elapsed time.Duration)
	RecordAuthEvent(operation, outcome string)
}

// Options configures a Handler.
type Options struct {
	// StaticDir holds the static pages. Empty disables static serving.
	StaticDir string
	// RequireCaptcha enforces captcha_answer == captcha_sum on registration.
	RequireCaptcha bool
	// SecureCookie sets the Secure attribute on the session cookie.
	SecureCookie bool
	// CookieMaxAge is the session cookie lifetime. Zero yields a browser-session cookie.
	CookieMaxAge time.Duration
	Logger       *slog.Logger
	Metrics      Recorder
}

// Handler serves the registration, login and profile endpoints.
type Handler struct {
	svc      AuthService
	opts     Options
	logger   *slog.Logger
	editPage *template.Template
}

// NewHandler creates a Handler.
func NewHandler(svc AuthService, opts Options) (*Handler, error) {
	if svc == nil {
		return nil, oops.Code("WEB_INVALID_CONFIG").Errorf("auth service is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	editPage, err := template.ParseFS(templatesFS, "templates/edit.html")
	if err != nil {
		return nil, oops.Code("WEB_TEMPLATE_FAILED").With("template", "edit.html").Wrap(err)
	}

	return &Handler{
		svc:      svc,
		opts:     opts,
		logger:   logger,
		editPage: editPage,
	}, nil
}

// Routes returns the chi router with all middleware and routes mounted.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogging(h.logger))
	r.Use(requestMetrics(h.opts.Metrics))
	r.Use(chimiddleware.Recoverer)

	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)

	r.Get("/edit", h.handleEditPage)
	r.Get("/edit.html", h.handleEditPage)
	r.Post("/edit", h.handleEdit)

	r.Get("/profile", h.handleProfile)

	r.Get("/*", h.staticHandler())
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})
	// Wrong-method requests are reported as missing, not 405.
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "Not found", http.StatusNotFound)
	})

	return r
}

func (h *Handler) staticHandler() http.HandlerFunc {
	if h.opts.StaticDir == "" {
		return func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "Not Found", http.StatusNotFound)
		}
	}
	fs := http.FileServer(http.Dir(h.opts.StaticDir))
	return fs.ServeHTTP
}
