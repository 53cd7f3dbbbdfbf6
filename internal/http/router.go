package http

import (
	"net/http"
)

// RouterConfig wires handlers into the mux. Nil handlers leave their routes unregistered.
type RouterConfig struct {
	Auth           *AuthHandler
	Users          *UserHandler
	Badges         *BadgeHandler
	Sparks         *SparkHandler
	Events         *EventsHandler
	Analytics      *AnalyticsHandler
	RequireSession func(http.Handler) http.Handler
	Middleware     []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	protect := cfg.RequireSession
	if protect == nil {
		protect = func(next http.Handler) http.Handler { return next }
	}
	private := func(h http.HandlerFunc) http.Handler { return protect(h) }

	mux.HandleFunc("GET /healthz", Health)

	if cfg.Auth != nil {
		mux.HandleFunc("POST /register", cfg.Auth.Register)
		mux.HandleFunc("POST /login", cfg.Auth.Login)
		mux.Handle("POST /logout", private(cfg.Auth.Logout))
	}

	if cfg.Users != nil {
		mux.HandleFunc("GET /users", cfg.Users.List)
		mux.HandleFunc("GET /users/{id}", cfg.Users.Get)
		mux.Handle("GET /me", private(cfg.Users.Me))
		mux.Handle("PATCH /me", private(cfg.Users.UpdateMe))
	}

	if cfg.Badges != nil {
		mux.HandleFunc("GET /badges", cfg.Badges.List)
		mux.Handle("POST /badges", private(cfg.Badges.Create))
		mux.Handle("PATCH /badges/{id}", private(cfg.Badges.Update))
		mux.Handle("DELETE /badges/{id}", private(cfg.Badges.Delete))
		mux.Handle("POST /assign", private(cfg.Badges.Assign))
		mux.Handle("POST /revoke", private(cfg.Badges.Revoke))
	}

	if cfg.Sparks != nil {
		mux.HandleFunc("GET /sparks", cfg.Sparks.List)
		mux.HandleFunc("GET /sparks/calendar", cfg.Sparks.Calendar)
		mux.Handle("POST /sparks", private(cfg.Sparks.Create))
		mux.Handle("DELETE /sparks", private(cfg.Sparks.Delete))
	}

	if cfg.Events != nil {
		mux.HandleFunc("GET /sparks/events", cfg.Events.Stream)
	}

	if cfg.Analytics != nil {
		mux.Handle("GET /admin/analytics", private(cfg.Analytics.Dashboard))
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	return handler
}
