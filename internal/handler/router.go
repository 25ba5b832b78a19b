/*
Package handler provides the HTTP handlers and routing setup for the MiniMessenger server.

This file defines the main Router, applying logging, CORS, and IP-based rate
limiting middleware before delegating to the API and WebSocket handlers.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"minimessenger/internal/pkg/auth/jwt"
	"minimessenger/internal/pkg/limiter"
	"minimessenger/internal/pkg/logx"
	"minimessenger/internal/pkg/resp"
)

const (
	AuthRate    = 0.2
	AuthBurst   = 5
	WSRate      = 0.5
	WSBurst     = 5
	UploadRate  = 0.2
	UploadBurst = 3
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// It initializes IP-based rate limiters, configures CORS, and applies global
// and per-route middleware before mounting the API and WebSocket surfaces.
func Router(deps *AppDeps) http.Handler {
	authLimiter := limiter.NewIPRateLimiter(rate.Limit(AuthRate), AuthBurst)
	wsLimiter := limiter.NewIPRateLimiter(rate.Limit(WSRate), WSBurst)
	uploadLimiter := limiter.NewIPRateLimiter(rate.Limit(UploadRate), UploadBurst)

	r := chi.NewRouter()

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		logx.Info("Health check endpoint hit")

		data := map[string]string{
			"status":  "ok",
			"service": "MiniMessenger Server",
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(jwt.IdentityExtractorMiddleware(deps.Config.JWTSecret))

		api.Route("/auth", func(auth chi.Router) {
			auth.Use(authLimiter.Middleware)
			auth.Post("/register", HandleRegister(deps))
			auth.Post("/login", HandleLogin(deps))
		})

		api.Route("/user", func(user chi.Router) {
			user.Get("/profile", HandleGetProfile(deps))
			user.Post("/avatar", HandleUpdateAvatar(deps))
			user.Delete("/account", HandleDeleteAccount(deps))
		})

		api.Route("/servers", func(servers chi.Router) {
			servers.Post("/", HandleCreateServer(deps))
			servers.Get("/", HandleMyServers(deps))
			servers.Get("/info", HandleServerInfo(deps))
			servers.Post("/invite", HandleCreateInvite(deps))
			servers.Post("/join", HandleJoinServer(deps))
		})

		api.Route("/groups", func(groups chi.Router) {
			groups.Post("/", HandleCreateGroup(deps))
			groups.Post("/remove-member", HandleRemoveGroupMember(deps))
		})

		api.Route("/friends", func(friends chi.Router) {
			friends.Post("/request", HandleFriendRequest(deps))
			friends.Post("/respond", HandleFriendRespond(deps))
			friends.Get("/", HandleFriendList(deps))
		})

		api.Get("/conversations", HandleConversations(deps))
		api.Get("/history", HandleHistory(deps))

		rateLimitedUpload := uploadLimiter.Middleware(HandleUpload(deps))
		api.Post("/file/upload", rateLimitedUpload.ServeHTTP)
		api.Get("/file/presign-download", HandlePresignDownload(deps))
	})

	rateLimitedWS := wsLimiter.Middleware(HandleWS(deps))
	r.Get("/ws", rateLimitedWS.ServeHTTP)

	return r
}
