package main

import (
	"net/http"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"glyphAPI/handlers"
	"glyphAPI/middleware"
)

func (a *app) router(limiter *middleware.RateLimiter) http.Handler {
	glyphHandler := handlers.NewGlyphHandler(
		a.glyphService, a.discoveryService, a.photoService, a.shareService, a.cfg.SearchRadiusMeters,
	)
	discoveryHandler := handlers.NewDiscoveryHandler(a.discoveryService)
	streakHandler := handlers.NewStreakHandler(a.streakService)
	interactionHandler := handlers.NewInteractionHandler(a.interactionService)
	webhookHandler := handlers.NewWebhookHandler(a.userService, a.cfg.ClerkWebhookSecret)
	userHandler := handlers.NewUserHandler(a.userService)
	healthHandler := handlers.NewHealthHandler(a.store)

	r := mux.NewRouter()
	r.Use(middleware.MonitorMiddleware)
	r.NotFoundHandler = middleware.MonitorMiddleware(http.NotFoundHandler())

	r.Handle("/metrics", middleware.BasicAuthMiddleware(a.cfg.MetricsUser, a.cfg.MetricsPass)(promhttp.Handler()))
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(a.cfg.PprofSecret)(http.DefaultServeMux))
	r.HandleFunc("/health", healthHandler.Health).Methods("GET")
	r.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")

	api := r.PathPrefix("/api/v1").Subrouter()

	// -------------------------------------------------------------------------
	// PUBLIC ROUTES (AUTH HEADER OPTIONAL)
	// -------------------------------------------------------------------------
	public := api.PathPrefix("").Subrouter()
	public.Use(middleware.OptionalAuthMiddleware)
	public.HandleFunc("/glyphs/{id}/share", glyphHandler.ShareCode).Methods("GET")

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/glyphs/nearby", glyphHandler.Nearby).Methods("GET")
	protected.HandleFunc("/glyphs", glyphHandler.ListGlyphs).Methods("GET")
	protected.HandleFunc("/glyphs", glyphHandler.CreateGlyph).Methods("POST")
	protected.HandleFunc("/glyphs/{id}", glyphHandler.GetGlyph).Methods("GET")
	protected.HandleFunc("/glyphs/{id}", glyphHandler.UpdateGlyph).Methods("PUT")
	protected.HandleFunc("/glyphs/{id}", glyphHandler.DeleteGlyph).Methods("DELETE")
	protected.HandleFunc("/glyphs/{id}/photo", glyphHandler.UploadPhoto).Methods("POST")
	protected.HandleFunc("/glyphs/{id}/photo", glyphHandler.PhotoURL).Methods("GET")
	protected.HandleFunc("/glyphs/{id}/photo", glyphHandler.DeletePhoto).Methods("DELETE")

	protected.HandleFunc("/glyphs/{id}/discover", discoveryHandler.Discover).Methods("POST")
	protected.HandleFunc("/glyphs/{id}/discovered", discoveryHandler.HasDiscovered).Methods("GET")
	protected.HandleFunc("/discoveries", discoveryHandler.ListDiscoveries).Methods("GET")
	protected.HandleFunc("/discoveries/stats", discoveryHandler.Stats).Methods("GET")
	protected.HandleFunc("/discoveries/search", discoveryHandler.Search).Methods("GET")
	protected.HandleFunc("/discoveries/sweep", discoveryHandler.Sweep).Methods("POST")

	protected.HandleFunc("/users/me", userHandler.GetProfile).Methods("GET")

	protected.HandleFunc("/streak", streakHandler.GetStreak).Methods("GET")
	protected.HandleFunc("/streak/achievements", streakHandler.GetAchievements).Methods("GET")

	protected.HandleFunc("/glyphs/{id}/rating", interactionHandler.RateGlyph).Methods("PUT")
	protected.HandleFunc("/glyphs/{id}/rating", interactionHandler.GetRating).Methods("GET")
	protected.HandleFunc("/glyphs/{id}/comments", interactionHandler.ListComments).Methods("GET")
	protected.HandleFunc("/glyphs/{id}/comments", interactionHandler.AddComment).Methods("POST")
	protected.HandleFunc("/comments/{id}", interactionHandler.UpdateComment).Methods("PUT")
	protected.HandleFunc("/comments/{id}", interactionHandler.DeleteComment).Methods("DELETE")

	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins([]string{"*"}),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length"}),
	)
	return corsHandler(limiter.Middleware(r))
}
