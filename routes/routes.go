package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/gameport/arena/handlers"
)

func SetupRoutes(
	router *chi.Mux,
	tournamentHandler *handlers.TournamentHandler,
	chatHandler *handlers.ChatHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/swagger/*", httpSwagger.WrapHandler)

	router.Route("/tournaments/{tournamentID}", func(r chi.Router) {
		r.Get("/data", tournamentHandler.GetDataHandler)
		r.Post("/data/seed", tournamentHandler.SeedHandler)
		r.Post("/autofill", tournamentHandler.AutoFillHandler)
		r.Patch("/matches/{matchID}", tournamentHandler.UpdateMatchHandler)
		r.Patch("/leaderboard/{entryID}", tournamentHandler.UpdateLeaderboardEntryHandler)
		r.Post("/leaderboard/{entryID}/avatar", tournamentHandler.UploadAvatarHandler)
	})

	router.Route("/chats", func(r chi.Router) {
		r.Get("/resolve", chatHandler.ResolveChatHandler)
		r.Get("/{chatID}/messages", chatHandler.ListMessagesHandler)
		r.Post("/{chatID}/messages", chatHandler.SendMessageHandler)
	})

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeTournamentWs)
	router.Get("/ws/chats/{chatID}", webSocketHandler.ServeChatWs)
}
