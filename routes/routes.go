package routes

import (
	"net/http"

	"github.com/fedeportes/torneo-engine/handlers"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func SetupRoutes(
	router *chi.Mux,
	allowedOrigins []string,
	bracketHandler *handlers.BracketHandler,
	standingsHandler *handlers.StandingsHandler,
	seriesHandler *handlers.SeriesHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Route("/phases/{phaseID}", func(r chi.Router) {
		r.Post("/bracket", bracketHandler.BuildBracketHandler)
		r.Get("/bracket", bracketHandler.GetBracketStructureHandler)
		r.Get("/bracket/complete", bracketHandler.IsCompleteHandler)
		r.Get("/champion", bracketHandler.GetChampionHandler)
		r.Get("/third-place", bracketHandler.GetThirdPlaceHandler)
		r.Post("/byes/process", bracketHandler.ProcessByesHandler)

		r.Post("/round-robin", standingsHandler.InitRoundRobinHandler)
		r.Get("/standings", standingsHandler.ListStandingsHandler)
		r.Post("/standings/recompute", standingsHandler.RecomputeStandingsHandler)
		r.Put("/standings/{registrationRef}/manual-rank", standingsHandler.SetManualRankHandler)
		r.Delete("/standings/manual-ranks", standingsHandler.ClearManualRanksHandler)

		r.Post("/series", seriesHandler.InitSeriesHandler)
	})

	router.Route("/matches/{matchID}", func(r chi.Router) {
		r.Post("/advance", bracketHandler.AdvanceWinnerHandler)
		r.Post("/series-result", seriesHandler.RecordSeriesResultHandler)
	})

	router.Get("/ws/phases/{phaseID}", webSocketHandler.ServeWs)
}
