package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicDomainRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/leagues", handler.ListLeagues)
	mux.HandleFunc("GET /v1/matches", handler.ListUpcomingMatches)
	mux.HandleFunc("GET /v1/matches/all", handler.ListAllMatches)
	mux.HandleFunc("GET /v1/matches/live", handler.ListLiveMatches)
	mux.HandleFunc("GET /v1/matches/by-league", handler.ListMatchesByLeague)
	mux.HandleFunc("GET /v1/matches/{matchID}", handler.GetMatch)
	mux.HandleFunc("GET /v1/matches/{matchID}/stream-sources", handler.ListMatchStreamSources)
	mux.HandleFunc("GET /v1/stream-sources", handler.ListAllStreamSources)
	mux.HandleFunc("POST /v1/matches", handler.CreateMatch)
	mux.HandleFunc("POST /v1/matches/{matchID}/crawl", handler.TriggerCrawl)
	mux.HandleFunc("PUT /v1/matches/{matchID}", handler.UpdateMatch)
	mux.HandleFunc("DELETE /v1/matches/{matchID}", handler.DeleteMatch)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/ingest", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunIngestJob)))
	mux.Handle("POST /v1/internal/jobs/promote-live", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunPromoteLiveJob)))
	mux.Handle("POST /v1/internal/jobs/crawl-live", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunCrawlLiveJob)))
	mux.Handle("POST /v1/internal/jobs/gc", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunGCJob)))
}
