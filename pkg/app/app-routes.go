package app

import "net/http"

// initRouter initializes the router of the App
func (s *App) initRouter() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/buckets", s.BucketsHandler).Methods(http.MethodGet)
	api.HandleFunc("/buckets/{bucket}/entries", s.EntriesHandler).Methods(http.MethodGet)
	api.HandleFunc("/downloads", s.StartDownloadHandler).Methods(http.MethodPost)
	api.HandleFunc("/downloads/current", s.CurrentDownloadHandler).Methods(http.MethodGet)
	api.HandleFunc("/downloads/current/cancel", s.CancelDownloadHandler).Methods(http.MethodPost)
	s.router.HandleFunc("/health", s.HealthCheckHandler).Methods(http.MethodGet)
	s.srv.Handler = s.router
}
