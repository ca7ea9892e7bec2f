package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	mux.HandleFunc("GET /readyz", handler.Readyz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerAnalyticsRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/analytics/venue-performance", handler.GetVenuePerformance)
	mux.HandleFunc("POST /v1/analytics/venue-performance", handler.PostVenuePerformance)
	mux.HandleFunc("GET /v1/analytics/venue-performance/reports", handler.ListReportHistory)
	mux.HandleFunc("GET /v1/analytics/venue-performance/reports/{reportID}", handler.GetArchivedReport)
}
