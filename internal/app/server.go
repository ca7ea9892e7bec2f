package app

import (
	"fmt"
	"net/http"

	"github.com/riskibarqy/venue-insights/internal/interfaces/httpapi"
)

func NewHTTPServer(c *Container) (*http.Server, error) {
	cfg := c.Config
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	handler := httpapi.NewHandler(c.Performance, c.Archive, c, c.Logger)
	router := httpapi.NewRouter(handler, c.Logger, cfg.SwaggerEnabled, cfg.CORSAllowedOrigins)

	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}, nil
}
