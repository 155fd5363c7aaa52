package app

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/Raimguhinov/linkal/internal/config"
)

var defaultCORSMethods = []string{
	http.MethodGet, http.MethodHead, http.MethodOptions,
	"PROPFIND", "PROPPATCH", "REPORT",
}

var defaultCORSHeaders = []string{"Authorization", "Content-Type", "Depth", "If-None-Match"}

func corsMiddleware(c config.HTTP) func(http.Handler) http.Handler {
	methods := c.CORS.AllowedMethods
	if len(methods) == 0 {
		methods = defaultCORSMethods
	}
	headers := c.CORS.AllowedHeaders
	if len(headers) == 0 {
		headers = defaultCORSHeaders
	}
	exposed := c.CORS.ExposedHeaders
	if len(exposed) == 0 {
		exposed = []string{"DAV", "ETag"}
	}

	return cors.New(cors.Options{
		AllowedOrigins:     c.CORS.AllowedOrigins,
		AllowedMethods:     methods,
		AllowedHeaders:     headers,
		ExposedHeaders:     exposed,
		AllowCredentials:   c.CORS.AllowCredentials,
		OptionsPassthrough: c.CORS.OptionsPassthrough,
		Debug:              c.CORS.Debug,
	}).Handler
}
