package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

func withLogging(h http.Handler) http.Handler {
	logFn := func(rw http.ResponseWriter, r *http.Request) {
		start := time.Now()

		uri := r.RequestURI
		method := r.Method
		ww := middleware.NewWrapResponseWriter(rw, r.ProtoMajor)
		h.ServeHTTP(ww, r)

		log.WithFields(log.Fields{
			"uri":      uri,
			"method":   method,
			"status":   ww.Status(),
			"request":  middleware.GetReqID(r.Context()),
			"duration": time.Since(start),
		}).Info()
	}
	return http.HandlerFunc(logFn)
}
