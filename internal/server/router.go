package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type DocumentHandler interface {
	Submit(w http.ResponseWriter, r *http.Request)
}

type OrderQueryHandler interface {
	HandleListOrders(w http.ResponseWriter, r *http.Request)
	HandleGetOrder(w http.ResponseWriter, r *http.Request)
	HandleSearchOrders(w http.ResponseWriter, r *http.Request)
	HandleExportOrders(w http.ResponseWriter, r *http.Request)
}

func NewRouter(documents DocumentHandler, orders OrderQueryHandler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", handleHealth)

	r.Post("/documents", documents.Submit)

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", orders.HandleListOrders)
		r.Get("/export", orders.HandleExportOrders)
		r.Post("/search", orders.HandleSearchOrders)
		r.Get("/{poNumber}", orders.HandleGetOrder)
	})

	return r
}

// RequestLogger logs method, path, status and duration for every request.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("uri", r.URL.RequestURI()),
				zap.String("addr", r.RemoteAddr),
				zap.String("requestId", middleware.GetReqID(r.Context())),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
