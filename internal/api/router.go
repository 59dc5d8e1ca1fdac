package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"text-palette/internal/config"
	"text-palette/internal/service"
	"text-palette/internal/storage"
	"text-palette/internal/ws"
)

func NewRouter(
	cfg config.Config,
	store *storage.Store,
	hub *ws.Hub,
	devices *ws.DeviceHub,
	paletteSvc *service.PaletteService,
) http.Handler {
	h := &Handler{
		cfg:        cfg,
		store:      store,
		hub:        hub,
		devices:    devices,
		paletteSvc: paletteSvc,
		validate:   newRequestValidator(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Healthz)
	r.Get("/v1/ws", h.WebSocket)
	r.Get("/v1/devices/ws", h.DeviceWebSocket)

	r.Group(func(r chi.Router) {
		if cfg.MaxUploadSizeBytes > 0 {
			r.Use(limitBody(cfg.MaxUploadSizeBytes))
		}
		if cfg.RateLimitRPS > 0 && cfg.RateLimitBurst > 0 {
			r.Use(newKeyedLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).Middleware)
		}
		r.Get("/v1/strategies", h.Strategies)
		r.Post("/v1/palettes", h.GeneratePalettes)
		r.Post("/v1/palettes/batch", h.GenerateBatch)
		r.Get("/v1/messages", h.ListMessages)
		r.Post("/v1/messages", h.SaveMessage)
		r.Delete("/v1/messages/{id}", h.DeleteMessage)
		r.Post("/v1/messages/{id}/palettes", h.GenerateFromMessage)
		r.Get("/v1/devices/{id}/latest", h.LatestDeviceEnvelope)
	})

	return r
}

func limitBody(maxSize int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxSize)
			next.ServeHTTP(w, r)
		})
	}
}
