package web

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/kodustech/activity-tracker/internal/config"
	"github.com/kodustech/activity-tracker/internal/engine"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Server struct {
	config  *config.Config
	handler *Handler
	server  *http.Server
}

func NewServer(cfg *config.Config, e *engine.Engine, sampler Sampler) *Server {
	handler := NewHandler(cfg, e, sampler)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      NewRouter(handler),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		config:  cfg,
		handler: handler,
		server:  httpServer,
	}
}

// NewRouter builds the gin engine. Only browser pages served from the
// loopback interface may call the API cross-origin.
func NewRouter(handler *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.SetTrustedProxies(nil)

	r.Use(cors.New(cors.Config{
		AllowOriginFunc: isLoopbackOrigin,
		AllowMethods: []string{
			"GET", "POST", "PUT", "DELETE", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept",
		},
		MaxAge: 12 * time.Hour,
	}))

	handler.SetupRoutes(r)
	return r
}

func isLoopbackOrigin(origin string) bool {
	for _, prefix := range []string{"http://localhost", "http://127.0.0.1", "http://[::1]"} {
		if origin == prefix || (len(origin) > len(prefix) && origin[:len(prefix)] == prefix && origin[len(prefix)] == ':') {
			return true
		}
	}
	return false
}

// Start listens until Shutdown; http.ErrServerClosed is reported as nil.
func (s *Server) Start() error {
	log.Printf("Starting web server on http://%s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")
	return s.server.Shutdown(ctx)
}

func (s *Server) GetAddress() string {
	return s.server.Addr
}
