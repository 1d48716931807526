package apiserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/formweave/extraction-planner/internal/auth"
	"github.com/formweave/extraction-planner/internal/config"
	handlers "github.com/formweave/extraction-planner/internal/handlers/v1alpha1"
	"github.com/formweave/extraction-planner/internal/service"
	"github.com/formweave/extraction-planner/pkg/metrics"
	"github.com/formweave/extraction-planner/pkg/middleware"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
)

type Server struct {
	cfg           *config.Config
	extractionSrv *service.ExtractionService
	taskSrv       *service.TaskService
	listener      net.Listener
}

// New returns a new instance of the extraction API server.
func New(
	cfg *config.Config,
	extractionSrv *service.ExtractionService,
	taskSrv *service.TaskService,
	listener net.Listener,
) *Server {
	return &Server{
		cfg:           cfg,
		extractionSrv: extractionSrv,
		taskSrv:       taskSrv,
		listener:      listener,
	}
}

func (s *Server) Run(ctx context.Context) error {
	zap.S().Named("api_server").Info("Initializing API server")

	authenticator, err := auth.NewAuthenticator(s.cfg.Service.AuthToken)
	if err != nil {
		return err
	}

	router := chi.NewRouter()

	metricMiddleware := metrics.NewMiddleware("api_server")
	metricMiddleware.MustRegisterDefault()

	router.Use(
		metricMiddleware.Handler,
		cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "HEAD", "OPTIONS"},
			AllowedHeaders: []string{"*"},
			MaxAge:         300,
		}),
		middleware.RequestID,
		middleware.Logger(),
		chiMiddleware.Recoverer,
	)

	h := handlers.NewExtractionHandler(s.extractionSrv, s.taskSrv)

	router.Get("/health", h.Health)
	router.Route("/api/v1alpha1", func(r chi.Router) {
		r.Use(authenticator.Authenticator)
		h.RegisterRoutes(r)
	})

	srv := http.Server{Addr: s.cfg.Service.Address, Handler: router}

	go func() {
		<-ctx.Done()
		zap.S().Named("api_server").Infof("Shutdown signal received: %s", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
		zap.S().Named("api_server").Info("api server terminated")
	}()

	zap.S().Named("api_server").Infof("Listening on %s...", s.listener.Addr().String())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}

	return nil
}
