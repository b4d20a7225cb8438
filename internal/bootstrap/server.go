package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Domenick1991/ridepay/api"
	"github.com/Domenick1991/ridepay/config"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const healthCheckInterval = 15 * time.Second

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

type Servers struct {
	grpcServer *grpc.Server
	httpServer *http.Server
	health     *health.Server
	conn       *grpc.ClientConn
	checks     map[string]Check
	log        *logrus.Logger
}

// Run starts the gRPC health server and the HTTP API and blocks until ctx is
// canceled or a server fails. /healthz on the HTTP side is served by a
// grpc-gateway mux calling the health service.
func Run(ctx context.Context, cfg *config.Config, log *logrus.Logger, routes api.RouterConfig, checks map[string]Check) error {
	s, err := newServers(cfg, log, routes, checks)
	if err != nil {
		return err
	}
	defer s.conn.Close()

	errCh := make(chan error, 2)

	lis, err := net.Listen("tcp", cfg.GRPC.Address)
	if err != nil {
		return fmt.Errorf("listen gRPC %s: %w", cfg.GRPC.Address, err)
	}
	go func() { errCh <- s.grpcServer.Serve(lis) }()

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	log.WithFields(logrus.Fields{"http": cfg.HTTP.Address, "grpc": cfg.GRPC.Address}).Info("servers started")

	go s.watchHealth(ctx)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		s.health.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.grpcServer.GracefulStop()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newServers(cfg *config.Config, log *logrus.Logger, routes api.RouterConfig, checks map[string]Check) (*Servers, error) {
	grpcSrv := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)

	conn, err := grpc.NewClient(dialAddress(cfg.GRPC.Address), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial health service: %w", err)
	}
	routes.Health = runtime.NewServeMux(runtime.WithHealthzEndpoint(healthpb.NewHealthClient(conn)))

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           api.NewRouter(log, routes),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Servers{
		grpcServer: grpcSrv,
		httpServer: httpSrv,
		health:     healthSrv,
		conn:       conn,
		checks:     checks,
		log:        log,
	}, nil
}

func (s *Servers) watchHealth(ctx context.Context) {
	s.updateHealth(ctx)
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.updateHealth(ctx)
		}
	}
}

// updateHealth runs every check and publishes the overall status under the
// empty service name, plus one status per named dependency.
func (s *Servers) updateHealth(ctx context.Context) {
	overall := healthpb.HealthCheckResponse_SERVING
	for name, check := range s.checks {
		checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := check(checkCtx)
		cancel()

		status := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			overall = status
			s.log.WithError(err).WithField("dependency", name).Warn("health check failed")
		}
		s.health.SetServingStatus(name, status)
	}
	s.health.SetServingStatus("", overall)
}

// dialAddress turns a listen address such as ":9090" into one a client can dial.
func dialAddress(listen string) string {
	if strings.HasPrefix(listen, ":") {
		return "localhost" + listen
	}
	return listen
}
