// Package grpc serves the identity and data services over gRPC. Messages
// are google.protobuf.Struct values decoded into the rpc message types, so
// the service descriptors are written by hand instead of generated.
package grpc

import (
	"context"
	"encoding/json"
	"net"
	"sync"

	"github.com/dmitrijs2005/restaurant/internal/logging"
	"github.com/dmitrijs2005/restaurant/internal/server/changefeed"
	"github.com/dmitrijs2005/restaurant/internal/server/metrics"
	"github.com/dmitrijs2005/restaurant/internal/server/models"
	"github.com/dmitrijs2005/restaurant/internal/server/services"
	"google.golang.org/grpc"
)

type IdentityService interface {
	SignUp(ctx context.Context, email, password, displayName string) (*services.Session, error)
	SignIn(ctx context.Context, email, password string) (*services.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*services.Session, error)
	SignOut(ctx context.Context, refreshToken string) error
	Authenticate(accessToken string) (string, error)
}

type DataService interface {
	UpsertUser(ctx context.Context, uid string, profile models.User) (string, error)
	Create(ctx context.Context, collection string, record json.RawMessage) (string, error)
	Upsert(ctx context.Context, collection string, record json.RawMessage) (string, error)
	List(ctx context.Context, collection string) (any, error)
	Subscribe(collection string) (*changefeed.Subscription, error)
}

type GRPCServer struct {
	address  string
	identity IdentityService
	data     DataService
	metrics  *metrics.Metrics
	logger   logging.Logger

	// stopping is closed when the server begins to shut down so that
	// open Watch streams return and GracefulStop can complete.
	stopping chan struct{}
	stopOnce sync.Once
}

func NewGRPCServer(a string, l logging.Logger, identity IdentityService, data DataService, m *metrics.Metrics) *GRPCServer {
	return &GRPCServer{
		address:  a,
		identity: identity,
		data:     data,
		metrics:  m,
		logger:   l.With("module", "grpc_server"),
		stopping: make(chan struct{}),
	}
}

// NewServer builds a grpc.Server with both services and the metrics and
// access-token interceptors registered.
func (s *GRPCServer) NewServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.metrics.UnaryInterceptor, s.accessTokenInterceptor),
		grpc.ChainStreamInterceptor(s.metrics.StreamInterceptor, s.streamAccessTokenInterceptor),
	)
	srv.RegisterService(&identityServiceDesc, s)
	srv.RegisterService(&dataServiceDesc, s)
	return srv
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled, then stops
// gracefully. Open Watch streams end with Unavailable.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.NewServer()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.stopOnce.Do(func() { close(s.stopping) })
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	<-stopped
	return nil
}
