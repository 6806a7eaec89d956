package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/rbright/textpolish/internal/polish"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// RequestIDHeader is the response header carrying the per-RPC request id.
const RequestIDHeader = "x-request-id"

// Server hosts the Polisher and standard health services.
type Server struct {
	engine *polish.Engine
	logger *slog.Logger

	grpc   *grpc.Server
	health *health.Server
}

// New builds a server around a shared engine. logger may be nil.
func New(engine *polish.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{engine: engine, logger: logger, health: health.NewServer()}
	s.grpc = grpc.NewServer(grpc.ChainUnaryInterceptor(s.logUnary))

	RegisterPolisherServer(s.grpc, s)
	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return s
}

// Polish implements PolisherServer.
func (s *Server) Polish(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	text, hint, err := parsePolishRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	result, err := s.engine.Run(text, hint)
	if err != nil {
		if errors.Is(err, polish.ErrUnknownLanguage) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resultToStruct(result), nil
}

// Serve accepts connections on lis until ctx is done, then drains in-flight
// RPCs and marks health NOT_SERVING.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.grpc.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve grpc: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.health.Shutdown()
		s.grpc.GracefulStop()
		return nil
	})

	s.logger.Info("polish server listening", "address", lis.Addr().String())
	err := g.Wait()
	s.logger.Info("polish server stopped", "address", lis.Addr().String())
	return err
}

// logUnary records one log line per RPC and echoes the request id to the caller.
func (s *Server) logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	requestID := uuid.NewString()
	_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, requestID))

	started := time.Now()
	resp, err := handler(ctx, req)

	level := slog.LevelInfo
	fields := []any{
		"request_id", requestID,
		"method", info.FullMethod,
		"duration_ms", time.Since(started).Milliseconds(),
		"code", status.Code(err).String(),
	}
	if err != nil {
		level = slog.LevelWarn
		fields = append(fields, "error", err.Error())
	}
	s.logger.Log(ctx, level, "rpc complete", fields...)
	return resp, err
}
