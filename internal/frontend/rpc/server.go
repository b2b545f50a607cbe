package rpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/cory-johannsen/treasurehunt/internal/config"
	"github.com/cory-johannsen/treasurehunt/internal/gateway"
)

// Service implements HuntServer on top of a gateway.Dispatcher.
type Service struct {
	dispatcher *gateway.Dispatcher
	logger     *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService creates a Service.
//
// Precondition: dispatcher and logger must be non-nil.
func NewService(dispatcher *gateway.Dispatcher, logger *zap.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{dispatcher: dispatcher, logger: logger, ctx: ctx, cancel: cancel}
}

// Play admits the caller, streams its events, and forwards its intents
// until the client half-closes, the stream breaks, or the service stops.
func (s *Service) Play(stream PlayServerStream) error {
	s.wg.Add(1)
	defer s.wg.Done()

	ctx, cancel := context.WithCancel(stream.Context())
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	id, ent, err := s.dispatcher.Connect(ctx)
	if err != nil {
		return status.Errorf(codes.Unavailable, "admitting player: %v", err)
	}
	log := s.logger.With(zap.String("conn", id))
	log.Info("grpc stream connected")

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		broken := false
		for evt := range ent.Events() {
			if broken {
				continue
			}
			msg, err := EncodeEvent(evt)
			if err != nil {
				log.Warn("encoding event", zap.String("event", evt.Name), zap.Error(err))
				continue
			}
			if err := stream.Send(msg); err != nil {
				log.Debug("grpc send failed", zap.Error(err))
				broken = true
			}
		}
	}()

	recvErr := make(chan error, 1)
	go func() { recvErr <- s.recvLoop(id, stream) }()

	select {
	case err = <-recvErr:
	case <-ctx.Done():
		err = ctx.Err()
	}

	s.dispatcher.Disconnect(id)
	<-writerDone
	log.Info("grpc stream closed", zap.Error(err))

	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, "stream closed")
	}
	return err
}

func (s *Service) recvLoop(id string, stream PlayServerStream) error {
	for {
		msg, err := stream.Recv()
		if err != nil {
			return err
		}
		in, err := DecodeIntent(msg)
		if err != nil {
			_ = s.dispatcher.Reject(id, err)
			continue
		}
		if err := s.dispatcher.Handle(id, in); err != nil {
			s.logger.Debug("intent failed", zap.String("conn", id), zap.Error(err))
		}
	}
}

// Close ends every open stream and waits for their handlers.
func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
}

// Server owns the grpc.Server hosting the Hunt and health services.
type Server struct {
	cfg     config.GRPCConfig
	service *Service
	health  *health.Server
	grpc    *grpc.Server
	logger  *zap.Logger
}

// NewServer creates a Server with both services registered.
//
// Precondition: service and logger must be non-nil.
func NewServer(cfg config.GRPCConfig, service *Service, logger *zap.Logger) *Server {
	gs := grpc.NewServer()
	RegisterHuntServer(gs, service)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(gs, hs)

	return &Server{cfg: cfg, service: service, health: hs, grpc: gs, logger: logger}
}

// ListenAndServe listens on cfg.Addr() and serves until Stop.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(ln)
}

// Serve serves on ln until Stop.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("grpc server listening", zap.String("addr", ln.Addr().String()))
	if err := s.grpc.Serve(ln); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serving grpc: %w", err)
	}
	return nil
}

// Stop marks the service not serving, ends open streams, and stops gracefully.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.service.Close()
	s.grpc.GracefulStop()
	s.logger.Info("grpc server stopped")
}
