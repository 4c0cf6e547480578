package engine

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cartridge/evaluator/internal/env"
)

// Server exposes local environments over the engine service.
type Server struct {
	mu     sync.Mutex
	envs   map[string]env.Environment
	height int
	width  int
}

// NewServer serves envs, keyed by env id, rendering height x width frames.
func NewServer(envs map[string]env.Environment, height, width int) *Server {
	return &Server{envs: envs, height: height, width: width}
}

// Register adds the engine service to s.
func (s *Server) Register(r grpc.ServiceRegistrar) {
	r.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*any)(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "GetCapabilities", Handler: unary(methodGetCapabilities, s.getCapabilities)},
			{MethodName: "Reset", Handler: unary(methodReset, s.reset)},
			{MethodName: "Step", Handler: unary(methodStep, s.step)},
		},
	}, s)
}

func (s *Server) lookup(req *structpb.Struct) (env.Environment, error) {
	id := req.GetFields()["env_id"].GetStringValue()
	e, ok := s.envs[id]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "unknown environment %q", id)
	}
	return e, nil
}

func (s *Server) getCapabilities(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	e, err := s.lookup(req)
	if err != nil {
		return nil, err
	}
	return structpb.NewStruct(map[string]any{
		"actions": float64(e.ActionSpace().Size()),
		"height":  float64(s.height),
		"width":   float64(s.width),
	})
}

func (s *Server) reset(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	e, err := s.lookup(req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	obs, err := e.Reset(ctx)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{"obs": encodeFrame(obs)}}, nil
}

func (s *Server) step(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	e, err := s.lookup(req)
	if err != nil {
		return nil, err
	}
	action, err := intField(req, "action")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := e.Step(ctx, action)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"obs":    encodeFrame(res.Observation),
		"reward": structpb.NewNumberValue(res.Reward),
		"done":   structpb.NewBoolValue(res.Done),
	}}, nil
}

type handlerFunc func(context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(fullMethod string, h handlerFunc) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := &structpb.Struct{}
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return h(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return h(ctx, req.(*structpb.Struct))
		})
	}
}

// LoggingInterceptor logs gRPC requests
func LoggingInterceptor(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()

		resp, err := handler(ctx, req)

		event := logger.Debug()
		if err != nil {
			event = logger.Warn().Err(err)
		}
		event.Str("method", info.FullMethod).Dur("duration", time.Since(start)).Msg("engine request")

		return resp, err
	}
}
