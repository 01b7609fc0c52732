package grpc

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/restaurant/internal/rpc"
	"github.com/dmitrijs2005/restaurant/internal/server/models"
	"github.com/dmitrijs2005/restaurant/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type identityServer interface {
	SignUp(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SignIn(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Refresh(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SignOut(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type dataServer interface {
	UpsertUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Create(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Upsert(context.Context, *structpb.Struct) (*structpb.Struct, error)
	List(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Watch(*structpb.Struct, grpc.ServerStream) error
}

type unaryMethod func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(srv, ctx, req.(*structpb.Struct))
		})
	}
}

var identityServiceDesc = grpc.ServiceDesc{
	ServiceName: rpc.IdentityService,
	HandlerType: (*identityServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SignUp", Handler: unaryHandler(rpc.MethodSignUp, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(identityServer).SignUp(ctx, in)
		})},
		{MethodName: "SignIn", Handler: unaryHandler(rpc.MethodSignIn, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(identityServer).SignIn(ctx, in)
		})},
		{MethodName: "Refresh", Handler: unaryHandler(rpc.MethodRefresh, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(identityServer).Refresh(ctx, in)
		})},
		{MethodName: "SignOut", Handler: unaryHandler(rpc.MethodSignOut, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(identityServer).SignOut(ctx, in)
		})},
	},
}

var dataServiceDesc = grpc.ServiceDesc{
	ServiceName: rpc.DataService,
	HandlerType: (*dataServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "UpsertUser", Handler: unaryHandler(rpc.MethodUpsertUser, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(dataServer).UpsertUser(ctx, in)
		})},
		{MethodName: "Create", Handler: unaryHandler(rpc.MethodCreate, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(dataServer).Create(ctx, in)
		})},
		{MethodName: "Upsert", Handler: unaryHandler(rpc.MethodUpsert, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(dataServer).Upsert(ctx, in)
		})},
		{MethodName: "List", Handler: unaryHandler(rpc.MethodList, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(dataServer).List(ctx, in)
		})},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName: "Watch",
			Handler: func(srv any, stream grpc.ServerStream) error {
				in := new(structpb.Struct)
				if err := stream.RecvMsg(in); err != nil {
					return err
				}
				return srv.(dataServer).Watch(in, stream)
			},
			ServerStreams: true,
		},
	},
}

func decodeRequest(in *structpb.Struct, v any) error {
	if err := rpc.Decode(in, v); err != nil {
		return status.Errorf(codes.InvalidArgument, "malformed request: %v", err)
	}
	return nil
}

func encodeResponse(v any) (*structpb.Struct, error) {
	out, err := rpc.Encode(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func authResult(session *services.Session) rpc.AuthResult {
	return rpc.AuthResult{
		UID:          session.Account.ID,
		Email:        session.Account.Email,
		DisplayName:  session.Account.DisplayName,
		AccessToken:  session.Tokens.AccessToken,
		RefreshToken: session.Tokens.RefreshToken,
	}
}

func (s *GRPCServer) SignUp(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req rpc.SignUpRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}

	session, err := s.identity.SignUp(ctx, req.Email, req.Password, req.DisplayName)
	if err != nil {
		return nil, s.toStatus(ctx, rpc.MethodSignUp, err)
	}

	return encodeResponse(authResult(session))
}

func (s *GRPCServer) SignIn(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req rpc.SignInRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}

	session, err := s.identity.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, rpc.MethodSignIn, err)
	}

	return encodeResponse(authResult(session))
}

func (s *GRPCServer) Refresh(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req rpc.RefreshRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}

	session, err := s.identity.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return nil, s.toStatus(ctx, rpc.MethodRefresh, err)
	}

	return encodeResponse(authResult(session))
}

func (s *GRPCServer) SignOut(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req rpc.RefreshRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}

	if err := s.identity.SignOut(ctx, req.RefreshToken); err != nil {
		return nil, s.toStatus(ctx, rpc.MethodSignOut, err)
	}

	return encodeResponse(rpc.Empty{})
}

// UpsertUser writes the caller's own profile row, keyed by their uid.
func (s *GRPCServer) UpsertUser(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	var req rpc.UserProfile
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}

	id, err := s.data.UpsertUser(ctx, userID, models.User{Username: req.Username, RoleID: req.RoleID, Email: req.Email})
	if err != nil {
		return nil, s.toStatus(ctx, rpc.MethodUpsertUser, err)
	}

	return encodeResponse(rpc.MutationResult{ID: id})
}

func (s *GRPCServer) Create(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.mutate(ctx, rpc.MethodCreate, in, s.data.Create)
}

func (s *GRPCServer) Upsert(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.mutate(ctx, rpc.MethodUpsert, in, s.data.Upsert)
}

func (s *GRPCServer) mutate(ctx context.Context, method string, in *structpb.Struct, write func(context.Context, string, json.RawMessage) (string, error)) (*structpb.Struct, error) {
	if _, err := requireUser(ctx); err != nil {
		return nil, err
	}

	var req rpc.MutationRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}

	id, err := write(ctx, req.Collection, req.Record)
	if err != nil {
		return nil, s.toStatus(ctx, method, err)
	}

	return encodeResponse(rpc.MutationResult{ID: id})
}

func (s *GRPCServer) snapshot(ctx context.Context, collection string) (*structpb.Struct, error) {
	items, err := s.data.List(ctx, collection)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}

	return rpc.Encode(rpc.Snapshot{Collection: collection, Items: raw})
}

func (s *GRPCServer) List(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req rpc.ListRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	if err := canRead(ctx, req.Collection); err != nil {
		return nil, err
	}

	out, err := s.snapshot(ctx, req.Collection)
	if err != nil {
		return nil, s.toStatus(ctx, rpc.MethodList, err)
	}
	return out, nil
}

// Watch sends a snapshot of the collection straight away and another after
// every change, until the client goes away or the server stops. Changes
// that arrive while a snapshot is being built collapse into one resend.
func (s *GRPCServer) Watch(in *structpb.Struct, stream grpc.ServerStream) error {
	ctx := stream.Context()

	var req rpc.ListRequest
	if err := decodeRequest(in, &req); err != nil {
		return err
	}
	if err := canRead(ctx, req.Collection); err != nil {
		return err
	}

	sub, err := s.data.Subscribe(req.Collection)
	if err != nil {
		return s.toStatus(ctx, rpc.MethodWatch, err)
	}
	defer sub.Close()

	done := s.metrics.WatchStarted(req.Collection)
	defer done()

	send := func() error {
		out, err := s.snapshot(ctx, req.Collection)
		if err != nil {
			return s.toStatus(ctx, rpc.MethodWatch, err)
		}
		if err := stream.SendMsg(out); err != nil {
			return err
		}
		s.metrics.SnapshotSent(req.Collection)
		return nil
	}

	if err := send(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stopping:
			return status.Error(codes.Unavailable, "server is shutting down")
		case <-sub.C:
			if err := send(); err != nil {
				return err
			}
		}
	}
}
