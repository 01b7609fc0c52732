package grpc

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/restaurant/internal/common"
	"github.com/dmitrijs2005/restaurant/internal/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const userIDKey ctxKey = "userID"

var errMissingToken = status.Error(codes.Unauthenticated, "missing access token")

func userIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

func accessToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(common.AccessTokenHeaderName)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// authenticate resolves the caller for data methods. A request without a
// token passes with no user; handlers decide whether the collection it
// reads is public. A token that is present must be valid.
func (s *GRPCServer) authenticate(ctx context.Context, method string) (context.Context, error) {
	if !strings.HasPrefix(method, "/"+rpc.DataService+"/") {
		return ctx, nil
	}

	token := accessToken(ctx)
	if token == "" {
		return ctx, nil
	}

	userID, err := s.identity.Authenticate(token)
	if err != nil {
		return nil, s.toStatus(ctx, method, err)
	}
	return context.WithValue(ctx, userIDKey, userID), nil
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	ctx, err := s.authenticate(ctx, info.FullMethod)
	if err != nil {
		return nil, err
	}
	return handler(ctx, req)
}

type authenticatedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (a *authenticatedStream) Context() context.Context { return a.ctx }

func (s *GRPCServer) streamAccessTokenInterceptor(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	ctx, err := s.authenticate(ss.Context(), info.FullMethod)
	if err != nil {
		return err
	}
	return handler(srv, &authenticatedStream{ServerStream: ss, ctx: ctx})
}

// requireUser returns the authenticated caller or an Unauthenticated status.
func requireUser(ctx context.Context) (string, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return "", errMissingToken
	}
	return userID, nil
}

// canRead reports whether the caller may read collection.
func canRead(ctx context.Context, collection string) error {
	if rpc.Public(collection) {
		return nil
	}
	_, err := requireUser(ctx)
	return err
}
