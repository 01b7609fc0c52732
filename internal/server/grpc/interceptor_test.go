package grpc

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/restaurant/internal/common"
	"github.com/dmitrijs2005/restaurant/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func withToken(token string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs(common.AccessTokenHeaderName, token))
}

func captureUser(seen *string) grpc.UnaryHandler {
	return func(ctx context.Context, req any) (any, error) {
		*seen = userIDFromContext(ctx)
		return "ok", nil
	}
}

func TestInterceptor_IdentityMethodsIgnoreToken(t *testing.T) {
	s, _, _ := newTestServer()

	var seen string
	resp, err := s.accessTokenInterceptor(withToken("garbage"), nil, &grpc.UnaryServerInfo{FullMethod: rpc.MethodSignIn}, captureUser(&seen))
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
	assert.Empty(t, seen)
}

func TestInterceptor_NoTokenPassesWithoutUser(t *testing.T) {
	s, _, _ := newTestServer()

	seen := "unset"
	_, err := s.accessTokenInterceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: rpc.MethodList}, captureUser(&seen))
	require.NoError(t, err)
	assert.Empty(t, seen)
}

func TestInterceptor_ValidTokenSetsUser(t *testing.T) {
	s, _, _ := newTestServer()

	var seen string
	_, err := s.accessTokenInterceptor(withToken("abc"), nil, &grpc.UnaryServerInfo{FullMethod: rpc.MethodCreate}, captureUser(&seen))
	require.NoError(t, err)
	assert.Equal(t, "uid-abc", seen)
}

func TestInterceptor_RejectsBadTokens(t *testing.T) {
	s, _, _ := newTestServer()

	tests := []struct {
		token string
		msg   string
	}{
		{"expired", common.ErrTokenExpired.Error()},
		{"garbage", common.ErrInvalidToken.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			_, err := s.accessTokenInterceptor(withToken(tt.token), nil, &grpc.UnaryServerInfo{FullMethod: rpc.MethodList},
				func(ctx context.Context, req any) (any, error) {
					t.Fatal("handler should not be called")
					return nil, nil
				})
			st, ok := status.FromError(err)
			require.True(t, ok)
			assert.Equal(t, codes.Unauthenticated, st.Code())
			assert.Equal(t, tt.msg, st.Message())
		})
	}
}

type ctxStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (c ctxStream) Context() context.Context { return c.ctx }

func TestStreamInterceptor_PassesUserToHandler(t *testing.T) {
	s, _, _ := newTestServer()

	var seen string
	err := s.streamAccessTokenInterceptor(nil, ctxStream{ctx: withToken("abc")}, &grpc.StreamServerInfo{FullMethod: rpc.MethodWatch},
		func(srv any, ss grpc.ServerStream) error {
			seen = userIDFromContext(ss.Context())
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, "uid-abc", seen)
}

func TestStreamInterceptor_ExpiredToken(t *testing.T) {
	s, _, _ := newTestServer()

	err := s.streamAccessTokenInterceptor(nil, ctxStream{ctx: withToken("expired")}, &grpc.StreamServerInfo{FullMethod: rpc.MethodWatch},
		func(srv any, ss grpc.ServerStream) error {
			t.Fatal("handler should not be called")
			return nil
		})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}
