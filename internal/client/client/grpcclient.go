package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dmitrijs2005/restaurant/internal/common"
	"github.com/dmitrijs2005/restaurant/internal/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	onRefresh    func(rpc.AuthResult)

	// refreshMu serialises token rotation between concurrent calls.
	refreshMu sync.Mutex
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	if token != "" {
		md.Set(common.AccessTokenHeaderName, token)
	}
	return metadata.NewOutgoingContext(ctx, md)
}

func isTokenExpired(err error) bool {
	st, ok := status.FromError(err)
	return ok && st.Code() == codes.Unauthenticated && st.Message() == common.ErrTokenExpired.Error()
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	access, _ := s.Tokens()

	err := invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
	if err == nil || !isTokenExpired(err) {
		return err
	}

	fresh, rerr := s.rotate(ctx, access, func(ctx context.Context, in, out any) error {
		return invoker(ctx, rpc.MethodRefresh, in, out, cc, opts...)
	})
	if rerr != nil {
		return err
	}

	return invoker(withAccessToken(ctx, fresh), method, req, reply, cc, opts...)
}

func (s *GRPCClient) streamTokenInterceptor(
	ctx context.Context,
	desc *grpc.StreamDesc,
	cc *grpc.ClientConn,
	method string,
	streamer grpc.Streamer,
	opts ...grpc.CallOption,
) (grpc.ClientStream, error) {
	access, _ := s.Tokens()
	return streamer(withAccessToken(ctx, access), desc, cc, method, opts...)
}

// rotate exchanges the refresh token for a new pair. stale is the access
// token the failed call used; when another call already rotated it, the
// current token is returned without a second round trip.
func (s *GRPCClient) rotate(ctx context.Context, stale string, invoke func(ctx context.Context, in, out any) error) (string, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	access, refresh := s.Tokens()
	if access != stale && access != "" {
		return access, nil
	}
	if refresh == "" {
		return "", ErrUnauthorized
	}

	in, err := rpc.Encode(rpc.RefreshRequest{RefreshToken: refresh})
	if err != nil {
		return "", err
	}
	out := &structpb.Struct{}
	if err := invoke(withAccessToken(ctx, ""), in, out); err != nil {
		return "", mapError(err)
	}

	var res rpc.AuthResult
	if err := rpc.Decode(out, &res); err != nil {
		return "", err
	}

	s.mu.Lock()
	s.accessToken = res.AccessToken
	s.refreshToken = res.RefreshToken
	hook := s.onRefresh
	s.mu.Unlock()

	if hook != nil {
		hook(res)
	}
	return res.AccessToken, nil
}

func NewGRPCClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}
	if err := c.InitGRPCClient(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// InitGRPCClient dials the endpoint. Extra options are appended after the
// defaults, so tests can replace the dialer.
func (s *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {
	base := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(s.accessTokenInterceptor),
		grpc.WithChainStreamInterceptor(s.streamTokenInterceptor),
	}
	conn, err := grpc.NewClient(s.endpointURL, append(base, opts...)...)
	if err != nil {
		return err
	}
	s.conn = conn
	return nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

// SetTokens installs a fresh token pair after sign-in.
func (s *GRPCClient) SetTokens(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = access
	s.refreshToken = refresh
}

func (s *GRPCClient) ClearTokens() {
	s.SetTokens("", "")
}

func (s *GRPCClient) Tokens() (access, refresh string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken, s.refreshToken
}

// OnRefresh registers fn to run after every successful token rotation.
func (s *GRPCClient) OnRefresh(fn func(rpc.AuthResult)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRefresh = fn
}

// Refresh rotates the token pair explicitly.
func (s *GRPCClient) Refresh(ctx context.Context) error {
	access, _ := s.Tokens()
	_, err := s.rotate(ctx, access, func(ctx context.Context, in, out any) error {
		return s.conn.Invoke(ctx, rpc.MethodRefresh, in, out)
	})
	return err
}

// Call performs a unary RPC. in and out are rpc message values.
func (s *GRPCClient) Call(ctx context.Context, method string, in, out any) error {
	req, err := rpc.Encode(in)
	if err != nil {
		return err
	}
	resp := &structpb.Struct{}
	if err := s.conn.Invoke(ctx, method, req, resp); err != nil {
		return mapError(err)
	}
	if out == nil {
		return nil
	}
	return rpc.Decode(resp, out)
}

// SnapshotStream yields collection snapshots until the server ends the
// stream with io.EOF.
type SnapshotStream interface {
	Recv() (rpc.Snapshot, error)
}

// WatchStream is an open Watch call.
type WatchStream struct {
	cs grpc.ClientStream
}

// Recv blocks for the next snapshot. It returns io.EOF when the server ends
// the stream.
func (w *WatchStream) Recv() (rpc.Snapshot, error) {
	var snap rpc.Snapshot
	msg := &structpb.Struct{}
	if err := w.cs.RecvMsg(msg); err != nil {
		if errors.Is(err, io.EOF) {
			return snap, io.EOF
		}
		return snap, mapError(err)
	}
	err := rpc.Decode(msg, &snap)
	return snap, err
}

// Watch opens a server stream of collection snapshots. Cancel ctx to stop it.
func (s *GRPCClient) Watch(ctx context.Context, collection string) (SnapshotStream, error) {
	req, err := rpc.Encode(rpc.ListRequest{Collection: collection})
	if err != nil {
		return nil, err
	}
	cs, err := s.conn.NewStream(ctx, rpc.WatchStream, rpc.MethodWatch)
	if err != nil {
		return nil, mapError(err)
	}
	if err := cs.SendMsg(req); err != nil {
		return nil, mapError(err)
	}
	if err := cs.CloseSend(); err != nil {
		return nil, mapError(err)
	}
	return &WatchStream{cs: cs}, nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("rpc error: %w", err)
	}
	if strings.HasPrefix(st.Message(), rpc.AuthCodePrefix) {
		return &CodeError{Code: st.Message(), Err: err}
	}
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		if st.Message() == common.ErrTokenExpired.Error() {
			return fmt.Errorf("%w: %w", ErrUnauthorized, common.ErrTokenExpired)
		}
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.NotFound:
		return common.ErrorNotFound
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", common.ErrorValidation, st.Message())
	case codes.Canceled:
		return context.Canceled
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
