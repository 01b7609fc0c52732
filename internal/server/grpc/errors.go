package grpc

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/restaurant/internal/common"
	"github.com/dmitrijs2005/restaurant/internal/rpc"
	"github.com/dmitrijs2005/restaurant/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var identityCodes = []struct {
	err  error
	code codes.Code
	msg  string
}{
	{services.ErrEmailInUse, codes.AlreadyExists, rpc.CodeEmailInUse},
	{services.ErrWeakPassword, codes.InvalidArgument, rpc.CodeWeakPassword},
	{services.ErrInvalidEmail, codes.InvalidArgument, rpc.CodeInvalidEmail},
	{services.ErrUserNotFound, codes.NotFound, rpc.CodeUserNotFound},
	{services.ErrWrongPassword, codes.Unauthenticated, rpc.CodeWrongPassword},
	{services.ErrTooManyRequests, codes.ResourceExhausted, rpc.CodeTooManyRequests},
	{common.ErrRefreshTokenExpired, codes.Unauthenticated, rpc.CodeTokenExpired},
}

// toStatus converts a service error into the status the console expects.
// Errors with no mapping are logged and reported as Internal.
func (s *GRPCServer) toStatus(ctx context.Context, method string, err error) error {
	for _, c := range identityCodes {
		if errors.Is(err, c.err) {
			return status.Error(c.code, c.msg)
		}
	}

	switch {
	case errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, common.ErrorValidation):
		return status.Error(codes.InvalidArgument, strings.TrimPrefix(err.Error(), common.ErrorValidation.Error()+": "))
	case errors.Is(err, services.ErrReadOnlyOperation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, services.ErrUnknownCollection), errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	s.logger.Error(ctx, "request failed", "method", method, "error", err)
	return status.Error(codes.Internal, common.ErrorInternal.Error())
}
