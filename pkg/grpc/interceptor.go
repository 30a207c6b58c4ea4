package grpc

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"liyu1981.xyz/iot-gateway-service/pkg/apierr"
	"liyu1981.xyz/iot-gateway-service/pkg/auth"
	"liyu1981.xyz/iot-gateway-service/pkg/common"
)

var codeByStatus = map[int]codes.Code{
	http.StatusBadRequest:            codes.InvalidArgument,
	http.StatusUnprocessableEntity:   codes.InvalidArgument,
	http.StatusUnauthorized:          codes.Unauthenticated,
	http.StatusForbidden:             codes.PermissionDenied,
	http.StatusNotFound:              codes.NotFound,
	http.StatusRequestEntityTooLarge: codes.ResourceExhausted,
	http.StatusBadGateway:            codes.Unavailable,
}

// toStatus carries the error category over to a gRPC status. The message is
// the same one the HTTP surface would put into {"msg": ...}.
func toStatus(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	apiErr := apierr.From(err)
	code, ok := codeByStatus[apiErr.Code]
	if !ok {
		code = codes.Internal
	}
	return status.Error(code, apiErr.Message)
}

// AuthInterceptor accepts only access tokens, sent as "authorization: Bearer
// <token>" metadata, and puts the token's identity on the context.
func (q *QueryServer) AuthInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		logger := common.GetLoggerWith(common.LoggerNameGrpcServer)
		start := time.Now()

		var header string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if values := md.Get("authorization"); len(values) > 0 {
				header = values[0]
			}
		}
		token, err := auth.BearerToken(header)
		if err != nil {
			return nil, toStatus(err)
		}
		claims, err := q.Tokens.Validate(token, auth.TokenTypeAccess)
		if err != nil {
			return nil, toStatus(err)
		}

		resp, err := handler(auth.WithIdentity(ctx, claims.Username), req)
		if err != nil {
			err = toStatus(err)
			if status.Code(err) == codes.Internal {
				logger.Error("Call failed", zap.String("method", info.FullMethod), zap.Error(err))
			}
		}
		logger.Debug("Call done",
			zap.String("method", info.FullMethod),
			zap.String("uid", claims.Username),
			zap.Stringer("code", status.Code(err)),
			zap.Duration("took", time.Since(start)),
		)
		return resp, err
	}
}
