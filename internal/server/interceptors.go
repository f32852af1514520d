package server

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	flagsv1 "github.com/alfredjeanlab/flags/api/flags/v1"
)

// healthServicePrefix covers the standard grpc.health.v1 methods.
const healthServicePrefix = "/grpc.health.v1.Health/"

// LoggingInterceptor logs the method name, duration and error (if any) of
// every unary RPC.
func LoggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		duration := time.Since(start)

		if err != nil {
			logger.Error("rpc completed",
				"method", info.FullMethod,
				"duration", duration,
				"code", status.Code(err).String(),
				"error", err,
			)
		} else {
			logger.Info("rpc completed",
				"method", info.FullMethod,
				"duration", duration,
			)
		}
		return resp, err
	}
}

// RecoveryInterceptor turns a panic in a handler into codes.Internal and
// logs the stack.
func RecoveryInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered in gRPC handler",
					"method", info.FullMethod,
					"panic", fmt.Sprintf("%v", r),
					"stack", string(debug.Stack()),
				)
				err = status.Errorf(codes.Internal, "internal server error")
			}
		}()
		return handler(ctx, req)
	}
}

// authExempt reports whether a gRPC method skips token checks.
func authExempt(method string) bool {
	return method == flagsv1.FlagService_Health_FullMethodName ||
		strings.HasPrefix(method, healthServicePrefix)
}

// checkBearer validates an Authorization header value against token.
func checkBearer(header, token string) string {
	if header == "" {
		return "missing authorization header"
	}
	provided, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "invalid authorization scheme"
	}
	if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
		return "invalid token"
	}
	return ""
}

// AuthInterceptor checks the "authorization" metadata for a valid Bearer
// token. An empty token disables the check. Health RPCs are exempt.
func AuthInterceptor(token string) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if token == "" || authExempt(info.FullMethod) {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}
		var header string
		if vals := md.Get("authorization"); len(vals) > 0 {
			header = vals[0]
		}
		if msg := checkBearer(header, token); msg != "" {
			return nil, status.Error(codes.Unauthenticated, msg)
		}
		return handler(ctx, req)
	}
}

// AuthMiddleware checks the Authorization header for a valid Bearer token.
// An empty token disables the check. GET /v1/health is exempt.
func AuthMiddleware(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/v1/health" {
			next.ServeHTTP(w, r)
			return
		}
		if msg := checkBearer(r.Header.Get("Authorization"), token); msg != "" {
			writeErrorCode(w, http.StatusUnauthorized, msg, CodeUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}
