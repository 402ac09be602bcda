// Package observability provides the metrics HTTP server and gRPC client interceptors.
package observability

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"speech-batch-transcriber/internal/observability/metrics"
)

// UnaryClientInterceptor returns a gRPC unary client interceptor for metrics and logging.
func UnaryClientInterceptor(m *metrics.Metrics) grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply interface{},
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		start := time.Now()

		err := invoker(ctx, method, req, reply, cc, opts...)

		duration := time.Since(start)
		st, _ := status.FromError(err)
		m.RecordGRPCCall(method, st.Code().String(), duration.Seconds())

		log.Debug().
			Str("method", method).
			Str("code", st.Code().String()).
			Dur("duration", duration).
			Msg("gRPC unary call")

		return err
	}
}
