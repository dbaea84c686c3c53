package observability

import (
	"context"
	"net/http"

	"github.com/aws/aws-xray-sdk-go/xray"
)

// XRayHandler wraps h so every Lambda request gets an X-Ray segment named
// after the service.
func XRayHandler(serviceName string, h http.Handler) http.Handler {
	return xray.Handler(xray.NewFixedSegmentNamer(serviceName), h)
}

// TraceSubsegment runs fn inside an X-Ray subsegment when a segment is
// present in ctx, recording any error on it.
func TraceSubsegment(ctx context.Context, name string, fn func(context.Context) error) error {
	if xray.GetSegment(ctx) == nil {
		return fn(ctx)
	}
	return xray.Capture(ctx, name, fn)
}
