package middleware

import (
	"net/http"

	"github.com/aws/aws-xray-sdk-go/xray"
)

// Tracing opens an X-Ray segment per request
func Tracing(serviceName string) func(next http.Handler) http.Handler {
	namer := xray.NewFixedSegmentNamer(serviceName)
	return func(next http.Handler) http.Handler {
		return xray.Handler(namer, next)
	}
}
