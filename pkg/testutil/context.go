package testutil

import (
	"net/http"

	"taxrelief/pkg/requestcontext"
)

// WithActor stamps an acting identity on the request context.
// This simulates what the actor middleware does for gateway-fronted requests.
func WithActor(req *http.Request, actor string) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), actor))
}

// WithRequestID stamps a request ID on the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
