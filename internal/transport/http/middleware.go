package httptransport

import (
	"net/http"

	"github.com/google/uuid"

	"taxrelief/pkg/requestcontext"
)

// RequestID propagates the caller's X-Request-ID or mints one, so every log
// line and audit feed entry for the request correlates.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(requestcontext.WithRequestID(r.Context(), requestID)))
	})
}

// Actor records who is acting, from the X-Actor header set by the fronting
// gateway. Authentication itself happens upstream; this core only needs the
// identity for the event log.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actor := r.Header.Get("X-Actor"); actor != "" {
			r = r.WithContext(requestcontext.WithActor(r.Context(), actor))
		}
		next.ServeHTTP(w, r)
	})
}
