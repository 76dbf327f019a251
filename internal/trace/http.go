package trace

import "net/http"

// Request headers a control client may set to join an existing session.
const (
	SessionHeader = "X-Session-ID"
	SpanHeader    = "X-Span-ID"
)

// Middleware attaches a session to every request: the caller's, when it sent
// SessionHeader, or a fresh "http" session.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tc := extractFromHeaders(r)
		ctx := WithContext(r.Context(), tc)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractFromHeaders(r *http.Request) Context {
	id := r.Header.Get(SessionHeader)
	if id == "" {
		return New("http")
	}
	return Context{
		SessionID:    id,
		SpanID:       generateSpanID(),
		ParentSpanID: r.Header.Get(SpanHeader),
		Kind:         "http",
	}
}
