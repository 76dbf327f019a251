// Package trace tags capture sessions with identifiers and timed spans so that
// every log line emitted while a tick or manual capture runs can be correlated.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"time"
)

// Log attribute keys.
const (
	SessionIDKey    = "session_id"
	SpanIDKey       = "span_id"
	ParentSpanIDKey = "parent_span_id"
	KindKey         = "session_kind"
)

type ctxKey struct{}

var sessionCtxKey = ctxKey{}

// Context identifies one capture session and the span currently running in it.
type Context struct {
	SessionID    string
	SpanID       string
	ParentSpanID string
	Kind         string
}

// New creates a context for a fresh session of the given kind ("auto", "manual", "milestone").
func New(kind string) Context {
	return Context{
		SessionID: generateSessionID(),
		SpanID:    generateSpanID(),
		Kind:      kind,
	}
}

// NewChild creates a child span within the parent's session.
func NewChild(parent Context) Context {
	return Context{
		SessionID:    parent.SessionID,
		SpanID:       generateSpanID(),
		ParentSpanID: parent.SpanID,
		Kind:         parent.Kind,
	}
}

// FromContext extracts the session context from ctx.
func FromContext(ctx context.Context) (Context, bool) {
	tc, ok := ctx.Value(sessionCtxKey).(Context)
	return tc, ok
}

// WithContext injects a session context into ctx.
func WithContext(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, sessionCtxKey, tc)
}

// StartSession begins a new session of kind and returns its root span.
func StartSession(ctx context.Context, kind string) (context.Context, *Span) {
	tc := New(kind)
	return WithContext(ctx, tc), newSpan(kind, tc)
}

// 64-bit session IDs keep log lines short; sessions are local to one process.
func generateSessionID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func generateSpanID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// Attrs returns slog attributes for logging.
func (c Context) Attrs() []any {
	args := make([]any, 0, 8)
	args = append(args, SessionIDKey, c.SessionID, SpanIDKey, c.SpanID)
	if c.ParentSpanID != "" {
		args = append(args, ParentSpanIDKey, c.ParentSpanID)
	}
	if c.Kind != "" {
		args = append(args, KindKey, c.Kind)
	}
	return args
}

// Span represents a timed operation within a session.
type Span struct {
	Name      string
	Ctx       Context
	StartTime time.Time
	EndTime   time.Time
	Attrs     map[string]any
}

func newSpan(name string, tc Context) *Span {
	return &Span{
		Name:      name,
		Ctx:       tc,
		StartTime: time.Now(),
		Attrs:     make(map[string]any),
	}
}

// StartSpan begins a child span, or a session-less span when ctx has none.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	tc := Context{SpanID: generateSpanID()}
	if parent, ok := FromContext(ctx); ok {
		tc = NewChild(parent)
	}
	return WithContext(ctx, tc), newSpan(name, tc)
}

// End marks the span as complete.
func (s *Span) End() {
	s.EndTime = time.Now()
}

// SetAttr sets a span attribute.
func (s *Span) SetAttr(key string, val any) {
	s.Attrs[key] = val
}

// Duration returns span duration.
func (s *Span) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

// LogValue implements slog.LogValuer for structured logging.
func (s *Span) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("span_name", s.Name),
		slog.String(SessionIDKey, s.Ctx.SessionID),
		slog.String(SpanIDKey, s.Ctx.SpanID),
		slog.Duration("duration", s.Duration()),
	}
	for k, v := range s.Attrs {
		attrs = append(attrs, slog.Any(k, v))
	}
	return slog.GroupValue(attrs...)
}

// Logger returns the default logger annotated with the session in ctx.
func Logger(ctx context.Context) *slog.Logger {
	tc, ok := FromContext(ctx)
	if !ok {
		return slog.Default()
	}
	return slog.Default().With(tc.Attrs()...)
}
