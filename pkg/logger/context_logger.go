package logger

import (
	"context"
	"time"

	ctxutil "github.com/Payphone-Digital/learnpath/pkg/context"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ContextLogBuilder collects fields for a single log entry and pulls request
// values out of ctx when the entry is written.
type ContextLogBuilder struct {
	logger     *zap.Logger
	ctx        context.Context
	level      zapcore.Level
	fields     []zap.Field
	message    string
	shouldLog  bool
	autoFields bool
}

func newBuilder(l *zap.Logger, ctx context.Context, level zapcore.Level, message string) *ContextLogBuilder {
	b := &ContextLogBuilder{
		logger:     l,
		ctx:        ctx,
		level:      level,
		message:    message,
		shouldLog:  l.Core().Enabled(level),
		autoFields: true,
	}
	if b.shouldLog {
		b.fields = make([]zap.Field, 0, 12)
	}
	return b
}

// AutoFields toggles extraction of request values from the context.
func (clb *ContextLogBuilder) AutoFields(auto bool) *ContextLogBuilder {
	clb.autoFields = auto
	return clb
}

func (clb *ContextLogBuilder) contextFields() []zap.Field {
	if !clb.autoFields || clb.ctx == nil {
		return nil
	}

	fields := make([]zap.Field, 0, 8)
	if requestID := ctxutil.GetRequestID(clb.ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if traceID := ctxutil.GetTraceID(clb.ctx); traceID != "" {
		fields = append(fields, zap.String("trace_id", traceID))
	}
	if clientIP := ctxutil.GetClientIP(clb.ctx); clientIP != "" {
		fields = append(fields, zap.String("client_ip", clientIP))
	}
	if userAgent := ctxutil.GetUserAgent(clb.ctx); userAgent != "" {
		fields = append(fields, zap.String("user_agent", userAgent))
	}
	if userID, ok := ctxutil.GetUserID(clb.ctx); ok {
		fields = append(fields, zap.String("user_id", hashValue(userID)))
	}
	if module := ctxutil.GetModule(clb.ctx); module != "" {
		fields = append(fields, zap.String("module", module))
	}
	if function := ctxutil.GetFunction(clb.ctx); function != "" {
		fields = append(fields, zap.String("function", function))
	}
	if elapsed := ctxutil.GetDuration(clb.ctx); elapsed > 0 {
		fields = append(fields, zap.Duration("elapsed", elapsed))
	}
	return fields
}

func (clb *ContextLogBuilder) String(key, value string) *ContextLogBuilder {
	if clb.shouldLog {
		clb.fields = append(clb.fields, zap.String(key, sanitizeString(key, value)))
	}
	return clb
}

func (clb *ContextLogBuilder) Int(key string, value int) *ContextLogBuilder {
	if clb.shouldLog {
		clb.fields = append(clb.fields, zap.Int(key, value))
	}
	return clb
}

func (clb *ContextLogBuilder) Int64(key string, value int64) *ContextLogBuilder {
	if clb.shouldLog {
		clb.fields = append(clb.fields, zap.Int64(key, value))
	}
	return clb
}

// Uint logs unsigned ids; user ids are hashed when redaction is on.
func (clb *ContextLogBuilder) Uint(key string, value uint) *ContextLogBuilder {
	if !clb.shouldLog {
		return clb
	}
	if isHashKey(key) {
		clb.fields = append(clb.fields, zap.String(key, hashValue(value)))
		return clb
	}
	clb.fields = append(clb.fields, zap.Uint(key, value))
	return clb
}

func (clb *ContextLogBuilder) Bool(key string, value bool) *ContextLogBuilder {
	if clb.shouldLog {
		clb.fields = append(clb.fields, zap.Bool(key, value))
	}
	return clb
}

func (clb *ContextLogBuilder) Float64(key string, value float64) *ContextLogBuilder {
	if clb.shouldLog {
		clb.fields = append(clb.fields, zap.Float64(key, value))
	}
	return clb
}

func (clb *ContextLogBuilder) Duration(value time.Duration) *ContextLogBuilder {
	if clb.shouldLog {
		clb.fields = append(clb.fields, zap.Duration("duration", value))
	}
	return clb
}

func (clb *ContextLogBuilder) Err(err error) *ContextLogBuilder {
	if clb.shouldLog && err != nil {
		clb.fields = append(clb.fields, zap.Error(err))
	}
	return clb
}

func (clb *ContextLogBuilder) Any(key string, value interface{}) *ContextLogBuilder {
	if !clb.shouldLog {
		return clb
	}
	if redactionOn.Load() && isRedactKey(key) {
		clb.fields = append(clb.fields, zap.String(key, redacted))
		return clb
	}
	clb.fields = append(clb.fields, zap.Any(key, value))
	return clb
}

func (clb *ContextLogBuilder) Method(method string) *ContextLogBuilder {
	if clb.shouldLog {
		clb.fields = append(clb.fields, zap.String("method", method))
	}
	return clb
}

func (clb *ContextLogBuilder) Path(path string) *ContextLogBuilder {
	if clb.shouldLog {
		clb.fields = append(clb.fields, zap.String("path", path))
	}
	return clb
}

func (clb *ContextLogBuilder) StatusCode(code int) *ContextLogBuilder {
	if clb.shouldLog {
		clb.fields = append(clb.fields, zap.Int("status_code", code))
	}
	return clb
}

// Log writes the entry. A cancelled ctx still logs so cancellation errors are visible.
func (clb *ContextLogBuilder) Log() {
	if !clb.shouldLog {
		return
	}

	fields := append(clb.contextFields(), clb.fields...)
	if ce := clb.logger.Check(clb.level, clb.message); ce != nil {
		ce.Write(fields...)
	}
}

func InfoWithContext(ctx context.Context, message string) *ContextLogBuilder {
	return newBuilder(GetLogger(), ctx, zapcore.InfoLevel, message)
}

func WarnWithContext(ctx context.Context, message string) *ContextLogBuilder {
	return newBuilder(GetLogger(), ctx, zapcore.WarnLevel, message)
}

func ErrorWithContext(ctx context.Context, message string) *ContextLogBuilder {
	return newBuilder(GetLogger(), ctx, zapcore.ErrorLevel, message)
}

func DebugWithContext(ctx context.Context, message string) *ContextLogBuilder {
	return newBuilder(GetLogger(), ctx, zapcore.DebugLevel, message)
}
