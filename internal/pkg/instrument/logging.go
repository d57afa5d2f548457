package instrument

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const maskedValue = "***"

// secret is masked even when the configured field list leaves it out.
var defaultMaskFields = []string{"secret"}

type loggingOptions struct {
	serviceName string
	level       slog.Level
	maskFields  []string
	provider    *sdklog.LoggerProvider
}

// parseLevel maps debug, info, warn and error; anything else is info.
func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func initLogging(opts loggingOptions) {
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       opts.level,
		AddSource:   true,
		ReplaceAttr: replaceAttr,
	})

	if opts.provider != nil {
		handler = fanout{handler, otelslog.NewHandler(
			opts.serviceName,
			otelslog.WithLoggerProvider(opts.provider),
		)}
	}

	slog.SetDefault(slog.New(&contextHandler{
		Handler:     &maskHandler{handler: handler, mask: newMasker(opts.maskFields)},
		serviceName: opts.serviceName,
	}))
}

func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "ts"
	case slog.LevelKey:
		a.Key = "severity"
	case slog.SourceKey:
		src, ok := a.Value.Any().(*slog.Source)
		if !ok {
			return a
		}
		_, rel, found := strings.Cut(src.File, "/internal/")
		if !found {
			return slog.Attr{}
		}
		return slog.String("file", fmt.Sprintf("%s:%d", filepath.Join("internal", rel), src.Line))
	}
	return a
}

type contextHandler struct {
	slog.Handler
	serviceName string
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if cID := GetCorrelationID(ctx); cID != "" {
		r.AddAttrs(slog.String("_cID", cID))
	}
	r.AddAttrs(slog.String("service", h.serviceName))

	return h.Handler.Handle(ctx, r)
}

// fanout sends every record to all handlers that accept its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, h := range f {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

type maskHandler struct {
	handler slog.Handler
	mask    masker
}

func (h *maskHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *maskHandler) Handle(ctx context.Context, record slog.Record) error {
	masked := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		masked.AddAttrs(h.mask.attr(attr))
		return true
	})

	return h.handler.Handle(ctx, masked)
}

func (h *maskHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		masked[i] = h.mask.attr(a)
	}
	return &maskHandler{handler: h.handler.WithAttrs(masked), mask: h.mask}
}

func (h *maskHandler) WithGroup(name string) slog.Handler {
	return &maskHandler{handler: h.handler.WithGroup(name), mask: h.mask}
}

// masker hides the values of sensitive keys in log attributes, JSON
// payloads and otpauth:// provisioning URIs.
type masker map[string]struct{}

func newMasker(fields []string) masker {
	m := make(masker)
	for _, field := range slices.Concat(defaultMaskFields, fields) {
		field = strings.TrimSpace(strings.ToLower(field))
		if field != "" {
			m[field] = struct{}{}
		}
	}
	return m
}

func (m masker) has(key string) bool {
	_, found := m[strings.ToLower(key)]
	return found
}

func (m masker) attr(attr slog.Attr) slog.Attr {
	if m.has(attr.Key) {
		return slog.String(attr.Key, maskedValue)
	}

	attr.Value = attr.Value.Resolve()
	switch attr.Value.Kind() {
	case slog.KindGroup:
		group := attr.Value.Group()
		masked := make([]slog.Attr, len(group))
		for i, ga := range group {
			masked[i] = m.attr(ga)
		}
		attr.Value = slog.GroupValue(masked...)
	case slog.KindString:
		if s, ok := m.text(attr.Value.String()); ok {
			attr.Value = slog.StringValue(s)
		}
	case slog.KindAny:
		switch v := attr.Value.Any().(type) {
		case map[string]any, []any:
			attr.Value = slog.AnyValue(m.data(v))
		case map[string]string:
			converted := make(map[string]any, len(v))
			for k, s := range v {
				converted[k] = s
			}
			attr.Value = slog.AnyValue(m.data(converted))
		case []byte:
			if s, ok := m.json(v); ok {
				attr.Value = slog.StringValue(s)
			}
		}
	}

	return attr
}

// text masks s when it is a JSON document or an otpauth:// URI.
func (m masker) text(s string) (string, bool) {
	switch {
	case s == "":
		return "", false
	case s[0] == '{' || s[0] == '[':
		return m.json([]byte(s))
	case strings.HasPrefix(strings.ToLower(s), "otpauth://"):
		return m.uri(s)
	default:
		return "", false
	}
}

func (m masker) json(payload []byte) (string, bool) {
	var body any
	if err := json.Unmarshal(payload, &body); err != nil {
		return "", false
	}
	out, err := json.Marshal(m.data(body))
	if err != nil {
		return "", false
	}
	return string(out), true
}

func (m masker) uri(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "otpauth://" + maskedValue, true
	}

	q := u.Query()
	changed := false
	for k := range q {
		if m.has(k) {
			q.Set(k, maskedValue)
			changed = true
		}
	}
	if !changed {
		return "", false
	}
	u.RawQuery = q.Encode()
	return u.String(), true
}

func (m masker) data(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if m.has(k) {
				out[k] = maskedValue
				continue
			}
			out[k] = m.data(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = m.data(inner)
		}
		return out
	default:
		return v
	}
}
