package instrument

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrelationID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetCorrelationID(ctx))

	ctx = SetCorrelationID(ctx, "abc")
	assert.Equal(t, "abc", GetCorrelationID(ctx))
}

func TestMaskAttr(t *testing.T) {
	m := newMasker([]string{" Secret ", "", "token"})
	assert.Len(t, m, 2)

	tests := []struct {
		name string
		in   slog.Attr
		want string
	}{
		{
			name: "Key",
			in:   slog.String("secret", "JBSWY3DPEHPK3PXP"),
			want: "***",
		},
		{
			name: "JSONString",
			in:   slog.String("body", `{"name":"alice","secret":"JBSWY3DPEHPK3PXP"}`),
			want: `{"name":"alice","secret":"***"}`,
		},
		{
			name: "OTPAuthURI",
			in:   slog.String("uri", "otpauth://totp/Example:alice?issuer=Example&secret=JBSWY3DPEHPK3PXP"),
			want: "otpauth://totp/Example:alice?issuer=Example&secret=%2A%2A%2A",
		},
		{
			name: "PlainString",
			in:   slog.String("account", "Example:alice"),
			want: "Example:alice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.attr(tt.in)
			assert.Equal(t, tt.in.Key, got.Key)
			assert.Equal(t, tt.want, got.Value.String())
		})
	}
}

func TestMaskAttr_Group(t *testing.T) {
	m := newMasker(nil)

	got := m.attr(slog.Group("account", slog.String("name", "bob"), slog.String("secret", "x")))
	group := got.Value.Group()
	assert.Equal(t, "bob", group[0].Value.String())
	assert.Equal(t, "***", group[1].Value.String())

	got = m.attr(slog.Any("m", map[string]string{"secret": "x", "name": "bob"}))
	assert.Equal(t, map[string]any{"secret": "***", "name": "bob"}, got.Value.Any())
}

func TestNewNoop(t *testing.T) {
	ins, err := New(context.Background(), nil)
	assert.NoError(t, err)
	assert.NotNil(t, ins.Tracer("t"))
	assert.NotNil(t, ins.Meter("m"))
	assert.NoError(t, ins.Shutdown(context.Background()))
}

func TestMasker_LogValuerAndBytes(t *testing.T) {
	m := newMasker([]string{"code"})

	got := m.attr(slog.Any("req", account{Name: "alice", Secret: "JBSWY3DP"}))
	group := got.Value.Group()
	assert.Equal(t, "alice", group[0].Value.String())
	assert.Equal(t, "***", group[1].Value.String())

	got = m.attr(slog.Any("body", []byte(`{"code":"123456"}`)))
	assert.Equal(t, `{"code":"***"}`, got.Value.String())

	got = m.attr(slog.Any("body", []byte("not json")))
	assert.Equal(t, []byte("not json"), got.Value.Any())
}

type account struct {
	Name   string
	Secret string
}

func (a account) LogValue() slog.Value {
	return slog.GroupValue(slog.String("name", a.Name), slog.String("secret", a.Secret))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel(" WARN "))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestMaskHandler(t *testing.T) {
	var buf bytes.Buffer
	base := slog.NewJSONHandler(&buf, &slog.HandlerOptions{ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
		if a.Key == slog.TimeKey {
			return slog.Attr{}
		}
		return a
	}})

	logger := slog.New(&maskHandler{handler: fanout{base}, mask: newMasker(nil)}).With("secret", "JBSWY3DP")
	logger.Info("account added", "name", "alice")

	assert.JSONEq(t, `{"level":"INFO","msg":"account added","secret":"***","name":"alice"}`, buf.String())
}
