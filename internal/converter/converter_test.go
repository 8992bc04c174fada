package converter

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/autoconvert/internal/protocol"
)

type stubLoader struct {
	body   []byte
	err    error
	source string
}

func (s *stubLoader) Load(_ context.Context, source string) ([]byte, error) {
	s.source = source
	return s.body, s.err
}

func subscription() []byte {
	vmess := base64.StdEncoding.EncodeToString([]byte(`{"v":"2","ps":"HK 01","add":"hk.example.com","port":"443","id":"b831381d-6324-4d53-ad4f-8cda48b30811","aid":"0","net":"ws","path":"/ray","host":"cdn.example.com","tls":"tls"}`))
	lines := []string{
		"ss://YWVzLTI1Ni1nY206cGFzc3dvcmQ@example.com:8388#MyNode",
		"vmess://" + vmess,
		"trojan://secret@host.example:443#Edge",
		"trojan://pw@zero.example:0#Zero",
		"trojan://missing-delimiter#Broken",
		"vless://unsupported",
	}
	return []byte(base64.StdEncoding.EncodeToString([]byte(strings.Join(lines, "\n"))))
}

func newTestConverter(loader Loader, reg prometheus.Registerer) (*Converter, *Metrics) {
	metrics := NewMetrics(reg)
	c := New(loader, Options{
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics: metrics,
		Now:     func() time.Time { return time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC) },
	})
	return c, metrics
}

func TestRunRendersBothFormats(t *testing.T) {
	loader := &stubLoader{body: subscription()}
	c, metrics := newTestConverter(loader, prometheus.NewRegistry())

	out, err := c.Run(context.Background(), Request{Source: "https://sub.example/api", Formats: protocol.AllFormats})
	require.NoError(t, err)
	assert.Equal(t, "https://sub.example/api", loader.source)
	assert.NotEmpty(t, out.RunID)

	assert.Len(t, out.Batch.Proxies, 4)
	assert.Len(t, out.Batch.Failures, 1)
	assert.Equal(t, 5, out.Batch.Failures[0].Index)
	assert.Equal(t, 1, out.Batch.Skipped)
	assert.Len(t, out.Valid, 3)
	assert.Equal(t, 1, out.Excluded())
	assert.Equal(t, []string{"MyNode", "HK 01", "Edge"}, []string{out.Valid[0].Name, out.Valid[1].Name, out.Valid[2].Name})

	require.Len(t, out.Results, 2)
	assert.Equal(t, protocol.FormatSurge, out.Results[0].Format)
	assert.Equal(t, protocol.FormatClash, out.Results[1].Format)
	assert.Contains(t, string(out.Results[0].Payload), "# Generated at 2024-05-01 08:30:00")
	assert.NotContains(t, string(out.Results[0].Payload), "Zero")

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.runsTotal.WithLabelValues(resultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.linksTotal.WithLabelValues("trojan", "excluded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.linksTotal.WithLabelValues("trojan", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.linksTotal.WithLabelValues("vmess", "valid")))
}

func TestRunResolvesSingleFormatByClient(t *testing.T) {
	c, _ := newTestConverter(&stubLoader{body: subscription()}, prometheus.NewRegistry())
	out, err := c.Run(context.Background(), Request{Source: "x", UserAgent: "clash.meta/1.18"})
	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Equal(t, protocol.FormatClash, out.Results[0].Format)
}

func TestRunEmptySubscription(t *testing.T) {
	c, metrics := newTestConverter(&stubLoader{body: []byte("vless://a\ntrojan://pw@h:0#Zero\n")}, prometheus.NewRegistry())
	out, err := c.Run(context.Background(), Request{Source: "x", Formats: protocol.AllFormats})
	assert.ErrorIs(t, err, ErrNoValidProxies)
	require.NotNil(t, out)
	assert.Empty(t, out.Results)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.runsTotal.WithLabelValues(resultEmpty)))
}

func TestRunLoadFailure(t *testing.T) {
	boom := errors.New("connection refused")
	c, metrics := newTestConverter(&stubLoader{err: boom}, prometheus.NewRegistry())
	_, err := c.Run(context.Background(), Request{Source: "https://sub.example"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.runsTotal.WithLabelValues(resultFetchError)))
}

func TestConvertDeterministicForFixedClock(t *testing.T) {
	c, _ := newTestConverter(nil, prometheus.NewRegistry())
	first, err := c.Convert(context.Background(), subscription(), Request{Formats: protocol.AllFormats})
	require.NoError(t, err)
	second, err := c.Convert(context.Background(), subscription(), Request{Formats: protocol.AllFormats})
	require.NoError(t, err)
	assert.NotEqual(t, first.RunID, second.RunID)
	for i := range first.Results {
		assert.Equal(t, string(first.Results[i].Payload), string(second.Results[i].Payload))
	}
}

func TestWriteFiles(t *testing.T) {
	c, _ := newTestConverter(nil, prometheus.NewRegistry())
	out, err := c.Convert(context.Background(), subscription(), Request{Formats: protocol.AllFormats})
	require.NoError(t, err)

	prefix := filepath.Join(t.TempDir(), "out", "config")
	paths, err := WriteFiles(prefix, out.Results)
	require.NoError(t, err)
	assert.Equal(t, []string{prefix + ".surge.conf", prefix + ".clash.yaml"}, paths)
	for i, p := range paths {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.Equal(t, out.Results[i].Payload, data)
	}
}
