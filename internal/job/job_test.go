package job

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/autoconvert/internal/converter"
	"github.com/creamcroissant/autoconvert/internal/protocol"
	"github.com/creamcroissant/autoconvert/internal/proxy"
	"github.com/creamcroissant/autoconvert/internal/upload"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubConverter struct {
	calls   atomic.Int32
	proxies []proxy.Proxy
	err     error
}

func (s *stubConverter) Run(_ context.Context, _ converter.Request) (*converter.Outcome, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return &converter.Outcome{
		Valid: s.proxies,
		Results: []*protocol.Result{
			{Format: protocol.FormatSurge, Payload: []byte("[Proxy]\n")},
			{Format: protocol.FormatClash, Payload: []byte("proxies: []\n")},
		},
	}, nil
}

type stubUploader struct {
	paths []string
	err   error
}

func (s *stubUploader) Upload(_ context.Context, paths []string, _ string) (*upload.Gist, error) {
	s.paths = append(s.paths, paths...)
	if s.err != nil {
		return nil, s.err
	}
	return &upload.Gist{HTMLURL: "https://gist.example/1", RawURLs: map[string]string{"out.surge.conf": "https://gist.example/raw/out.surge.conf"}}, nil
}

func TestConvertJobWritesAndUploads(t *testing.T) {
	dir := t.TempDir()
	conv := &stubConverter{proxies: []proxy.Proxy{{Kind: proxy.KindTrojan, Name: "Edge"}}}
	uploader := &stubUploader{}
	j := NewConvertJob(conv, converter.Request{Source: "https://sub.example"}, filepath.Join(dir, "out"), discardLogger())
	j.Uploader = uploader
	j.QRDir = filepath.Join(dir, "qr")

	require.NoError(t, j.Run(context.Background()))
	assert.Equal(t, "subscription.convert", j.Name())
	assert.Equal(t, []string{filepath.Join(dir, "out.surge.conf"), filepath.Join(dir, "out.clash.yaml")}, uploader.paths)
	_, err := os.Stat(filepath.Join(dir, "qr", "out.surge_qr.png"))
	assert.NoError(t, err)

	// 节点不变时跳过上传
	require.NoError(t, j.Run(context.Background()))
	assert.Len(t, uploader.paths, 2)
	assert.Equal(t, int32(2), conv.calls.Load())

	conv.proxies = append(conv.proxies, proxy.Proxy{Kind: proxy.KindTrojan, Name: "Edge 2"})
	require.NoError(t, j.Run(context.Background()))
	assert.Len(t, uploader.paths, 4)
}

func TestConvertJobErrors(t *testing.T) {
	var nilJob *ConvertJob
	assert.Error(t, nilJob.Run(context.Background()))

	j := NewConvertJob(&stubConverter{err: converter.ErrNoValidProxies}, converter.Request{}, filepath.Join(t.TempDir(), "out"), nil)
	assert.ErrorIs(t, j.Run(context.Background()), converter.ErrNoValidProxies)

	uploadErr := errors.New("github down")
	j = NewConvertJob(&stubConverter{}, converter.Request{}, filepath.Join(t.TempDir(), "out"), discardLogger())
	j.Uploader = &stubUploader{err: uploadErr}
	assert.ErrorIs(t, j.Run(context.Background()), uploadErr)
	// 上传失败后下一次仍会重试
	j.Uploader = &stubUploader{}
	assert.NoError(t, j.Run(context.Background()))
}

type blockingJob struct{ deadline atomic.Bool }

func (b *blockingJob) Name() string { return "blocking" }

func (b *blockingJob) Run(ctx context.Context) error {
	<-ctx.Done()
	b.deadline.Store(true)
	return ctx.Err()
}

func TestSchedulerRunNowAppliesTimeout(t *testing.T) {
	s := NewScheduler(discardLogger(), 20*time.Millisecond)
	job := &blockingJob{}
	err := s.RunNow(context.Background(), job)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, job.deadline.Load())
}

func TestSchedulerRegister(t *testing.T) {
	s := NewScheduler(nil, 0)
	_, err := s.Register("", &blockingJob{})
	assert.Error(t, err)
	_, err = s.Register("@every 1h", nil)
	assert.Error(t, err)
	_, err = s.Register("not a cron", &blockingJob{})
	assert.Error(t, err)

	id, err := s.Register("@every 1h", &blockingJob{})
	require.NoError(t, err)
	s.Start()
	defer func() { <-s.Stop().Done() }()
	next := s.Next(id)
	assert.WithinDuration(t, time.Now().Add(time.Hour), next, time.Minute)
}

func TestSchedulerFiresJob(t *testing.T) {
	s := NewScheduler(discardLogger(), time.Second)
	conv := &stubConverter{}
	j := NewConvertJob(conv, converter.Request{}, filepath.Join(t.TempDir(), "out"), discardLogger())
	_, err := s.Register("@every 1s", j)
	require.NoError(t, err)
	s.Start()
	require.Eventually(t, func() bool { return conv.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
	<-s.Stop().Done()
}
