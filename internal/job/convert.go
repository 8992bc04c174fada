package job

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/creamcroissant/autoconvert/internal/converter"
	"github.com/creamcroissant/autoconvert/internal/upload"
)

// Converter 执行一次订阅转换，由 converter.Converter 实现。
type Converter interface {
	Run(ctx context.Context, req converter.Request) (*converter.Outcome, error)
}

// Uploader 把生成的文件发布出去，由 upload.Uploader 实现。
type Uploader interface {
	Upload(ctx context.Context, paths []string, description string) (*upload.Gist, error)
}

// ConvertJob 定时拉取订阅并重新生成配置文件。
type ConvertJob struct {
	Converter Converter
	Request   converter.Request
	// Prefix 是输出文件的路径前缀。
	Prefix string
	// Uploader 为空时只写本地文件。
	Uploader    Uploader
	Description string
	QRDir       string
	Logger      *slog.Logger

	mu       sync.Mutex
	lastHash string
}

// NewConvertJob creates a new ConvertJob.
func NewConvertJob(conv Converter, req converter.Request, prefix string, logger *slog.Logger) *ConvertJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConvertJob{
		Converter: conv,
		Request:   req,
		Prefix:    prefix,
		Logger:    logger,
	}
}

// Name implements Runnable interface.
func (j *ConvertJob) Name() string {
	return "subscription.convert"
}

// Run implements Runnable interface. 节点没有变化时不重写文件也不上传。
func (j *ConvertJob) Run(ctx context.Context) error {
	if j == nil || j.Converter == nil {
		return fmt.Errorf("convert job dependencies not configured / 转换任务依赖未配置")
	}

	out, err := j.Converter.Run(ctx, j.Request)
	if err != nil {
		return fmt.Errorf("convert job: %w", err)
	}

	hash, err := fingerprint(out)
	if err != nil {
		return fmt.Errorf("convert job: %w", err)
	}
	j.mu.Lock()
	unchanged := hash == j.lastHash
	j.mu.Unlock()
	if unchanged {
		j.Logger.Info("subscription unchanged, skipping write", "proxies", len(out.Valid))
		return nil
	}

	paths, err := converter.WriteFiles(j.Prefix, out.Results)
	if err != nil {
		return fmt.Errorf("convert job: %w", err)
	}
	j.Logger.Info("configs written", "files", paths, "proxies", len(out.Valid))

	if j.Uploader != nil {
		gist, err := j.Uploader.Upload(ctx, paths, j.Description)
		if err != nil {
			return fmt.Errorf("convert job: %w", err)
		}
		if j.QRDir != "" {
			if _, err := upload.WriteQRCodes(j.QRDir, gist.RawURLs); err != nil {
				return fmt.Errorf("convert job: %w", err)
			}
		}
		j.Logger.Info("configs uploaded", "gist", gist.HTMLURL)
	}

	j.mu.Lock()
	j.lastHash = hash
	j.mu.Unlock()
	return nil
}

func fingerprint(out *converter.Outcome) (string, error) {
	h := sha256.New()
	for _, r := range out.Results {
		h.Write([]byte(r.Format))
		h.Write([]byte{0})
	}
	if err := json.NewEncoder(h).Encode(out.Valid); err != nil {
		return "", fmt.Errorf("fingerprint proxies: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
