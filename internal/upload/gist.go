// 文件路径: internal/upload/gist.go
// 模块说明: 这是 internal 模块里的 gist 逻辑，把生成的配置上传为私密 Gist 并返回每个文件的直链。
package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
)

var (
	ErrMissingToken = errors.New("upload: github token not configured / 未配置 GitHub 令牌")
	ErrNoFiles      = errors.New("upload: no files to upload / 没有可上传的文件")
)

const timestampLayout = "2006-01-02 15:04:05"

// GistCreator 是创建 Gist 所需的接口，github.GistsService 实现了它。
type GistCreator interface {
	Create(ctx context.Context, gist *github.Gist) (*github.Gist, *github.Response, error)
}

// Options 配置上传器。
type Options struct {
	Token string
	// BaseURL 用于 GitHub Enterprise 或测试，留空使用 api.github.com。
	BaseURL string
	Public  bool
	Logger  *slog.Logger
	Now     func() time.Time
}

// Uploader 负责把配置文件上传到 Gist。
type Uploader struct {
	gists  GistCreator
	public bool
	logger *slog.Logger
	now    func() time.Time
}

// Gist 是上传结果。
type Gist struct {
	ID      string
	HTMLURL string
	// RawURLs 以文件名为键。
	RawURLs map[string]string
}

// Filenames 返回按名称排序的文件列表。
func (g *Gist) Filenames() []string {
	names := make([]string, 0, len(g.RawURLs))
	for name := range g.RawURLs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewUploader 使用令牌创建 GitHub 客户端。
func NewUploader(opts Options) (*Uploader, error) {
	token := strings.TrimSpace(opts.Token)
	if token == "" {
		return nil, ErrMissingToken
	}
	client := github.NewClient(nil).WithAuthToken(token)
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		parsed, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parse github base url: %w", err)
		}
		client.BaseURL = parsed
	}
	return NewUploaderWithClient(client.Gists, opts), nil
}

// NewUploaderWithClient 使用现成的 Gist 客户端。
func NewUploaderWithClient(gists GistCreator, opts Options) *Uploader {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Uploader{gists: gists, public: opts.Public, logger: logger, now: now}
}

// Upload 读取文件并创建一个 Gist，文件名取路径的最后一段。
func (u *Uploader) Upload(ctx context.Context, paths []string, description string) (*Gist, error) {
	files := make(map[github.GistFilename]github.GistFile, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read upload file: %w", err)
		}
		name := filepath.Base(p)
		files[github.GistFilename(name)] = github.GistFile{
			Filename: github.String(name),
			Content:  github.String(string(data)),
		}
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if strings.TrimSpace(description) == "" {
		description = "Proxy Config - Generated at " + u.now().Format(timestampLayout)
	}

	created, _, err := u.gists.Create(ctx, &github.Gist{
		Description: github.String(description),
		Public:      github.Bool(u.public),
		Files:       files,
	})
	if err != nil {
		return nil, fmt.Errorf("create gist: %w", err)
	}

	out := &Gist{
		ID:      created.GetID(),
		HTMLURL: created.GetHTMLURL(),
		RawURLs: make(map[string]string, len(created.Files)),
	}
	for name, file := range created.Files {
		out.RawURLs[string(name)] = file.GetRawURL()
	}
	u.logger.Info("gist created", "id", out.ID, "files", len(out.RawURLs), "public", u.public)
	return out, nil
}
