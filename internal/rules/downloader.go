// 文件路径: internal/rules/downloader.go
// 模块说明: 这是 internal 模块里的 downloader 逻辑，下载上游规则集、去掉签名行后写入本地规则目录。
package rules

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// SignatureMarker 是上游规则集里用来标记来源的占位规则，需要剔除。
const SignatureMarker = "th1s_rule5et_1s_m4d3_by_5ukk4w_ruleset.skk.moe"

const (
	defaultConcurrency = 4
	timestampLayout    = "2006-01-02 15:04:05"
)

var ErrNoSources = errors.New("rules: no sources / 没有需要下载的规则集")

// Fetcher 是下载规则文件所需的最小接口，由 fetch.Fetcher 实现。
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Options 配置规则下载器。
type Options struct {
	Dir         string
	Concurrency int
	Logger      *slog.Logger
	Now         func() time.Time
}

// Downloader 把规则集写到本地目录。
type Downloader struct {
	fetcher     Fetcher
	dir         string
	concurrency int
	logger      *slog.Logger
	now         func() time.Time
}

// FileResult 记录一份写入成功的规则文件。
type FileResult struct {
	Source   Source
	Path     string
	Rules    int
	Stripped int
}

// Failure 记录一份下载失败的规则文件，失败不影响其他文件。
type Failure struct {
	Source Source
	Err    error
}

// Report 汇总一次下载，顺序与传入的来源一致。
type Report struct {
	Written []FileResult
	Failed  []Failure
}

// Rules 返回写入的规则总数。
func (r Report) Rules() int {
	total := 0
	for _, f := range r.Written {
		total += f.Rules
	}
	return total
}

func NewDownloader(fetcher Fetcher, opts Options) *Downloader {
	dir := strings.TrimSpace(opts.Dir)
	if dir == "" {
		dir = "rules"
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Downloader{fetcher: fetcher, dir: dir, concurrency: concurrency, logger: logger, now: now}
}

// Download 并发下载全部来源。单个来源失败只记入报告，只有上下文取消才返回错误。
func (d *Downloader) Download(ctx context.Context, sources []Source) (Report, error) {
	if len(sources) == 0 {
		return Report{}, ErrNoSources
	}
	written := make([]*FileResult, len(sources))
	failed := make([]error, len(sources))
	generatedAt := d.now().Format(timestampLayout)

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(d.concurrency)
	for i, src := range sources {
		i, src := i, src
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := d.downloadOne(gctx, src, generatedAt)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				failed[i] = err
				d.logger.Warn("rule set download failed", "name", src.Name, "target", src.Target, "error", err)
				return nil
			}
			written[i] = result
			d.logger.Info("rule set written", "path", result.Path, "rules", result.Rules, "stripped", result.Stripped)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return Report{}, err
	}

	var report Report
	for i, src := range sources {
		if written[i] != nil {
			report.Written = append(report.Written, *written[i])
			continue
		}
		report.Failed = append(report.Failed, Failure{Source: src, Err: failed[i]})
	}
	return report, nil
}

func (d *Downloader) downloadOne(ctx context.Context, src Source, generatedAt string) (*FileResult, error) {
	body, err := d.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		return nil, err
	}
	content, stripped := StripSignature(string(body))
	target := filepath.Join(d.dir, filepath.FromSlash(src.Path()))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, fmt.Errorf("create rule dir: %w", err)
	}
	if err := os.WriteFile(target, []byte(src.Header(generatedAt)+content), 0o644); err != nil {
		return nil, fmt.Errorf("write rule file: %w", err)
	}
	return &FileResult{Source: src, Path: target, Rules: CountRules(content), Stripped: stripped}, nil
}

// StripSignature 删除包含签名标记的行，返回处理后的内容与删除行数。
func StripSignature(content string) (string, int) {
	if !strings.Contains(content, SignatureMarker) {
		return content, 0
	}
	lines := strings.SplitAfter(content, "\n")
	kept := lines[:0]
	removed := 0
	for _, line := range lines {
		if strings.Contains(line, SignatureMarker) {
			removed++
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, ""), removed
}

// CountRules 统计非空、非注释的规则行。
func CountRules(content string) int {
	count := 0
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		count++
	}
	return count
}

// Verify 扫描规则目录，返回仍然带有签名行的文件（相对路径，已排序）。
func Verify(dir string) ([]string, error) {
	var dirty []string
	err := filepath.WalkDir(dir, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		found, err := fileHasSignature(p)
		if err != nil {
			return err
		}
		if found {
			rel, relErr := filepath.Rel(dir, p)
			if relErr != nil {
				rel = p
			}
			dirty = append(dirty, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("verify rules: %w", err)
	}
	return dirty, nil
}

func fileHasSignature(p string) (bool, error) {
	file, err := os.Open(p)
	if err != nil {
		return false, err
	}
	defer file.Close()
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 4<<20)
	for scanner.Scan() {
		if strings.Contains(scanner.Text(), SignatureMarker) {
			return true, nil
		}
	}
	return false, scanner.Err()
}
