// 文件路径: internal/converter/converter.go
// 模块说明: 这是 internal 模块里的 converter 逻辑，串起一次完整转换：读取订阅、解析链接、校验节点、渲染配置。
package converter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/creamcroissant/autoconvert/internal/policy"
	"github.com/creamcroissant/autoconvert/internal/protocol"
	"github.com/creamcroissant/autoconvert/internal/proxy"
	"github.com/creamcroissant/autoconvert/internal/subscribe"
)

var ErrNoValidProxies = errors.New("converter: no valid proxies / 订阅中没有可用节点")

// Loader 读取订阅原文，由 fetch.Fetcher 实现。
type Loader interface {
	Load(ctx context.Context, source string) ([]byte, error)
}

// Options 配置转换器，零值字段使用默认值。
type Options struct {
	Manager *protocol.Manager
	Policy  *policy.Policy
	Logger  *slog.Logger
	Metrics *Metrics
	Now     func() time.Time
}

// Converter 执行订阅转换。
type Converter struct {
	loader  Loader
	manager *protocol.Manager
	policy  *policy.Policy
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time
}

// Request 描述一次转换。
type Request struct {
	Source string
	// Formats 为空时按 Flag / UserAgent 只渲染一种格式。
	Formats    []protocol.Format
	Flag       string
	UserAgent  string
	ManagedURL string
}

// Outcome 是一次转换的结果。
type Outcome struct {
	RunID       string
	GeneratedAt time.Time
	Batch       subscribe.Batch
	Valid       []proxy.Proxy
	Results     []*protocol.Result
}

// Excluded 返回解析成功但未通过校验的节点数。
func (o *Outcome) Excluded() int {
	return len(o.Batch.Proxies) - len(o.Valid)
}

func New(loader Loader, opts Options) *Converter {
	manager := opts.Manager
	if manager == nil {
		manager = protocol.NewDefaultManager(protocol.SurgeOptions{}, protocol.ClashOptions{})
	}
	pol := opts.Policy
	if pol == nil {
		pol = policy.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Converter{
		loader:  loader,
		manager: manager,
		policy:  pol,
		logger:  logger,
		metrics: opts.Metrics,
		now:     now,
	}
}

// Run 读取订阅后执行转换。读取失败与没有可用节点都会返回错误。
func (c *Converter) Run(ctx context.Context, req Request) (*Outcome, error) {
	started := time.Now()
	raw, err := c.loader.Load(ctx, req.Source)
	if err != nil {
		c.metrics.observeRun(resultFetchError, started)
		return nil, fmt.Errorf("load subscription: %w", err)
	}
	return c.convert(ctx, raw, req, started)
}

// Convert 转换已经读取到的订阅内容。
func (c *Converter) Convert(ctx context.Context, raw []byte, req Request) (*Outcome, error) {
	return c.convert(ctx, raw, req, time.Now())
}

func (c *Converter) convert(ctx context.Context, raw []byte, req Request, started time.Time) (*Outcome, error) {
	out := &Outcome{
		RunID:       uuid.NewString(),
		GeneratedAt: c.now(),
		Batch:       subscribe.Parse(raw),
	}
	logger := c.logger.With("run_id", out.RunID)

	for _, failure := range out.Batch.Failures {
		logger.Warn("proxy link parse failed",
			"index", failure.Index,
			"kind", failure.Kind.String(),
			"reason", failure.Reason(),
		)
		c.metrics.addLinks(failure.Kind.String(), "failed", 1)
	}
	c.metrics.addLinks("unknown", "skipped", out.Batch.Skipped)

	out.Valid = make([]proxy.Proxy, 0, len(out.Batch.Proxies))
	for _, p := range out.Batch.Proxies {
		if missing := proxy.Missing(p); len(missing) > 0 {
			logger.Debug("proxy excluded", "name", p.Name, "kind", p.Kind.String(), "missing", strings.Join(missing, ","))
			c.metrics.addLinks(p.Kind.String(), "excluded", 1)
			continue
		}
		out.Valid = append(out.Valid, p)
		c.metrics.addLinks(p.Kind.String(), "valid", 1)
	}

	if len(out.Valid) == 0 {
		c.metrics.observeRun(resultEmpty, started)
		logger.Error("no valid proxies in subscription",
			"parsed", len(out.Batch.Proxies),
			"failed", len(out.Batch.Failures),
			"skipped", out.Batch.Skipped,
		)
		return out, ErrNoValidProxies
	}

	buildReq := protocol.BuildRequest{
		Context:     ctx,
		Proxies:     out.Valid,
		Policy:      c.policy,
		Flag:        req.Flag,
		UserAgent:   req.UserAgent,
		ManagedURL:  req.ManagedURL,
		GeneratedAt: out.GeneratedAt,
	}
	if len(req.Formats) == 0 {
		result, err := c.manager.Build(buildReq)
		if err != nil {
			c.metrics.observeRun(resultRenderError, started)
			return out, fmt.Errorf("render: %w", err)
		}
		out.Results = []*protocol.Result{result}
	} else {
		results, err := c.manager.BuildAll(buildReq, req.Formats)
		if err != nil {
			c.metrics.observeRun(resultRenderError, started)
			return out, err
		}
		out.Results = results
	}

	c.metrics.observeRun(resultOK, started)
	logger.Info("conversion finished",
		"proxies", len(out.Valid),
		"excluded", out.Excluded(),
		"failed", len(out.Batch.Failures),
		"skipped", out.Batch.Skipped,
		"formats", formatNames(out.Results),
	)
	return out, nil
}

// WriteFiles 把渲染结果写成 <prefix>.surge.conf / <prefix>.clash.yaml，返回写入的路径。
func WriteFiles(prefix string, results []*protocol.Result) ([]string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "config"
	}
	if dir := filepath.Dir(prefix); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}
	paths := make([]string, 0, len(results))
	for _, result := range results {
		target := prefix + result.Format.FileSuffix()
		if err := os.WriteFile(target, result.Payload, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", result.Format, err)
		}
		paths = append(paths, target)
	}
	return paths, nil
}

func formatNames(results []*protocol.Result) []string {
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, string(r.Format))
	}
	return names
}
