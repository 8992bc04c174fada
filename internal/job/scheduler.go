// 文件路径: internal/job/scheduler.go
// 模块说明: 这是 internal 模块里的 scheduler 逻辑，封装 cron 并统一任务超时与日志。
package job

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Runnable 表示由调度器触发的后台任务。
type Runnable interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler 封装 cron，并提供日志与优雅停机。
type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	timeout time.Duration
	mu      sync.Mutex
	started bool
}

const defaultJobTimeout = 2 * time.Minute

// NewScheduler 构建支持秒与自然描述的调度器，timeout 为单次任务的超时。
func NewScheduler(logger *slog.Logger, timeout time.Duration) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultJobTimeout
	}
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	// 上一次还没跑完时跳过本次触发
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	return &Scheduler{cron: c, logger: logger, timeout: timeout}
}

// Register 绑定 cron 表达式与任务。
func (s *Scheduler) Register(schedule string, runnable Runnable) (cron.EntryID, error) {
	if runnable == nil {
		return 0, fmt.Errorf("scheduler: runnable is required / runnable 不能为空")
	}
	if schedule == "" {
		return 0, fmt.Errorf("scheduler: schedule is required / schedule 不能为空")
	}
	entryID, err := s.cron.AddFunc(schedule, func() { _ = s.RunNow(context.Background(), runnable) })
	if err != nil {
		return 0, err
	}
	s.logger.Info("job registered", "job", runnable.Name(), "schedule", schedule)
	return entryID, nil
}

// Next 返回任务下一次触发的时间。
func (s *Scheduler) Next(id cron.EntryID) time.Time {
	return s.cron.Entry(id).Next
}

// Start 启动调度器并执行任务。
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.cron.Start()
	s.started = true
	s.mu.Unlock()
}

// Stop 停止调度器并等待执行中的任务结束。
func (s *Scheduler) Stop() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return context.Background()
	}
	s.started = false
	return s.cron.Stop()
}

// RunNow 立即执行一次任务，带超时与统一日志。
func (s *Scheduler) RunNow(parent context.Context, runnable Runnable) error {
	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()
	start := time.Now()
	if err := runnable.Run(ctx); err != nil {
		s.logger.Error("job failed", "job", runnable.Name(), "error", err, "elapsed", time.Since(start))
		return err
	}
	s.logger.Debug("job completed", "job", runnable.Name(), "elapsed", time.Since(start))
	return nil
}
