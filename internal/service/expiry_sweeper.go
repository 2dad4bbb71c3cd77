package service

import (
	"context"
	"exam_engine_backend/pkg/logger"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ExpirySweeper 定时收卷被放弃的作答
type ExpirySweeper struct {
	attempts *AttemptService
	schedule string
	timeout  time.Duration
	cron     *cron.Cron
}

func NewExpirySweeper(attempts *AttemptService, schedule string) *ExpirySweeper {
	return &ExpirySweeper{
		attempts: attempts,
		schedule: schedule,
		timeout:  time.Minute,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
	}
}

// Start 调度表达式为空时不启动
func (w *ExpirySweeper) Start() error {
	if w.schedule == "" {
		logger.Log.Info("expiry sweeper disabled")
		return nil
	}
	if _, err := w.cron.AddFunc(w.schedule, w.run); err != nil {
		return err
	}
	w.cron.Start()
	logger.Log.Info("expiry sweeper started", zap.String("schedule", w.schedule))
	return nil
}

// Stop 等待正在执行的任务结束
func (w *ExpirySweeper) Stop() {
	<-w.cron.Stop().Done()
}

func (w *ExpirySweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	if _, err := w.Sweep(ctx); err != nil {
		logger.Log.Error("expiry sweep failed", zap.Error(err))
	}
}

func (w *ExpirySweeper) Sweep(ctx context.Context) (int, error) {
	n, err := w.attempts.ExpireAbandoned(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.Log.Info("expired abandoned attempts", zap.Int("count", n))
	}
	return n, nil
}
