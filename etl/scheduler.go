package etl

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"bulletin-etl/utils"
)

// Scheduler triggers runs on a cron expression. A run that is still going
// when the next tick arrives makes that tick a no-op.
type Scheduler struct {
	cron   *cron.Cron
	runner *Runner
	logger *utils.Logger
	ctx    context.Context
}

// NewScheduler builds a scheduler for the standard 5-field cron expression expr.
// ctx is passed to every run.
func NewScheduler(ctx context.Context, expr string, runner *Runner, logger *utils.Logger) (*Scheduler, error) {
	cl := cronLogger{logger}
	s := &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		runner: runner,
		logger: logger,
		ctx:    ctx,
	}
	if _, err := s.cron.AddFunc(expr, s.runOnce); err != nil {
		return nil, fmt.Errorf("schedule %q: %w", expr, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	for _, e := range s.cron.Entries() {
		s.logger.Info("[schedule] Next run at %s", e.Next.Format("2006-01-02 15:04:05"))
	}
}

// Stop prevents new runs and returns a context that is done once the
// running one, if any, has finished.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("[schedule] Stopping scheduler")
	return s.cron.Stop()
}

func (s *Scheduler) runOnce() {
	if _, err := s.runner.Run(s.ctx); err != nil {
		s.logger.Error("[schedule] Run failed: %v", err)
	}
}

// cronLogger adapts utils.Logger to cron.Logger.
type cronLogger struct {
	l *utils.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("[cron] %s %v", msg, keysAndValues)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("[cron] %s: %v %v", msg, err, keysAndValues)
}
