package app

import (
	"time"

	"github.com/goldierill/board/internal/pkg/cron"
)

func (a *App) registerJobs() {
	a.scheduler.Register(&cron.Task{
		Name:     "orphan-file-sweep",
		Interval: time.Hour,
		Fn:       a.uploadSvc.SweepOrphans,
	})
}
