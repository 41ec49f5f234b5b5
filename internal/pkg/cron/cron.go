package cron

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a named job run on a fixed interval.
type Task struct {
	Name     string
	Interval time.Duration
	Fn       func(ctx context.Context) error
}

// TaskState is a snapshot of a task's run history.
type TaskState struct {
	Name     string     `json:"name"`
	Interval string     `json:"interval"`
	LastRun  *time.Time `json:"lastRun,omitempty"`
	LastErr  string     `json:"lastError,omitempty"`
	Runs     int        `json:"runs"`
}

// Scheduler runs registered tasks on their intervals until stopped.
type Scheduler struct {
	mu     sync.Mutex
	tasks  []*Task
	states map[string]*TaskState
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler() *Scheduler {
	return &Scheduler{states: map[string]*TaskState{}}
}

// Register adds a task. Must be called before Start.
func (s *Scheduler) Register(t *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, t)
	s.states[t.Name] = &TaskState{Name: t.Name, Interval: t.Interval.String()}
}

// Start launches one goroutine per task. Each task also runs once at startup.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancel = cancel
	tasks := s.tasks
	s.mu.Unlock()

	for _, t := range tasks {
		s.wg.Add(1)
		go s.runLoop(ctx, t)
	}
}

// Stop cancels all task loops and waits for running executions to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

// States returns a snapshot of every task's run history.
func (s *Scheduler) States() []TaskState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TaskState, 0, len(s.states))
	for _, t := range s.tasks {
		out = append(out, *s.states[t.Name])
	}
	return out
}

func (s *Scheduler) runLoop(ctx context.Context, t *Task) {
	defer s.wg.Done()

	s.execute(ctx, t)

	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.execute(ctx, t)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, t *Task) {
	err := t.Fn(ctx)

	now := time.Now()
	s.mu.Lock()
	st := s.states[t.Name]
	st.LastRun = &now
	st.Runs++
	if err != nil {
		st.LastErr = err.Error()
	} else {
		st.LastErr = ""
	}
	s.mu.Unlock()

	if err != nil {
		zap.L().Warn("scheduled task failed", zap.String("task", t.Name), zap.Error(err))
	}
}
