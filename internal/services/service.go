/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
    "context"
    "sync"
    "sync/atomic"
    "time"

    "github.com/HamedShams/board-pulse/internal/adapters/github"
    "github.com/HamedShams/board-pulse/internal/config"
    "github.com/HamedShams/board-pulse/internal/domain"
    "github.com/rs/zerolog"
)

type Fetcher interface {
    FetchProjectItems(ctx context.Context) ([]github.Item, error)
}

type Store interface {
    UpsertTasks(ctx context.Context, tasks []domain.Task) error
    SyncAssignments(ctx context.Context, key string, assignees []string) error
    InsertSnapshots(ctx context.Context, day time.Time, entries []domain.SnapshotEntry) error
    UpsertDailyStat(ctx context.Context, ds domain.DailyStatistic) error
    HasDailyStats(ctx context.Context) (bool, error)
    ListTasks(ctx context.Context, f domain.TaskFilter) ([]domain.Task, error)
    GetDailyStats(ctx context.Context, days int) ([]domain.DailyStatistic, error)
}

type Service struct {
    cfg   config.Config
    log   zerolog.Logger
    store Store
    gh    Fetcher
    now   func() time.Time
    ready bool

    running     atomic.Bool
    mu          sync.Mutex
    lastRunAt   *time.Time
    lastOutcome string
    lastError   string
}

func New(cfg config.Config, log zerolog.Logger, store Store, gh Fetcher) *Service {
    return &Service{
        cfg:   cfg,
        log:   log,
        store: store,
        gh:    gh,
        now:   time.Now,
        ready: cfg.Validate() == nil,
    }
}

// RunPollCycle executes one full fetch-to-persist cycle. At most one cycle
// runs at a time; a trigger arriving while one is in flight is dropped with
// a logged skip and does not touch the last-run record.
func (s *Service) RunPollCycle(ctx context.Context) error {
    if !s.running.CompareAndSwap(false, true) {
        s.log.Info().Msg("poll: cycle already running, trigger skipped")
        return domain.ErrCycleRunning
    }
    defer s.running.Store(false)

    if s.cfg.FetchTimeout > 0 {
        var cancel context.CancelFunc
        ctx, cancel = context.WithTimeout(ctx, s.cfg.FetchTimeout)
        defer cancel()
    }

    err := s.cycle(ctx)
    s.finish(err)
    if err != nil {
        s.log.Error().Err(err).Msg("poll: cycle failed")
        return err
    }
    s.log.Info().Msg("poll: cycle complete")
    return nil
}

// cycle runs the fixed step sequence; any failure aborts the remaining steps.
func (s *Service) cycle(ctx context.Context) error {
    items, err := s.gh.FetchProjectItems(ctx)
    if err != nil { return err }

    tasks := make([]domain.Task, 0, len(items))
    for _, it := range items {
        if t, ok := Normalize(it); ok { tasks = append(tasks, t) }
    }
    s.log.Debug().Int("items", len(items)).Int("tasks", len(tasks)).Msg("poll: normalized")

    now := s.now()
    stats := ComputeStats(tasks, now)

    if err := s.store.UpsertTasks(ctx, tasks); err != nil { return err }
    for _, t := range tasks {
        if err := s.store.SyncAssignments(ctx, t.Key, t.Assignees); err != nil { return err }
    }

    day := dateOnly(now)
    entries := make([]domain.SnapshotEntry, 0, len(tasks))
    for _, t := range tasks {
        entries = append(entries, domain.SnapshotEntry{
            Key:     t.Key,
            State:   t.State,
            Status:  t.Status,
            Overdue: IsOverdue(t, now),
        })
    }
    if err := s.store.InsertSnapshots(ctx, day, entries); err != nil { return err }

    return s.store.UpsertDailyStat(ctx, domain.DailyStatistic{
        Day:     day,
        Total:   stats.Total,
        Open:    stats.Open,
        Closed:  stats.Closed,
        Overdue: stats.Overdue,
    })
}

func (s *Service) finish(err error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    at := s.now()
    s.lastRunAt = &at
    if err != nil {
        s.lastOutcome = "error"
        s.lastError = err.Error()
        return
    }
    s.lastOutcome = "success"
    s.lastError = ""
}

// Refresh starts a poll cycle in the background for a manual trigger.
func (s *Service) Refresh() error {
    if !s.ready { return domain.ErrNotInitialized }
    if s.running.Load() { return domain.ErrCycleRunning }
    go func() { _ = s.RunPollCycle(context.Background()) }()
    return nil
}

func (s *Service) Status() domain.SchedulerStatus {
    s.mu.Lock()
    defer s.mu.Unlock()
    st := domain.SchedulerStatus{
        Running:     s.running.Load(),
        LastOutcome: s.lastOutcome,
        LastError:   s.lastError,
    }
    if s.lastRunAt != nil { at := *s.lastRunAt; st.LastRunAt = &at }
    return st
}

// Backfill synthesizes and persists daily statistics for the window ending
// today. A write failure aborts the remaining days but leaves earlier days
// in place; re-running is idempotent per day.
func (s *Service) Backfill(ctx context.Context, windowDays int) error {
    tasks, err := s.store.ListTasks(ctx, domain.TaskFilter{})
    if err != nil { return err }
    series := SynthesizeHistory(tasks, windowDays, s.now())
    for _, ds := range series {
        if err := s.store.UpsertDailyStat(ctx, ds); err != nil {
            return err
        }
    }
    s.log.Info().Int("days", len(series)).Msg("backfill: daily statistics written")
    return nil
}

// StartupSync warms the store with one poll cycle and, when the database
// held no daily statistics beforehand, reconstructs the synthetic history
// window. The emptiness check has to happen before the poll: the cycle ends
// by writing today's row, which would otherwise mask a fresh database. The
// backfill itself has to come after, since it synthesizes from stored tasks.
func (s *Service) StartupSync(ctx context.Context) error {
    has, err := s.store.HasDailyStats(ctx)
    if err != nil { return err }
    if err := s.RunPollCycle(ctx); err != nil { return err }
    if has { return nil }
    return s.Backfill(ctx, s.cfg.BackfillDays)
}

// CurrentStats computes the aggregate over stored tasks.
func (s *Service) CurrentStats(ctx context.Context) (domain.Stats, error) {
    tasks, err := s.store.ListTasks(ctx, domain.TaskFilter{})
    if err != nil { return domain.Stats{}, err }
    return ComputeStats(tasks, s.now()), nil
}

// ListTasks returns stored tasks; the overdue filter is a derived predicate
// and is applied here rather than in SQL.
func (s *Service) ListTasks(ctx context.Context, f domain.TaskFilter) ([]domain.Task, error) {
    overdue := f.Overdue
    f.Overdue = nil
    tasks, err := s.store.ListTasks(ctx, f)
    if err != nil { return nil, err }
    if overdue == nil { return tasks, nil }
    now := s.now()
    out := make([]domain.Task, 0, len(tasks))
    for _, t := range tasks {
        if IsOverdue(t, now) == *overdue { out = append(out, t) }
    }
    return out, nil
}

func (s *Service) History(ctx context.Context, days int) ([]domain.DailyStatistic, error) {
    if days <= 0 { days = s.cfg.BackfillDays }
    return s.store.GetDailyStats(ctx, days)
}
