package repo

import (
    "context"
    "errors"
    "time"

    "github.com/HamedShams/board-pulse/internal/config"
    "github.com/HamedShams/board-pulse/internal/domain"
    "github.com/jackc/pgx/v5"
    "github.com/jackc/pgx/v5/pgxpool"
    "github.com/rs/zerolog"
)

type DB struct {
    Pool *pgxpool.Pool
    log  zerolog.Logger
}

func MustOpen(ctx context.Context, cfg config.Config, log zerolog.Logger) *DB {
    pool, err := pgxpool.New(ctx, cfg.DBDSN)
    if err != nil { log.Fatal().Err(err).Msg("db connect failed") }
    ctx2, cancel := context.WithTimeout(ctx, 10*time.Second); defer cancel()
    if err := pool.Ping(ctx2); err != nil { log.Fatal().Err(err).Msg("db ping failed") }
    return &DB{Pool: pool, log: log}
}

func (d *DB) Close() { d.Pool.Close() }

type Repository struct {
    db  *DB
    log zerolog.Logger
}

func NewRepository(d *DB, log zerolog.Logger) *Repository { return &Repository{db: d, log: log} }

// UpsertTasks inserts or updates every task by its external key in a single
// transaction; a failed upsert rolls back the whole batch. Updates touch only
// the mutable fields plus last_synced_at; identity and creation timestamps
// are write-once.
func (r *Repository) UpsertTasks(ctx context.Context, tasks []domain.Task) error {
    if len(tasks) == 0 { return nil }
    const q = `
        INSERT INTO tasks(external_key, repository, number, title, kind, state, status,
            due_at, created_at_src, updated_at_src, added_at, last_synced_at)
        VALUES($1,$2,$3,$4,$5,$6,NULLIF($7,''),$8,$9,$10,$11,now())
        ON CONFLICT(external_key) DO UPDATE SET
            title=EXCLUDED.title,
            state=EXCLUDED.state,
            status=EXCLUDED.status,
            due_at=EXCLUDED.due_at,
            updated_at_src=EXCLUDED.updated_at_src,
            last_synced_at=now()`
    tx, err := r.db.Pool.Begin(ctx)
    if err != nil { return &domain.PersistenceError{Op: "begin upsert", Err: err} }
    defer tx.Rollback(ctx)
    for _, t := range tasks {
        if _, err := tx.Exec(ctx, q, t.Key, t.Repository, t.Number, t.Title, t.Kind, t.State, t.Status,
            t.DueAt, t.CreatedAtSrc, t.UpdatedAtSrc, t.AddedAt); err != nil {
            return &domain.PersistenceError{Op: "upsert task " + t.Key, Err: err}
        }
    }
    if err := tx.Commit(ctx); err != nil { return &domain.PersistenceError{Op: "commit upsert", Err: err} }
    return nil
}

// DiffAssignees splits the reported set against the currently open set:
// assignees no longer reported are closed, newly reported ones are opened,
// unchanged ones are untouched.
func DiffAssignees(current, reported []string) (toClose, toOpen []string) {
    cur := map[string]struct{}{}
    for _, a := range current { cur[a] = struct{}{} }
    rep := map[string]struct{}{}
    for _, a := range reported { rep[a] = struct{}{} }
    for _, a := range current {
        if _, ok := rep[a]; !ok { toClose = append(toClose, a) }
    }
    for _, a := range reported {
        if _, ok := cur[a]; !ok { toOpen = append(toOpen, a) }
    }
    return toClose, toOpen
}

// SyncAssignments reconciles the open assignment set of one task against the
// reported assignees as one atomic unit. Closed assignment records are never
// mutated.
func (r *Repository) SyncAssignments(ctx context.Context, key string, assignees []string) error {
    tx, err := r.db.Pool.Begin(ctx)
    if err != nil { return &domain.PersistenceError{Op: "begin assignment sync", Err: err} }
    defer tx.Rollback(ctx)

    var taskID int64
    err = tx.QueryRow(ctx, `SELECT id FROM tasks WHERE external_key=$1`, key).Scan(&taskID)
    if errors.Is(err, pgx.ErrNoRows) { return domain.ErrTaskNotFound }
    if err != nil { return &domain.PersistenceError{Op: "lookup task " + key, Err: err} }

    rows, err := tx.Query(ctx, `SELECT assignee FROM assignments WHERE task_id=$1 AND unassigned_at IS NULL`, taskID)
    if err != nil { return &domain.PersistenceError{Op: "list open assignments", Err: err} }
    var current []string
    for rows.Next() {
        var a string
        if err := rows.Scan(&a); err != nil { rows.Close(); return &domain.PersistenceError{Op: "scan assignment", Err: err} }
        current = append(current, a)
    }
    rows.Close()
    if err := rows.Err(); err != nil { return &domain.PersistenceError{Op: "list open assignments", Err: err} }

    toClose, toOpen := DiffAssignees(current, assignees)
    for _, a := range toClose {
        if _, err := tx.Exec(ctx, `UPDATE assignments SET unassigned_at=now() WHERE task_id=$1 AND assignee=$2 AND unassigned_at IS NULL`, taskID, a); err != nil {
            return &domain.PersistenceError{Op: "close assignment", Err: err}
        }
    }
    for _, a := range toOpen {
        if _, err := tx.Exec(ctx, `INSERT INTO assignments(task_id, assignee, assigned_at) VALUES($1,$2,now())`, taskID, a); err != nil {
            return &domain.PersistenceError{Op: "open assignment", Err: err}
        }
    }
    if err := tx.Commit(ctx); err != nil { return &domain.PersistenceError{Op: "commit assignment sync", Err: err} }
    return nil
}

// InsertSnapshots writes at most one snapshot row per task for the given day;
// repeating the call on the same day is a no-op.
func (r *Repository) InsertSnapshots(ctx context.Context, day time.Time, entries []domain.SnapshotEntry) error {
    if len(entries) == 0 { return nil }
    batch := &pgx.Batch{}
    const q = `INSERT INTO snapshots(task_id, day, state, status, overdue)
        SELECT id, $2, $3, NULLIF($4,''), $5 FROM tasks WHERE external_key=$1
        ON CONFLICT (task_id, day) DO NOTHING`
    for _, e := range entries { batch.Queue(q, e.Key, day, e.State, e.Status, e.Overdue) }
    br := r.db.Pool.SendBatch(ctx, batch)
    defer br.Close()
    for range entries {
        if _, err := br.Exec(); err != nil { return &domain.PersistenceError{Op: "insert snapshot", Err: err} }
    }
    return nil
}

// UpsertDailyStat overwrites the aggregate row for the given date.
func (r *Repository) UpsertDailyStat(ctx context.Context, ds domain.DailyStatistic) error {
    const q = `INSERT INTO daily_statistics(day, total, open, closed, overdue)
        VALUES($1,$2,$3,$4,$5)
        ON CONFLICT (day) DO UPDATE SET
            total=EXCLUDED.total,
            open=EXCLUDED.open,
            closed=EXCLUDED.closed,
            overdue=EXCLUDED.overdue`
    if _, err := r.db.Pool.Exec(ctx, q, ds.Day, ds.Total, ds.Open, ds.Closed, ds.Overdue); err != nil {
        return &domain.PersistenceError{Op: "upsert daily stat", Err: err}
    }
    return nil
}

func (r *Repository) HasDailyStats(ctx context.Context) (bool, error) {
    var has bool
    if err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM daily_statistics)`).Scan(&has); err != nil {
        return false, &domain.PersistenceError{Op: "check daily stats", Err: err}
    }
    return has, nil
}

// ListTasks returns stored tasks with their open assignees, optionally
// filtered by state, repository, and assignee.
func (r *Repository) ListTasks(ctx context.Context, f domain.TaskFilter) ([]domain.Task, error) {
    const q = `
        SELECT t.id, t.external_key, t.repository, t.number, t.title, t.kind, t.state,
            COALESCE(t.status,''), t.due_at, t.created_at_src, t.updated_at_src, t.added_at, t.last_synced_at,
            COALESCE(array_agg(a.assignee ORDER BY a.assigned_at) FILTER (WHERE a.assignee IS NOT NULL), '{}')
        FROM tasks t
        LEFT JOIN assignments a ON a.task_id = t.id AND a.unassigned_at IS NULL
        WHERE ($1 = '' OR t.state = $1)
          AND ($2 = '' OR t.repository = $2)
          AND ($3 = '' OR EXISTS(
              SELECT 1 FROM assignments x WHERE x.task_id = t.id AND x.assignee = $3 AND x.unassigned_at IS NULL))
        GROUP BY t.id
        ORDER BY t.repository, t.number`
    rows, err := r.db.Pool.Query(ctx, q, f.State, f.Repository, f.Assignee)
    if err != nil { return nil, &domain.PersistenceError{Op: "list tasks", Err: err} }
    defer rows.Close()
    var out []domain.Task
    for rows.Next() {
        var t domain.Task
        if err := rows.Scan(&t.ID, &t.Key, &t.Repository, &t.Number, &t.Title, &t.Kind, &t.State,
            &t.Status, &t.DueAt, &t.CreatedAtSrc, &t.UpdatedAtSrc, &t.AddedAt, &t.LastSyncedAt,
            &t.Assignees); err != nil {
            return nil, &domain.PersistenceError{Op: "scan task", Err: err}
        }
        out = append(out, t)
    }
    if err := rows.Err(); err != nil { return nil, &domain.PersistenceError{Op: "list tasks", Err: err} }
    return out, nil
}

// GetDailyStats returns the last days daily rows in chronological order.
// Callers own the window defaulting.
func (r *Repository) GetDailyStats(ctx context.Context, days int) ([]domain.DailyStatistic, error) {
    rows, err := r.db.Pool.Query(ctx, `SELECT day, total, open, closed, overdue
        FROM daily_statistics ORDER BY day DESC LIMIT $1`, days)
    if err != nil { return nil, &domain.PersistenceError{Op: "get daily stats", Err: err} }
    defer rows.Close()
    var out []domain.DailyStatistic
    for rows.Next() {
        var ds domain.DailyStatistic
        if err := rows.Scan(&ds.Day, &ds.Total, &ds.Open, &ds.Closed, &ds.Overdue); err != nil {
            return nil, &domain.PersistenceError{Op: "scan daily stat", Err: err}
        }
        out = append(out, ds)
    }
    if err := rows.Err(); err != nil { return nil, &domain.PersistenceError{Op: "get daily stats", Err: err} }
    for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 { out[i], out[j] = out[j], out[i] }
    return out, nil
}
