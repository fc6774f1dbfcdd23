package domain

import "time"

// Task kind discriminants.
const (
    KindIssue       = "issue"
    KindPullRequest = "pull_request"
)

// Task lifecycle states.
const (
    StateOpen   = "open"
    StateClosed = "closed"
    StateMerged = "merged"
)

// Reserved grouping buckets for tasks missing the keyed attribute.
const (
    BucketUnassigned = "unassigned"
    BucketUnknown    = "unknown"
    BucketNoStatus   = "no-status"
)

type Task struct {
    ID           int64      `json:"id"`
    Key          string     `json:"key"` // repository#number, stable across polls
    Repository   string     `json:"repository"`
    Number       int        `json:"number"`
    Title        string     `json:"title"`
    Kind         string     `json:"kind"`
    State        string     `json:"state"`
    Status       string     `json:"status,omitempty"`
    Assignees    []string   `json:"assignees,omitempty"`
    DueAt        *time.Time `json:"due_at,omitempty"`
    CreatedAtSrc *time.Time `json:"created_at"`
    UpdatedAtSrc *time.Time `json:"updated_at"`
    AddedAt      *time.Time `json:"added_at,omitempty"`
    LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
}

// Closed reports whether the task is in a terminal state.
func (t Task) Closed() bool { return t.State == StateClosed || t.State == StateMerged }

type Assignment struct {
    ID           int64      `json:"id"`
    TaskID       int64      `json:"task_id"`
    Assignee     string     `json:"assignee"`
    AssignedAt   time.Time  `json:"assigned_at"`
    UnassignedAt *time.Time `json:"unassigned_at,omitempty"`
}

type Snapshot struct {
    ID      int64     `json:"id"`
    TaskID  int64     `json:"task_id"`
    Day     time.Time `json:"day"`
    State   string    `json:"state"`
    Status  string    `json:"status,omitempty"`
    Overdue bool      `json:"overdue"`
}

type DailyStatistic struct {
    Day     time.Time `json:"day"`
    Total   int       `json:"total"`
    Open    int       `json:"open"`
    Closed  int       `json:"closed"`
    Overdue int       `json:"overdue"`
}

// Stats is the point-in-time aggregate handed to the reconciler and the API.
type Stats struct {
    Total        int            `json:"total"`
    Open         int            `json:"open"`
    Closed       int            `json:"closed"`
    Overdue      int            `json:"overdue"`
    OverdueTasks []Task         `json:"overdue_tasks,omitempty"`
    ByRepository map[string]int `json:"by_repository,omitempty"`
    ByAssignee   map[string]int `json:"by_assignee,omitempty"`
    ByStatus     map[string]int `json:"by_status,omitempty"`
}

// SnapshotEntry is one task's state for today's snapshot write, addressed
// by external key so the store resolves the task row itself.
type SnapshotEntry struct {
    Key     string
    State   string
    Status  string
    Overdue bool
}

// SchedulerStatus mirrors the poll scheduler's state machine for the API.
type SchedulerStatus struct {
    Running     bool       `json:"running"`
    LastRunAt   *time.Time `json:"last_run_at,omitempty"`
    LastOutcome string     `json:"last_outcome,omitempty"`
    LastError   string     `json:"last_error,omitempty"`
}

// TaskFilter narrows task listings on the read path.
type TaskFilter struct {
    State      string
    Repository string
    Assignee   string
    Overdue    *bool
}
