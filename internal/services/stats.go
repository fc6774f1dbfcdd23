package services

import (
    "time"

    "github.com/HamedShams/board-pulse/internal/domain"
)

// dateOnly strips the time of day, keeping the timestamp's own calendar day.
func dateOnly(t time.Time) time.Time {
    y, m, d := t.Date()
    return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsOverdue reports whether the task is open with a due date on or before
// now's calendar day. The boundary is inclusive: due today counts as overdue.
// Closed and merged tasks are never overdue regardless of due date.
func IsOverdue(t domain.Task, now time.Time) bool {
    if t.DueAt == nil || t.State != domain.StateOpen { return false }
    return !dateOnly(*t.DueAt).After(dateOnly(now))
}

// ComputeStats derives the point-in-time aggregate for a task collection.
// Deterministic for a fixed now.
func ComputeStats(tasks []domain.Task, now time.Time) domain.Stats {
    st := domain.Stats{Total: len(tasks)}
    for _, t := range tasks {
        switch {
        case t.State == domain.StateOpen:
            st.Open++
        case t.Closed():
            st.Closed++
        }
        if IsOverdue(t, now) {
            st.Overdue++
            st.OverdueTasks = append(st.OverdueTasks, t)
        }
    }
    st.ByRepository = GroupByRepository(tasks)
    st.ByAssignee = GroupByAssignee(tasks)
    st.ByStatus = GroupByStatus(tasks)
    return st
}

// GroupByRepository counts tasks per repository; a missing repository name
// falls into the "unknown" bucket.
func GroupByRepository(tasks []domain.Task) map[string]int {
    out := map[string]int{}
    for _, t := range tasks {
        key := t.Repository
        if key == "" { key = domain.BucketUnknown }
        out[key]++
    }
    return out
}

// GroupByAssignee counts tasks per assignee. The partition is intentionally
// non-exclusive: a task with several assignees counts once under each, so the
// values may sum to more than the task total. Zero assignees goes to the
// "unassigned" bucket.
func GroupByAssignee(tasks []domain.Task) map[string]int {
    out := map[string]int{}
    for _, t := range tasks {
        if len(t.Assignees) == 0 {
            out[domain.BucketUnassigned]++
            continue
        }
        for _, a := range t.Assignees { out[a]++ }
    }
    return out
}

// GroupByStatus counts tasks per project status label; tasks without one
// fall into the "no-status" bucket.
func GroupByStatus(tasks []domain.Task) map[string]int {
    out := map[string]int{}
    for _, t := range tasks {
        key := t.Status
        if key == "" { key = domain.BucketNoStatus }
        out[key]++
    }
    return out
}
