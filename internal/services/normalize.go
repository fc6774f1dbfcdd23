package services

import (
    "fmt"
    "strings"
    "time"

    "github.com/HamedShams/board-pulse/internal/adapters/github"
    "github.com/HamedShams/board-pulse/internal/domain"
)

// statusField is matched case-insensitively against item field names.
const statusField = "status"

// dueFieldCandidates are tried in order; the first non-null date wins.
var dueFieldCandidates = []string{"target date", "due date", "due", "deadline"}

// Normalize maps a raw project item to a canonical Task. Items without
// attached content, and contents other than issues and pull requests
// (draft notes), yield ok=false and are silently dropped.
func Normalize(it github.Item) (domain.Task, bool) {
    c := it.Content
    if c == nil { return domain.Task{}, false }

    var kind string
    switch c.Kind {
    case "Issue":
        kind = domain.KindIssue
    case "PullRequest":
        kind = domain.KindPullRequest
    default:
        return domain.Task{}, false
    }

    state := mapState(kind, c.State, c.Merged)

    t := domain.Task{
        Key:        fmt.Sprintf("%s#%d", c.Repository, c.Number),
        Repository: c.Repository,
        Number:     c.Number,
        Title:      c.Title,
        Kind:       kind,
        State:      state,
        Status:     fieldOption(it.Fields, statusField),
        Assignees:  c.Assignees,
        DueAt:      dueDate(it.Fields),
    }
    if !c.CreatedAt.IsZero() { created := c.CreatedAt; t.CreatedAtSrc = &created }
    if !c.UpdatedAt.IsZero() { updated := c.UpdatedAt; t.UpdatedAtSrc = &updated }
    if !it.AddedAt.IsZero() { added := it.AddedAt; t.AddedAt = &added }
    return t, true
}

// mapState resolves the source lifecycle state. A merged terminal state is
// only meaningful for pull requests.
func mapState(kind, state string, merged bool) string {
    if kind == domain.KindPullRequest && (merged || strings.EqualFold(state, "MERGED")) {
        return domain.StateMerged
    }
    switch strings.ToUpper(state) {
    case "OPEN":
        return domain.StateOpen
    case "CLOSED":
        return domain.StateClosed
    default:
        return strings.ToLower(state)
    }
}

func fieldOption(fields []github.FieldValue, name string) string {
    for _, f := range fields {
        if !strings.EqualFold(f.Field, name) { continue }
        if f.Option != "" { return f.Option }
        if f.Text != "" { return f.Text }
    }
    return ""
}

func dueDate(fields []github.FieldValue) *time.Time {
    for _, cand := range dueFieldCandidates {
        for _, f := range fields {
            if strings.EqualFold(f.Field, cand) && f.Date != nil {
                d := *f.Date
                return &d
            }
        }
    }
    return nil
}
