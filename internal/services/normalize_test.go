package services

import (
    "testing"
    "time"

    "github.com/HamedShams/board-pulse/internal/adapters/github"
    "github.com/HamedShams/board-pulse/internal/domain"
)

func issueItem(repo string, number int, state string) github.Item {
    created := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
    return github.Item{
        AddedAt: created.Add(time.Hour),
        Content: &github.Content{
            Kind:       "Issue",
            Title:      "a title",
            Number:     number,
            Repository: repo,
            State:      state,
            CreatedAt:  created,
            UpdatedAt:  created.Add(48 * time.Hour),
        },
    }
}

func TestNormalize_DropsDraftsAndMissingContent(t *testing.T) {
    if _, ok := Normalize(github.Item{}); ok {
        t.Fatalf("item without content should be dropped")
    }
    draft := github.Item{Content: &github.Content{Kind: "DraftIssue", Title: "note"}}
    if _, ok := Normalize(draft); ok {
        t.Fatalf("draft item should be dropped")
    }
}

func TestNormalize_KeyAndStateMapping(t *testing.T) {
    task, ok := Normalize(issueItem("backend", 42, "OPEN"))
    if !ok { t.Fatalf("expected a task") }
    if task.Key != "backend#42" { t.Fatalf("unexpected key %q", task.Key) }
    if task.Kind != domain.KindIssue || task.State != domain.StateOpen {
        t.Fatalf("unexpected kind/state %q/%q", task.Kind, task.State)
    }

    closed, _ := Normalize(issueItem("backend", 43, "CLOSED"))
    if closed.State != domain.StateClosed { t.Fatalf("expected closed, got %q", closed.State) }
}

func TestNormalize_MergedOnlyForPullRequests(t *testing.T) {
    pr := issueItem("backend", 7, "MERGED")
    pr.Content.Kind = "PullRequest"
    pr.Content.Merged = true
    task, ok := Normalize(pr)
    if !ok { t.Fatalf("expected a task") }
    if task.State != domain.StateMerged || task.Kind != domain.KindPullRequest {
        t.Fatalf("merged PR mapped to %q/%q", task.Kind, task.State)
    }

    // an issue can never be merged; the raw state maps through lowercased
    odd := issueItem("backend", 8, "MERGED")
    task2, _ := Normalize(odd)
    if task2.State == domain.StateMerged && task2.Kind == domain.KindIssue {
        t.Fatalf("issue must not map to merged")
    }
}

func TestNormalize_FieldExtraction(t *testing.T) {
    d1 := time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC)
    d2 := time.Date(2025, 9, 20, 0, 0, 0, 0, time.UTC)
    it := issueItem("web", 5, "OPEN")
    it.Fields = []github.FieldValue{
        {Field: "Status", Option: "In Progress"},
        {Field: "Due Date", Date: &d2},
        {Field: "Target Date", Date: &d1},
    }
    task, _ := Normalize(it)
    if task.Status != "In Progress" {
        t.Fatalf("status not extracted case-insensitively: %q", task.Status)
    }
    // "target date" outranks "due date" regardless of field order
    if task.DueAt == nil || !task.DueAt.Equal(d1) {
        t.Fatalf("expected first candidate match %v, got %v", d1, task.DueAt)
    }
}

func TestNormalize_DueDateFallsBackToAlternates(t *testing.T) {
    d := time.Date(2025, 9, 20, 0, 0, 0, 0, time.UTC)
    it := issueItem("web", 6, "OPEN")
    it.Fields = []github.FieldValue{{Field: "Deadline", Date: &d}}
    task, _ := Normalize(it)
    if task.DueAt == nil || !task.DueAt.Equal(d) {
        t.Fatalf("expected fallback candidate match, got %v", task.DueAt)
    }
}

func TestNormalize_Assignees(t *testing.T) {
    it := issueItem("web", 9, "OPEN")
    it.Content.Assignees = []string{"alice", "bob"}
    task, _ := Normalize(it)
    if len(task.Assignees) != 2 || task.Assignees[0] != "alice" || task.Assignees[1] != "bob" {
        t.Fatalf("assignees not carried over: %v", task.Assignees)
    }
}
