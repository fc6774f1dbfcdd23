package repo

import (
    "reflect"
    "testing"
)

func TestDiffAssignees(t *testing.T) {
    toClose, toOpen := DiffAssignees([]string{"A", "B"}, []string{"B", "C"})
    if !reflect.DeepEqual(toClose, []string{"A"}) {
        t.Fatalf("expected A closed, got %v", toClose)
    }
    if !reflect.DeepEqual(toOpen, []string{"C"}) {
        t.Fatalf("expected C opened, got %v", toOpen)
    }
}

func TestDiffAssignees_NoChange(t *testing.T) {
    toClose, toOpen := DiffAssignees([]string{"A"}, []string{"A"})
    if len(toClose) != 0 || len(toOpen) != 0 {
        t.Fatalf("unchanged set must be a no-op, got close=%v open=%v", toClose, toOpen)
    }
}

func TestDiffAssignees_EmptySides(t *testing.T) {
    toClose, toOpen := DiffAssignees(nil, []string{"A"})
    if len(toClose) != 0 || !reflect.DeepEqual(toOpen, []string{"A"}) {
        t.Fatalf("expected only opens, got close=%v open=%v", toClose, toOpen)
    }
    toClose, toOpen = DiffAssignees([]string{"A"}, nil)
    if !reflect.DeepEqual(toClose, []string{"A"}) || len(toOpen) != 0 {
        t.Fatalf("expected only closes, got close=%v open=%v", toClose, toOpen)
    }
}
