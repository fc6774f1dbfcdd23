package github

import (
    "context"
    "encoding/json"
    "errors"
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/HamedShams/board-pulse/internal/domain"
    "github.com/rs/zerolog"
)

func page(hasNext bool, cursor string, nodes ...any) string {
    b, _ := json.Marshal(map[string]any{
        "data": map[string]any{
            "organization": map[string]any{
                "projectV2": map[string]any{
                    "items": map[string]any{
                        "pageInfo": map[string]any{"hasNextPage": hasNext, "endCursor": cursor},
                        "nodes":    nodes,
                    },
                },
            },
        },
    })
    return string(b)
}

func issueNode(repo string, number int) map[string]any {
    return map[string]any{
        "createdAt": "2025-08-01T10:00:00Z",
        "content": map[string]any{
            "__typename": "Issue",
            "title":      "t",
            "number":     number,
            "state":      "OPEN",
            "createdAt":  "2025-07-01T10:00:00Z",
            "updatedAt":  "2025-08-01T10:00:00Z",
            "repository": map[string]any{"name": repo},
            "assignees":  map[string]any{"nodes": []any{map[string]any{"login": "alice"}}},
        },
        "fieldValues": map[string]any{"nodes": []any{
            map[string]any{"__typename": "ProjectV2ItemFieldDateValue", "date": "2025-09-01", "field": map[string]any{"name": "Target Date"}},
        }},
    }
}

func TestFetchProjectItems_FollowsPagination(t *testing.T) {
    var cursors []string
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        var req struct {
            Variables map[string]any `json:"variables"`
        }
        _ = json.NewDecoder(r.Body).Decode(&req)
        c, _ := req.Variables["cursor"].(string)
        cursors = append(cursors, c)
        if c == "" {
            _, _ = w.Write([]byte(page(true, "CUR1", issueNode("backend", 1))))
            return
        }
        _, _ = w.Write([]byte(page(false, "", issueNode("backend", 2))))
    }))
    defer srv.Close()

    c := &Client{endpoint: srv.URL, org: "acme", project: 1, http: srv.Client(), log: zerolog.Nop()}
    items, err := c.FetchProjectItems(context.Background())
    if err != nil { t.Fatalf("fetch failed: %v", err) }
    if len(items) != 2 {
        t.Fatalf("expected pages accumulated into 2 items, got %d", len(items))
    }
    if len(cursors) != 2 || cursors[1] != "CUR1" {
        t.Fatalf("cursor not threaded through pagination: %v", cursors)
    }
    it := items[0]
    if it.Content == nil || it.Content.Kind != "Issue" || it.Content.Repository != "backend" {
        t.Fatalf("content not mapped: %+v", it.Content)
    }
    if len(it.Fields) != 1 || it.Fields[0].Field != "Target Date" || it.Fields[0].Date == nil {
        t.Fatalf("field values not mapped: %+v", it.Fields)
    }
}

func TestFetchProjectItems_GraphQLErrorIsTransportError(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        _, _ = w.Write([]byte(`{"errors":[{"message":"bad credentials"}]}`))
    }))
    defer srv.Close()

    c := &Client{endpoint: srv.URL, org: "acme", project: 1, http: srv.Client(), log: zerolog.Nop()}
    _, err := c.FetchProjectItems(context.Background())
    var te *domain.TransportError
    if !errors.As(err, &te) {
        t.Fatalf("expected TransportError, got %v", err)
    }
}

func TestFetchProjectItems_MissingProject(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        _, _ = w.Write([]byte(`{"data":{"organization":{"projectV2":null}}}`))
    }))
    defer srv.Close()

    c := &Client{endpoint: srv.URL, org: "acme", project: 99, http: srv.Client(), log: zerolog.Nop()}
    _, err := c.FetchProjectItems(context.Background())
    var te *domain.TransportError
    if !errors.As(err, &te) {
        t.Fatalf("expected TransportError for missing project, got %v", err)
    }
}
