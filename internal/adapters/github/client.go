/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package github

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net/http"
    "strings"
    "time"

    "github.com/HamedShams/board-pulse/internal/config"
    "github.com/HamedShams/board-pulse/internal/domain"
    "github.com/rs/zerolog"
    "golang.org/x/oauth2"
)

const graphqlEndpoint = "https://api.github.com/graphql"

// Item is one raw ProjectV2 board entry as fetched, before normalization.
type Item struct {
    AddedAt time.Time
    Content *Content
    Fields  []FieldValue
}

// Content is the tagged issue/pull_request union attached to an item.
// Kind carries the GraphQL typename; draft notes arrive with no content.
type Content struct {
    Kind       string // "Issue" | "PullRequest"
    Title      string
    Number     int
    Repository string
    State      string // "OPEN" | "CLOSED" | "MERGED"
    Merged     bool
    Assignees  []string
    CreatedAt  time.Time
    UpdatedAt  time.Time
}

// FieldValue is one named custom-field value on an item.
type FieldValue struct {
    Field  string
    Text   string
    Date   *time.Time
    Option string
    Number *float64
}

type Client struct {
    endpoint string
    org      string
    project  int
    http     *http.Client
    log      zerolog.Logger
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
    src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.GitHubToken})
    return &Client{
        endpoint: graphqlEndpoint,
        org:      cfg.GitHubOrg,
        project:  cfg.ProjectNumber,
        http:     oauth2.NewClient(context.Background(), src),
        log:      log,
    }
}

const itemsQuery = `
query($org: String!, $number: Int!, $cursor: String) {
  organization(login: $org) {
    projectV2(number: $number) {
      items(first: 100, after: $cursor) {
        pageInfo { hasNextPage endCursor }
        nodes {
          createdAt
          content {
            __typename
            ... on Issue {
              title number state createdAt updatedAt
              repository { name }
              assignees(first: 20) { nodes { login } }
            }
            ... on PullRequest {
              title number state merged createdAt updatedAt
              repository { name }
              assignees(first: 20) { nodes { login } }
            }
          }
          fieldValues(first: 30) {
            nodes {
              __typename
              ... on ProjectV2ItemFieldTextValue { text field { ... on ProjectV2FieldCommon { name } } }
              ... on ProjectV2ItemFieldDateValue { date field { ... on ProjectV2FieldCommon { name } } }
              ... on ProjectV2ItemFieldSingleSelectValue { name field { ... on ProjectV2FieldCommon { name } } }
              ... on ProjectV2ItemFieldNumberValue { number field { ... on ProjectV2FieldCommon { name } } }
            }
          }
        }
      }
    }
  }
}`

type gqlItem struct {
    CreatedAt time.Time `json:"createdAt"`
    Content   *struct {
        Typename   string    `json:"__typename"`
        Title      string    `json:"title"`
        Number     int       `json:"number"`
        State      string    `json:"state"`
        Merged     bool      `json:"merged"`
        CreatedAt  time.Time `json:"createdAt"`
        UpdatedAt  time.Time `json:"updatedAt"`
        Repository struct {
            Name string `json:"name"`
        } `json:"repository"`
        Assignees struct {
            Nodes []struct {
                Login string `json:"login"`
            } `json:"nodes"`
        } `json:"assignees"`
    } `json:"content"`
    FieldValues struct {
        Nodes []struct {
            Typename string   `json:"__typename"`
            Text     string   `json:"text"`
            Date     string   `json:"date"`
            Name     string   `json:"name"`
            Number   *float64 `json:"number"`
            Field    struct {
                Name string `json:"name"`
            } `json:"field"`
        } `json:"nodes"`
    } `json:"fieldValues"`
}

type gqlResponse struct {
    Data struct {
        Organization struct {
            ProjectV2 *struct {
                Items struct {
                    PageInfo struct {
                        HasNextPage bool   `json:"hasNextPage"`
                        EndCursor   string `json:"endCursor"`
                    } `json:"pageInfo"`
                    Nodes []gqlItem `json:"nodes"`
                } `json:"items"`
            } `json:"projectV2"`
        } `json:"organization"`
    } `json:"data"`
    Errors []struct {
        Message string `json:"message"`
    } `json:"errors"`
}

// FetchProjectItems follows the cursor pagination until the server reports no
// further page and returns all items in the source's order. Transient failures
// (429/5xx) are retried a few times with backoff; anything else propagates as
// a TransportError.
func (c *Client) FetchProjectItems(ctx context.Context) ([]Item, error) {
    var out []Item
    cursor := ""
    for {
        resp, err := c.page(ctx, cursor)
        if err != nil { return nil, err }
        if resp.Data.Organization.ProjectV2 == nil {
            return nil, &domain.TransportError{Op: "fetch items", Err: fmt.Errorf("project %d not found in org %s", c.project, c.org)}
        }
        items := resp.Data.Organization.ProjectV2.Items
        for _, n := range items.Nodes { out = append(out, mapItem(n)) }
        if !items.PageInfo.HasNextPage { break }
        cursor = items.PageInfo.EndCursor
    }
    c.log.Debug().Int("items", len(out)).Msg("github: project items fetched")
    return out, nil
}

func (c *Client) page(ctx context.Context, cursor string) (*gqlResponse, error) {
    vars := map[string]any{"org": c.org, "number": c.project}
    if cursor != "" { vars["cursor"] = cursor }
    body, err := json.Marshal(map[string]any{"query": itemsQuery, "variables": vars})
    if err != nil { return nil, &domain.TransportError{Op: "encode query", Err: err} }

    var lastErr error
    for attempt := 0; attempt < 3; attempt++ {
        if attempt > 0 {
            select {
            case <-ctx.Done():
                return nil, &domain.TransportError{Op: "fetch page", Err: ctx.Err()}
            case <-time.After(time.Duration(300*(1<<attempt)) * time.Millisecond):
            }
        }
        req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
        if err != nil { return nil, &domain.TransportError{Op: "build request", Err: err} }
        req.Header.Set("Content-Type", "application/json")
        resp, err := c.http.Do(req)
        if err != nil { lastErr = err; continue }
        out, retry, err := decodePage(resp)
        if err == nil { return out, nil }
        lastErr = err
        if !retry { break }
    }
    return nil, &domain.TransportError{Op: "fetch page", Err: lastErr}
}

func decodePage(resp *http.Response) (*gqlResponse, bool, error) {
    defer resp.Body.Close()
    if resp.StatusCode >= 300 {
        b, _ := io.ReadAll(resp.Body)
        err := fmt.Errorf("github api status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(b)))
        // retry on 429/5xx only
        return nil, resp.StatusCode == 429 || resp.StatusCode >= 500, err
    }
    var out gqlResponse
    if err := json.NewDecoder(resp.Body).Decode(&out); err != nil { return nil, false, err }
    if len(out.Errors) > 0 {
        msgs := make([]string, 0, len(out.Errors))
        for _, e := range out.Errors { msgs = append(msgs, e.Message) }
        return nil, false, errors.New("graphql: " + strings.Join(msgs, "; "))
    }
    return &out, false, nil
}

func mapItem(n gqlItem) Item {
    it := Item{AddedAt: n.CreatedAt}
    if c := n.Content; c != nil && c.Typename != "" {
        content := &Content{
            Kind:       c.Typename,
            Title:      c.Title,
            Number:     c.Number,
            Repository: c.Repository.Name,
            State:      c.State,
            Merged:     c.Merged,
            CreatedAt:  c.CreatedAt,
            UpdatedAt:  c.UpdatedAt,
        }
        for _, a := range c.Assignees.Nodes { content.Assignees = append(content.Assignees, a.Login) }
        it.Content = content
    }
    for _, fv := range n.FieldValues.Nodes {
        if fv.Field.Name == "" { continue }
        v := FieldValue{Field: fv.Field.Name, Text: fv.Text, Option: fv.Name, Number: fv.Number}
        if fv.Date != "" {
            if d, err := time.Parse("2006-01-02", fv.Date); err == nil {
                v.Date = &d
            } else if d, err := time.Parse(time.RFC3339, fv.Date); err == nil {
                v.Date = &d
            }
        }
        it.Fields = append(it.Fields, v)
    }
    return it
}
