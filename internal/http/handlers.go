/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package http

import (
    "context"
    "errors"
    "net/http"
    "strconv"

    "github.com/HamedShams/board-pulse/internal/config"
    "github.com/HamedShams/board-pulse/internal/domain"
    "github.com/gin-gonic/gin"
    "github.com/rs/zerolog"
)

type service interface {
    CurrentStats(ctx context.Context) (domain.Stats, error)
    ListTasks(ctx context.Context, f domain.TaskFilter) ([]domain.Task, error)
    History(ctx context.Context, days int) ([]domain.DailyStatistic, error)
    Refresh() error
    Status() domain.SchedulerStatus
}

type Handlers struct {
    cfg config.Config
    log zerolog.Logger
    svc service
}

func NewHandlers(cfg config.Config, log zerolog.Logger, svc service) *Handlers {
    return &Handlers{cfg: cfg, log: log, svc: svc}
}

func (h *Handlers) Healthz(c *gin.Context) {
    c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handlers) Stats(c *gin.Context) {
    st, err := h.svc.CurrentStats(c.Request.Context())
    if err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }
    c.JSON(http.StatusOK, st)
}

func (h *Handlers) Tasks(c *gin.Context) {
    f := domain.TaskFilter{
        State:      c.Query("state"),
        Repository: c.Query("repo"),
        Assignee:   c.Query("assignee"),
    }
    if v := c.Query("overdue"); v != "" {
        b, err := strconv.ParseBool(v)
        if err != nil {
            c.JSON(http.StatusBadRequest, gin.H{"error": "overdue must be a boolean"})
            return
        }
        f.Overdue = &b
    }
    tasks, err := h.svc.ListTasks(c.Request.Context(), f)
    if err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }
    c.JSON(http.StatusOK, gin.H{"count": len(tasks), "tasks": tasks})
}

func (h *Handlers) OverdueTasks(c *gin.Context) {
    overdue := true
    tasks, err := h.svc.ListTasks(c.Request.Context(), domain.TaskFilter{Overdue: &overdue})
    if err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }
    c.JSON(http.StatusOK, gin.H{"count": len(tasks), "tasks": tasks})
}

func (h *Handlers) History(c *gin.Context) {
    days := 0
    if v := c.Query("days"); v != "" {
        n, err := strconv.Atoi(v)
        if err != nil || n < 0 {
            c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a non-negative integer"})
            return
        }
        days = n
    }
    hist, err := h.svc.History(c.Request.Context(), days)
    if err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }
    c.JSON(http.StatusOK, gin.H{"days": len(hist), "history": hist})
}

func (h *Handlers) Refresh(c *gin.Context) {
    switch err := h.svc.Refresh(); {
    case err == nil:
        c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
    case errors.Is(err, domain.ErrNotInitialized):
        c.JSON(http.StatusServiceUnavailable, gin.H{"error": "not initialized"})
    case errors.Is(err, domain.ErrCycleRunning):
        c.JSON(http.StatusConflict, gin.H{"error": "poll cycle already running"})
    default:
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
    }
}

func (h *Handlers) SchedulerStatus(c *gin.Context) {
    c.JSON(http.StatusOK, h.svc.Status())
}
