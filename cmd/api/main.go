/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package main

import (
    "context"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/HamedShams/board-pulse/internal/adapters/github"
    "github.com/HamedShams/board-pulse/internal/config"
    httpapi "github.com/HamedShams/board-pulse/internal/http"
    "github.com/HamedShams/board-pulse/internal/jobs"
    "github.com/HamedShams/board-pulse/internal/logger"
    "github.com/HamedShams/board-pulse/internal/repo"
    "github.com/HamedShams/board-pulse/internal/services"
)

func main() {
    cfg := config.Load()
    log := logger.New(cfg)

    // The poller cannot run without a resolved project
    if err := cfg.Validate(); err != nil {
        log.Fatal().Err(err).Msg("startup config invalid")
    }

    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()

    db := repo.MustOpen(ctx, cfg, log)
    defer db.Close()

    gh := github.NewClient(cfg, log)
    repository := repo.NewRepository(db, log)
    svc := services.New(cfg, log, repository, gh)

    // Warm the store before the first cron tick, reconstructing history
    // if this is a fresh database.
    go func() {
        if err := svc.StartupSync(ctx); err != nil {
            log.Error().Err(err).Msg("startup sync failed")
        }
    }()

    cron := jobs.NewCron(cfg, log, svc)
    cron.Start()
    defer cron.Stop()

    router := httpapi.NewRouter(cfg, log, svc)
    errCh := make(chan error, 1)
    go func() { errCh <- router.Run(cfg.HTTPAddr) }()

    sigCh := make(chan os.Signal, 1)
    signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

    select {
    case <-sigCh:
        log.Info().Msg("shutting down...")
    case err := <-errCh:
        if err != nil { log.Error().Err(err).Msg("http server error") }
    }

    time.Sleep(500 * time.Millisecond)
}
