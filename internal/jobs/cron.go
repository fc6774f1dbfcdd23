package jobs

import (
    "context"
    "time"

    "github.com/HamedShams/board-pulse/internal/config"
    "github.com/robfig/cron/v3"
    "github.com/rs/zerolog"
)

type service interface {
    RunPollCycle(ctx context.Context) error
}

type Cron struct {
    cfg config.Config
    log zerolog.Logger
    svc service
    c   *cron.Cron
}

func NewCron(cfg config.Config, log zerolog.Logger, svc service) *Cron {
    loc, _ := time.LoadLocation(cfg.TZ)
    c := cron.New(cron.WithLocation(loc), cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow)))
    cr := &Cron{cfg: cfg, log: log, svc: svc, c: c}
    if _, err := c.AddFunc(cfg.PollCron, cr.poll); err != nil {
        // a rejected schedule would silently disable polling
        log.Fatal().Err(err).Str("cron", cfg.PollCron).Msg("invalid poll schedule")
    }
    return cr
}

func (cr *Cron) Start() { cr.c.Start() }
func (cr *Cron) Stop()  { cr.c.Stop() }

// poll fires one cycle per tick; overlap suppression and failure recording
// live in the service, so an error here is already logged and must not stop
// the schedule.
func (cr *Cron) poll() {
    cr.log.Info().Msg("cron: poll tick")
    _ = cr.svc.RunPollCycle(context.Background())
}
