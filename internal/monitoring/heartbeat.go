package monitoring

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/isdelr/message-drop-be/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/process"
)

// TotalsProvider reports row counts for the heartbeat log.
type TotalsProvider interface {
	Totals(ctx context.Context) (models.Totals, error)
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Heartbeat periodically logs that the process is alive, whether the database
// answers, and how much the service is being used.
type Heartbeat struct {
	db      Pinger
	totals  TotalsProvider
	cron    *cron.Cron
	proc    *process.Process
	timeout time.Duration
}

// NewHeartbeat creates a heartbeat running on the given cron spec
// (e.g. "@every 1m").
func NewHeartbeat(spec string, db Pinger, totals TotalsProvider) (*Heartbeat, error) {
	h := &Heartbeat{
		db:      db,
		totals:  totals,
		cron:    cron.New(),
		timeout: 5 * time.Second,
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		h.proc = proc
	} else {
		log.Warn().Err(err).Msg("Heartbeat: process stats unavailable")
	}

	if _, err := h.cron.AddFunc(spec, h.Beat); err != nil {
		return nil, fmt.Errorf("invalid heartbeat schedule %q: %w", spec, err)
	}
	return h, nil
}

// Run starts the heartbeat schedule in the background.
func (h *Heartbeat) Run() {
	log.Info().Msg("Starting heartbeat...")
	h.cron.Start()
}

// Stop halts the schedule and waits for a running beat to finish.
func (h *Heartbeat) Stop() {
	<-h.cron.Stop().Done()
	log.Info().Msg("Stopped heartbeat.")
}

// Beat performs a single check and logs the result.
func (h *Heartbeat) Beat() {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		log.Error().Err(err).Msg("Heartbeat: database unreachable")
		return
	}

	event := log.Info()

	if totals, err := h.totals.Totals(ctx); err != nil {
		log.Warn().Err(err).Msg("Heartbeat: failed to count rows")
	} else {
		event = event.
			Int("users", totals.Users).
			Int("drops", totals.Drops).
			Int("messages", totals.Messages).
			Int("views", totals.Views)
	}

	if h.proc != nil {
		if mem, err := h.proc.MemoryInfoWithContext(ctx); err == nil {
			event = event.Uint64("rss_bytes", mem.RSS)
		}
		if cpu, err := h.proc.CPUPercentWithContext(ctx); err == nil {
			event = event.Float64("cpu_percent", cpu)
		}
	}

	event.Msg("Heartbeat")
}
