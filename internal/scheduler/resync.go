package scheduler

import (
	"context"

	"github.com/rs/zerolog"
)

// Resyncer refreshes stored week rows against the holiday calendar.
type Resyncer interface {
	ResyncCalendars(ctx context.Context) (int, error)
}

// ResyncJob keeps allocations' available hours in line with the calendar.
type ResyncJob struct {
	resyncer Resyncer
	log      zerolog.Logger
}

func NewResyncJob(resyncer Resyncer, log zerolog.Logger) *ResyncJob {
	return &ResyncJob{resyncer: resyncer, log: log}
}

func (j *ResyncJob) Name() string {
	return "calendar_resync"
}

func (j *ResyncJob) Run(ctx context.Context) error {
	changed, err := j.resyncer.ResyncCalendars(ctx)
	if err != nil {
		return err
	}
	j.log.Info().Int("allocations", changed).Msg("calendar resync finished")
	return nil
}
