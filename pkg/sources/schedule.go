package sources

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultHorizon is how far ahead the next fetch is announced when no cron is configured.
const DefaultHorizon = 4 * time.Hour

// Schedule tells consumers when the next run is expected.
type Schedule interface {
	Next(from time.Time) time.Time
}

// FixedHorizon announces the next run a fixed duration after the current one.
type FixedHorizon time.Duration

func (h FixedHorizon) Next(from time.Time) time.Time {
	return from.Add(time.Duration(h))
}

type cronSchedule struct {
	spec     string
	schedule cron.Schedule
}

func (c *cronSchedule) Next(from time.Time) time.Time {
	return c.schedule.Next(from)
}

func (c *cronSchedule) String() string {
	return c.spec
}

// NewSchedule returns the cron schedule for spec, or a FixedHorizon when spec is empty.
// The spec uses the standard five field format and accepts descriptors like @hourly.
func NewSchedule(spec string, horizon time.Duration) (Schedule, error) {
	if spec == "" {
		if horizon <= 0 {
			horizon = DefaultHorizon
		}
		return FixedHorizon(horizon), nil
	}

	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse cron spec '%s': %w", spec, err)
	}

	return &cronSchedule{spec: spec, schedule: schedule}, nil
}
