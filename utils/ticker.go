package utils

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Ticker drives periodic resyncs.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

type StdTicker struct {
	*time.Ticker
}

func (g *StdTicker) Chan() <-chan time.Time {
	return g.C
}

func NewStdTicker(d time.Duration) *StdTicker {
	return &StdTicker{time.NewTicker(d)}
}

var _ Ticker = (*StdTicker)(nil)

// CronTicker ticks following a cron schedule, evaluated in the schedule's TZ (UTC by default).
type CronTicker struct {
	c    chan time.Time
	stop chan struct{}
	once sync.Once
}

var _ Ticker = (*CronTicker)(nil)

func (c *CronTicker) Chan() <-chan time.Time {
	return c.c
}

// Stop is idempotent.
func (c *CronTicker) Stop() {
	c.once.Do(func() {
		close(c.stop)
	})
}

// NewTicker accepts either a Go duration ("10m") or a cron expression ("TZ=UTC 0 */5 * * * *", "@hourly").
func NewTicker(schedule string) (Ticker, error) {
	if d, err := time.ParseDuration(schedule); err == nil {
		if d <= 0 {
			return nil, fmt.Errorf("invalid resync interval %q", schedule)
		}
		return NewStdTicker(d), nil
	}
	return NewCronTicker(schedule)
}

func NewCronTicker(schedule string) (*CronTicker, error) {
	scheduleWithTZ, loc, err := withTimeZone(schedule)
	if err != nil {
		return nil, fmt.Errorf("load schedule time zone: %w", err)
	}
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	cronSchedule, err := parser.Parse(scheduleWithTZ)
	if err != nil {
		return nil, fmt.Errorf("parse schedule: %w", err)
	}
	t := &CronTicker{
		c:    make(chan time.Time, 1),
		stop: make(chan struct{}),
	}
	go t.run(cronSchedule, loc)
	return t, nil
}

func (c *CronTicker) run(schedule cron.Schedule, loc *time.Location) {
	timer := time.NewTimer(time.Until(schedule.Next(time.Now().In(loc))))
	defer timer.Stop()
	for {
		select {
		case <-c.stop:
			return
		case tick := <-timer.C:
			// drop the tick if the consumer is still busy with the previous one
			select {
			case c.c <- tick:
			default:
			}
			timer.Reset(time.Until(schedule.Next(tick.In(loc))))
		}
	}
}

// withTimeZone prefixes the schedule with TZ=UTC unless it already names a time zone.
func withTimeZone(schedule string) (string, *time.Location, error) {
	if !strings.HasPrefix(schedule, "TZ=") {
		schedule = "TZ=UTC " + schedule
	}
	end := strings.Index(schedule, " ")
	if end < 0 {
		return schedule, nil, fmt.Errorf("empty schedule after %q", schedule)
	}
	loc, err := time.LoadLocation(schedule[len("TZ="):end])
	if err != nil {
		return schedule, nil, err
	}
	return schedule, loc, nil
}
