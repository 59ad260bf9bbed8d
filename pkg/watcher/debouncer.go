package watcher

import (
	"context"
	"time"

	"github.com/ritzau/ltm-terrify/pkg/logging"
)

// Debouncer batches rapid change events so a burst of writes causes one rerun
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer. Events are released after
// quietPeriod without new input, or maxWait after the first one at the latest.
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

// run owns all timer and accumulator state; flushing only happens on this
// goroutine
func (d *Debouncer) run(ctx context.Context) {
	var (
		quiet       *time.Timer
		deadline    *time.Timer
		accumulated = make(map[ChangeType][]string)
		eventCount  int
	)

	stop := func(t *time.Timer) {
		if t != nil {
			t.Stop()
		}
	}

	timerC := func(t *time.Timer) <-chan time.Time {
		if t == nil {
			return nil
		}
		return t.C
	}

	flush := func() {
		stop(quiet)
		stop(deadline)
		quiet, deadline = nil, nil

		if eventCount == 0 {
			return
		}

		logging.Debug("flushing accumulated events", "count", eventCount)

		// Config first: a rerun after a config change must see the new settings
		for _, t := range []ChangeType{ChangeTypeConfig, ChangeTypeSnapshot} {
			if paths := accumulated[t]; len(paths) > 0 {
				d.output <- ChangeEvent{Type: t, Paths: paths, Timestamp: time.Now()}
			}
		}

		accumulated = make(map[ChangeType][]string)
		eventCount = 0
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			close(d.output)
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				close(d.output)
				return
			}

			for _, p := range event.Paths {
				accumulated[event.Type] = appendUnique(accumulated[event.Type], p)
			}
			eventCount++

			stop(quiet)
			quiet = time.NewTimer(d.quietPeriod)
			if deadline == nil {
				deadline = time.NewTimer(d.maxWait)
			}

		case <-timerC(quiet):
			flush()

		case <-timerC(deadline):
			flush()
		}
	}
}

// Output returns the channel of debounced events
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}
