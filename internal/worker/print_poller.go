package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"printcheck/internal/model"
)

type PrintEventFetcher interface {
	GetPrintEvent(ctx context.Context, eventID string) (*model.PrintEvent, error)
}

// PrintEventPoller waits for a print event to settle. Each attempt sleeps
// for the interval and then reads the event once.
type PrintEventPoller struct {
	fetcher  PrintEventFetcher
	interval time.Duration
	attempts int
}

func NewPrintEventPoller(fetcher PrintEventFetcher, interval time.Duration, attempts int) *PrintEventPoller {
	if attempts < 1 {
		attempts = 1
	}
	return &PrintEventPoller{
		fetcher:  fetcher,
		interval: interval,
		attempts: attempts,
	}
}

func (p *PrintEventPoller) Interval() time.Duration { return p.interval }

// Wait polls until the event reaches DONE or FAILED or the attempts run out.
// It returns the last event seen and the number of polls issued.
func (p *PrintEventPoller) Wait(ctx context.Context, eventID string) (*model.PrintEvent, int, error) {
	var last *model.PrintEvent
	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for polls := 1; polls <= p.attempts; polls++ {
		select {
		case <-ctx.Done():
			return last, polls - 1, ctx.Err()
		case <-timer.C:
		}

		ev, err := p.fetcher.GetPrintEvent(ctx, eventID)
		if err != nil {
			slog.Warn("print event poll failed", "event", eventID, "poll", polls, "error", err)
			return last, polls, fmt.Errorf("get print event: %w", err)
		}
		last = ev
		slog.Info("print event polled", "event", eventID, "poll", polls, "state", ev.State)

		if ev.Terminal() {
			return last, polls, nil
		}
		timer.Reset(p.interval)
	}

	return last, p.attempts, nil
}
