package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/daltunay/perfumes/metrics"
)

// Dispatcher races the fetch engines for one page, lightest first. The next
// engine joins when every running engine has failed or when its escalation
// delay has passed, whichever comes first. The winning engine is remembered
// per host so later catalog pages go straight to it.
type Dispatcher struct {
	engines          []Engine
	escalationDelays []time.Duration
	memory           *DomainMemory
}

// NewDispatcher creates a Dispatcher. engines[i] joins the race at the
// latest escalationDelays[i] after it started; missing delays are 0.
func NewDispatcher(engines []Engine, escalationDelays []time.Duration, memory *DomainMemory) *Dispatcher {
	delays := make([]time.Duration, len(engines))
	copy(delays, escalationDelays)
	return &Dispatcher{
		engines:          engines,
		escalationDelays: delays,
		memory:           memory,
	}
}

func (d *Dispatcher) Name() string { return "dispatcher" }

// Fetch returns the first successful result. A definitive upstream answer
// (see Definitive) ends the race at once; otherwise the last error is
// returned when every engine failed.
func (d *Dispatcher) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if len(d.engines) == 1 {
		return d.engines[0].Fetch(ctx, req)
	}

	host := hostOf(req.URL)
	if eng := d.remembered(host); eng != nil {
		result, err := eng.Fetch(ctx, req)
		if err == nil || Definitive(err) {
			return result, err
		}
		slog.Debug("remembered engine failed, racing", "host", host, "engine", eng.Name(), "error", err)
		d.memory.Delete(host)
	}
	return d.race(ctx, req, host)
}

func (d *Dispatcher) remembered(host string) Engine {
	name := d.memory.Get(host)
	if name == "" {
		return nil
	}
	for _, eng := range d.engines {
		if eng.Name() == name {
			return eng
		}
	}
	return nil
}

type outcome struct {
	result *FetchResult
	err    error
}

func (d *Dispatcher) race(ctx context.Context, req *FetchRequest, host string) (*FetchResult, error) {
	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered for every engine so losers never block after we return.
	results := make(chan outcome, len(d.engines))
	start := time.Now()
	next, running := 0, 0

	launch := func() {
		e := d.engines[next]
		if next > 0 {
			metrics.Escalations.WithLabelValues(e.Name()).Inc()
		}
		next++
		running++
		go func() {
			result, err := e.Fetch(raceCtx, req)
			results <- outcome{result: result, err: err}
		}()
	}

	launch()
	var lastErr error
	for running > 0 {
		var timer *time.Timer
		var escalate <-chan time.Time
		if next < len(d.engines) {
			timer = time.NewTimer(time.Until(start.Add(d.escalationDelays[next])))
			escalate = timer.C
		}

		select {
		case <-ctx.Done():
			stopTimer(timer)
			return nil, ctx.Err()

		case <-escalate:
			launch()

		case o := <-results:
			stopTimer(timer)
			running--
			if o.err == nil {
				metrics.RaceWins.WithLabelValues(o.result.EngineName).Inc()
				d.memory.Set(host, o.result.EngineName)
				return o.result, nil
			}
			lastErr = o.err
			if Definitive(o.err) {
				return nil, o.err
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Debug("engine failed", "url", req.URL, "error", o.err)
			if running == 0 && next < len(d.engines) {
				launch()
			}
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("dispatcher: all engines failed for %s", req.URL)
	}
	return nil, lastErr
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
