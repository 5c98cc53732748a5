package facade

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dreamware/membroker/internal/broker"
	"github.com/dreamware/membroker/internal/meta"
	"github.com/dreamware/membroker/internal/transport"
)

// checkFunc probes one proxy's health endpoint and reports whether it
// responded. It is a field on Watchdog (not a free function) so tests can
// substitute a fake without making real HTTP calls, the same seam the
// teacher codebase this grew from used for its own health checks.
type checkFunc func(ctx context.Context, addr meta.ProxyAddress) bool

// Watchdog polls every known proxy's /health endpoint on an interval and
// calls AddFailure against the store once a proxy has missed enough
// consecutive checks. It is deliberately outside internal/broker: the core
// only ever records what it's told (see add_failure in the expanded
// specification), and never decides on its own that a proxy is down.
//
// The watchdog never calls replace_failed_proxy or migrate_slots — per the
// broker's Non-goals, automatic rebalancing triggers are out of scope, so
// detection and remediation stay decoupled even inside this facade.
type Watchdog struct {
	store       *broker.MetaStore
	check       checkFunc
	log         zerolog.Logger
	reporterID  string
	interval    time.Duration
	maxFailures int

	mu     sync.Mutex
	misses map[meta.ProxyAddress]int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatchdog constructs a Watchdog with a real HTTP-based check function.
// A fresh reporter ID is generated so failure reports from this process
// are distinguishable from an operator's own add_failure calls.
func NewWatchdog(store *broker.MetaStore, interval time.Duration, log zerolog.Logger) *Watchdog {
	return &Watchdog{
		store:       store,
		check:       defaultHealthCheck,
		log:         log,
		reporterID:  "watchdog-" + uuid.NewString(),
		interval:    interval,
		maxFailures: 3,
		misses:      map[meta.ProxyAddress]int{},
	}
}

// SetCheckFunction overrides the health probe, for tests.
func (w *Watchdog) SetCheckFunction(f checkFunc) { w.check = f }

// Start begins polling in a background goroutine. Stop must be called to
// release it.
func (w *Watchdog) Start(ctx context.Context) {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.loop()
}

// Stop cancels polling and waits for the background goroutine to exit.
func (w *Watchdog) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

func (w *Watchdog) loop() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.checkAll()
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.checkAll()
		}
	}
}

func (w *Watchdog) checkAll() {
	for _, view := range w.store.GetProxies() {
		w.checkOne(view.Address)
	}
}

func (w *Watchdog) checkOne(addr meta.ProxyAddress) {
	ctx, cancel := context.WithTimeout(w.ctx, 2*time.Second)
	defer cancel()

	healthy := w.check(ctx, addr)

	w.mu.Lock()
	if healthy {
		delete(w.misses, addr)
		w.mu.Unlock()
		return
	}
	w.misses[addr]++
	misses := w.misses[addr]
	w.mu.Unlock()

	if misses < w.maxFailures {
		return
	}
	if err := w.store.AddFailure(addr, w.reporterID); err != nil {
		w.log.Error().Err(err).Str("proxy", string(addr)).Msg("report failure")
	}
}

func defaultHealthCheck(ctx context.Context, addr meta.ProxyAddress) bool {
	err := transport.GetJSON(ctx, "http://"+string(addr)+"/health", nil)
	return err == nil
}
