/*
sweeper.go - Background accrual sweep

PURPOSE:
  Periodically re-runs accrual for every employee so stored totals stay
  fresh even for employees nobody reads. Balance reads already run lazy
  accrual on their own; the sweep exists for reporting queries that read
  the store directly.

DESIGN:
  - Runs a background goroutine with a configurable interval
  - Each pass lists all employees and calls Engine.Accrue for each
  - A failing employee is logged and skipped; the pass continues
  - Accrual is idempotent, so overlapping with a lazy read is harmless

CONFIGURATION:
  - Interval: how often to sweep (default: 1 hour)
  - Enabled:  whether the sweeper is active (default: true)

USAGE:
  sweeper := NewAccrualSweeper(engine, store)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - leave/engine.go: Accrue (idempotent recompute)
  - cmd/server/main.go: Wiring and the -sweep flag
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/leave-engine/leave"
)

// AccrualSweeper keeps stored accrual totals current in the background.
type AccrualSweeper struct {
	Engine    *leave.Engine
	Employees leave.EmployeeStore
	Interval  time.Duration
	Enabled   bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewAccrualSweeper creates a sweeper with default settings.
func NewAccrualSweeper(engine *leave.Engine, employees leave.EmployeeStore) *AccrualSweeper {
	return &AccrualSweeper{
		Engine:    engine,
		Employees: employees,
		Interval:  1 * time.Hour,
		Enabled:   true,
		stop:      make(chan bool),
	}
}

// Start begins the sweep loop.
func (as *AccrualSweeper) Start() {
	as.mu.Lock()
	defer as.mu.Unlock()

	if !as.Enabled {
		log.Println("[Sweeper] Disabled, not starting")
		return
	}

	as.ticker = time.NewTicker(as.Interval)
	as.wg.Add(1)

	go as.run(as.ticker.C)

	log.Printf("[Sweeper] Started with interval: %v", as.Interval)
}

// Stop stops the sweep loop and waits for an in-flight pass to finish.
// Safe to call more than once.
func (as *AccrualSweeper) Stop() {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.ticker == nil {
		return
	}
	as.ticker.Stop()
	as.ticker = nil
	close(as.stop)
	as.wg.Wait()
	log.Println("[Sweeper] Stopped")
}

// run receives the ticker channel captured under the mutex in Start, so it
// never reads as.ticker, which Stop may nil concurrently.
func (as *AccrualSweeper) run(tick <-chan time.Time) {
	defer as.wg.Done()

	// Run immediately on start
	as.sweep()

	for {
		select {
		case <-tick:
			as.sweep()
		case <-as.stop:
			return
		}
	}
}

func (as *AccrualSweeper) sweep() {
	ctx := context.Background()
	asOf := leave.Today()

	employees, err := as.Employees.ListEmployees(ctx)
	if err != nil {
		log.Printf("[Sweeper] Error listing employees: %v", err)
		return
	}

	swept := 0
	for _, emp := range employees {
		if err := as.Engine.Accrue(ctx, emp.ID, asOf); err != nil {
			log.Printf("[Sweeper] Error accruing %s: %v", emp.ID, err)
			continue
		}
		swept++
	}

	if swept > 0 {
		log.Printf("[Sweeper] Completed: %d employees swept", swept)
	}
}

// RunNow triggers an immediate sweep (for testing/admin).
func (as *AccrualSweeper) RunNow() {
	as.sweep()
}
