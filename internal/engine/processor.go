package engine

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/Melkor-1/Fin-Vista/internal/models"
)

// Order is a queued buy or sell. Shares stays raw input; the engine
// validates it.
type Order struct {
	UserID int64
	Symbol string
	Shares string
	Type   string // models.TradeTypeBuy or models.TradeTypeSell
}

// Result of a queued trade.
type Result struct {
	Receipt *Receipt
	Err     error
}

type queuedOrder struct {
	ctx      context.Context
	order    Order
	resultCh chan Result // Channel to send the result back
}

// Processor handles concurrent trade processing with a worker pool.
// Trades for the same user are serialized with per-user locks on top of
// the store's own locking, so a burst from one user drains in order.
type Processor struct {
	engine  *Engine
	workers int
	queue   chan queuedOrder
	stopCh  chan struct{}
	wg      sync.WaitGroup
	locks   *models.UserLocks

	// OnExecuted, when set, fires after each successful commit.
	OnExecuted func(models.TradeEvent)
}

// NewProcessor creates a processor with the given worker count.
func NewProcessor(engine *Engine, workers int) *Processor {
	return &Processor{
		engine:  engine,
		workers: workers,
		queue:   make(chan queuedOrder, 100), // Buffer of 100 trades
		stopCh:  make(chan struct{}),
		locks:   models.NewUserLocks(),
	}
}

// Start starts the worker pool.
func (p *Processor) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	log.Printf("✅ Started %d trade workers", p.workers)
}

// Stop gracefully stops all workers.
func (p *Processor) Stop() {
	close(p.stopCh)
	p.wg.Wait()
	log.Println("Trade processor stopped")
}

// worker processes trades from the queue.
func (p *Processor) worker(id int) {
	defer p.wg.Done()

	log.Printf("Worker %d started", id)

	for {
		select {
		case <-p.stopCh:
			log.Printf("Worker %d stopping", id)
			return

		case q := <-p.queue:
			log.Printf("Worker %d processing %s for user %d: %s x%s",
				id, q.order.Type, q.order.UserID, q.order.Symbol, q.order.Shares)

			q.resultCh <- p.process(q.ctx, q.order)
		}
	}
}

// process executes a single trade with per-user locking.
func (p *Processor) process(ctx context.Context, order Order) Result {
	// Lock the ledger for THIS USER ONLY (not global!)
	p.locks.Lock(order.UserID)
	defer p.locks.Unlock(order.UserID)

	var (
		receipt *Receipt
		err     error
	)

	switch order.Type {
	case models.TradeTypeBuy:
		receipt, err = p.engine.Buy(ctx, order.UserID, order.Symbol, order.Shares)
	case models.TradeTypeSell:
		receipt, err = p.engine.Sell(ctx, order.UserID, order.Symbol, order.Shares)
	default:
		err = newError(KindValidation, "unknown trade type %q", order.Type)
	}

	if err != nil {
		return Result{Err: err}
	}

	if p.OnExecuted != nil {
		p.OnExecuted(models.TradeEvent{
			UserID:    order.UserID,
			Symbol:    receipt.Symbol,
			Type:      receipt.Type,
			Shares:    receipt.Shares,
			Price:     receipt.Price,
			Total:     receipt.Total,
			Timestamp: time.Now().UTC(),
		})
	}

	log.Printf("Worker completed %s of %d %s for user %d",
		receipt.Type, receipt.Shares, receipt.Symbol, order.UserID)

	return Result{Receipt: receipt}
}

// Submit queues a trade and waits for its result.
func (p *Processor) Submit(ctx context.Context, order Order) Result {
	resultCh := make(chan Result)

	p.queue <- queuedOrder{
		ctx:      ctx,
		order:    order,
		resultCh: resultCh,
	}

	return <-resultCh
}
