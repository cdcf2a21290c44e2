// Package worker implements the per-chain owner of the single in-flight
// AuctionState: the 500ms tick loop that drives auction termination, bid
// ingestion, and the read-only query surface. One Worker exists per chain;
// see package manager for how workers are created and promoted into.
package worker

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"github.com/radiusxyz/lightbulb/domain"
	"github.com/radiusxyz/lightbulb/log"
)

var logger = log.Default().Module("worker")

// DefaultTickPeriod is the spec's fixed worst-case end-detection latency.
// A Worker may tick faster; New replaces a longer (or non-positive)
// TickPeriod with this value.
const DefaultTickPeriod = 500 * time.Millisecond

// Config tunes a Worker's tick cadence.
type Config struct {
	TickPeriod time.Duration
}

// DefaultConfig returns the spec's default Worker configuration.
func DefaultConfig() Config {
	return Config{TickPeriod: DefaultTickPeriod}
}

type phase int

const (
	phaseIdle phase = iota
	phaseRunning
	phaseEnded
)

// Worker owns the AuctionState for exactly one chain and runs its
// termination tick loop in a background goroutine started by New. It only
// ever talks to the rest of the system through a one-way message-bus sender,
// so it never holds a reference back to the manager that reads that bus.
type Worker struct {
	chainId domain.ChainId
	cfg     Config
	bus     chan<- domain.WorkerMessage

	mu    sync.RWMutex
	phase phase
	state *domain.AuctionState

	stopOnce sync.Once
	stop     chan struct{}
}

// New creates a Worker for chainId and starts its tick loop.
func New(chainId domain.ChainId, bus chan<- domain.WorkerMessage, cfg Config) *Worker {
	if cfg.TickPeriod <= 0 || cfg.TickPeriod > DefaultTickPeriod {
		cfg.TickPeriod = DefaultTickPeriod
	}
	w := &Worker{
		chainId: chainId,
		cfg:     cfg,
		bus:     bus,
		phase:   phaseIdle,
		stop:    make(chan struct{}),
	}
	go w.tickLoop()
	return w
}

// Close stops the tick loop. Safe to call multiple times.
func (w *Worker) Close() {
	w.stopOnce.Do(func() { close(w.stop) })
}

func (w *Worker) tickLoop() {
	ticker := time.NewTicker(w.cfg.TickPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			if msg, ok := w.tick(); ok {
				w.send(msg)
			}
		}
	}
}

// send delivers msg to the bus. It is called outside the state lock so a
// full (back-pressured) bus never blocks bid ingestion or queries.
func (w *Worker) send(msg domain.WorkerMessage) {
	if w.bus == nil {
		return
	}
	w.bus <- msg
}

func nowMs() int64 { return time.Now().UnixMilli() }

// tick advances the state machine by one step and returns the lifecycle
// message to emit, if any.
func (w *Worker) tick() (domain.WorkerMessage, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.phase == phaseIdle || w.phase == phaseEnded {
		return domain.WorkerMessage{Kind: domain.Idle, ChainId: w.chainId}, true
	}

	now := nowMs()
	if now < w.state.Info.StartTime {
		return domain.WorkerMessage{}, false
	}

	sortBidsDescending(w.state.Bids)
	w.refreshLeaderLocked()

	if now >= w.state.Info.EndTime {
		w.state.IsEnded = true
		w.phase = phaseEnded
		logger.Info("auction ended", "chain_id", w.chainId, "auction_id", w.state.Info.AuctionId)
		return domain.WorkerMessage{Kind: domain.AuctionEnded, ChainId: w.chainId, AuctionId: w.state.Info.AuctionId}, true
	}

	return domain.WorkerMessage{Kind: domain.AuctionProcessing, ChainId: w.chainId, AuctionId: w.state.Info.AuctionId}, true
}

// sortBidsDescending sorts bids by amount descending with a stable tie-break
// that keeps earlier-arrival bids ahead of later ones with equal amounts.
// Repeated stable sorts on an append-only slice preserve this relation
// across ticks, since new bids are always appended after the current order.
func sortBidsDescending(bids []domain.Bid) {
	sort.SliceStable(bids, func(i, j int) bool {
		return bids[i].Amount.Cmp(&bids[j].Amount) > 0
	})
}

func (w *Worker) refreshLeaderLocked() {
	w.state.BidCount = len(w.state.Bids)
	var total uint256.Int
	for _, b := range w.state.Bids {
		total.Add(&total, &b.Amount)
	}
	w.state.TotalBidVolume = total

	if len(w.state.Bids) == 0 {
		w.state.HasWinner = false
		w.state.HighestBid = uint256.Int{}
		return
	}
	leader := w.state.Bids[0]
	w.state.HighestBid = leader.Amount
	w.state.Winner = leader.Bidder
	w.state.HasWinner = true
}

// StartAuction adopts a new auction, overwriting any residual Ended state.
func (w *Worker) StartAuction(info domain.AuctionInfo) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.state = domain.NewAuctionState(info)
	w.phase = phaseRunning
	logger.Info("auction started", "chain_id", w.chainId, "auction_id", info.AuctionId)
}

// SubmitBid appends bid to the current auction if auctionId matches and the
// auction has not ended. It does not validate signature or amount; the
// manager's admission check does that before forwarding a bid here.
func (w *Worker) SubmitBid(auctionId string, bid domain.Bid) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkAcceptingLocked(auctionId); err != nil {
		return "", err
	}
	w.state.Bids = append(w.state.Bids, bid)
	return ackString(w.chainId, auctionId), nil
}

// SubmitBidBatch appends bids atomically: either all are appended in order
// or none are.
func (w *Worker) SubmitBidBatch(auctionId string, bids []domain.Bid) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkAcceptingLocked(auctionId); err != nil {
		return err
	}
	w.state.Bids = append(w.state.Bids, bids...)
	return nil
}

func (w *Worker) checkAcceptingLocked(auctionId string) error {
	if w.phase == phaseIdle {
		return domain.ErrNoAuctions
	}
	if w.state.Info.AuctionId != auctionId {
		return domain.ErrInvalidAuctionId
	}
	if w.state.IsEnded {
		return domain.ErrAuctionEnded
	}
	return nil
}

// GetAuctionState returns a copy of the current AuctionState.
func (w *Worker) GetAuctionState() (domain.AuctionState, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.phase == phaseIdle || w.state == nil {
		return domain.AuctionState{}, domain.ErrNoAuctions
	}
	cp := *w.state
	cp.Bids = append([]domain.Bid(nil), w.state.Bids...)
	return cp, nil
}

// GetLatestTOB returns the winning bid's transaction list, or an empty list
// if no winner has been observed yet.
func (w *Worker) GetLatestTOB() ([]domain.Tx, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.phase == phaseIdle || w.state == nil {
		return nil, domain.ErrNoAuctions
	}
	if !w.state.HasWinner {
		return nil, nil
	}
	leader := w.state.Bids[0]
	return append([]domain.Tx(nil), leader.TxList...), nil
}

// RequestSaleInfo returns the auction id and AuctionInfo of the currently
// adopted auction.
func (w *Worker) RequestSaleInfo() (string, domain.AuctionInfo, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.phase == phaseIdle || w.state == nil {
		return "", domain.AuctionInfo{}, domain.ErrNoAuctions
	}
	return w.state.Info.AuctionId, w.state.Info, nil
}

func ackString(chainId domain.ChainId, auctionId string) string {
	return "bid accepted for auction " + auctionId + " on chain " + strconv.FormatUint(uint64(chainId), 10)
}
