// Package bidservice decouples bid arrival from auction-worker contention:
// bids are buffered per (chain, auction) and a background goroutine per
// chain periodically flushes the buffer for the chain's currently-ongoing
// auction into the manager as a single batch. Algorithm grounded directly on
// the bid-buffering service this spec was distilled from.
package bidservice

import (
	"sync"
	"time"

	"github.com/radiusxyz/lightbulb/domain"
	"github.com/radiusxyz/lightbulb/log"
)

var logger = log.Default().Module("bidservice")

// AuctionManager is the subset of manager.Manager this package depends on.
type AuctionManager interface {
	GetOngoingAuctionId(chainId domain.ChainId) (string, bool)
	SubmitBidBatch(chainId domain.ChainId, auctionId string, bids []domain.Bid) error
}

// DefaultFlushInterval is used by AddChain callers that don't have a more
// specific cadence in mind.
const DefaultFlushInterval = 500 * time.Millisecond

type chainBuffer struct {
	mu   sync.Mutex
	bids map[string][]domain.Bid // auction_id -> ordered bids
}

// BidService buffers bids per chain and flushes them on a per-chain cadence.
type BidService struct {
	mgr AuctionManager

	mu        sync.RWMutex
	buffers   map[domain.ChainId]*chainBuffer
	intervals map[domain.ChainId]time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	wg       sync.WaitGroup
}

// New creates a BidService and starts one flush goroutine per chain in
// chainFlushIntervals.
func New(mgr AuctionManager, chainFlushIntervals map[domain.ChainId]time.Duration) *BidService {
	s := &BidService{
		mgr:       mgr,
		buffers:   make(map[domain.ChainId]*chainBuffer),
		intervals: make(map[domain.ChainId]time.Duration),
		stop:      make(chan struct{}),
	}
	for chainId, interval := range chainFlushIntervals {
		s.buffers[chainId] = &chainBuffer{bids: make(map[string][]domain.Bid)}
		s.intervals[chainId] = interval
	}
	for chainId, interval := range s.intervals {
		s.startFlushLoop(chainId, interval)
	}
	return s
}

// Close stops every flush goroutine and waits for them to exit.
func (s *BidService) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()
}

// AddChain registers a new chain with the given flush interval and spawns
// its flush goroutine. Safe to call after New.
func (s *BidService) AddChain(chainId domain.ChainId, flushInterval time.Duration) {
	if flushInterval <= 0 {
		flushInterval = DefaultFlushInterval
	}

	s.mu.Lock()
	if _, ok := s.buffers[chainId]; !ok {
		s.buffers[chainId] = &chainBuffer{bids: make(map[string][]domain.Bid)}
	}
	s.intervals[chainId] = flushInterval
	s.mu.Unlock()

	s.startFlushLoop(chainId, flushInterval)
}

func (s *BidService) startFlushLoop(chainId domain.ChainId, interval time.Duration) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.flush(chainId)
			}
		}
	}()
}

// StoreBid appends bid to chainId's buffer under auctionId, in arrival
// order. It never blocks on the worker. Returns ErrInvalidChainId if chainId
// has no buffer.
func (s *BidService) StoreBid(chainId domain.ChainId, auctionId string, bid domain.Bid) error {
	s.mu.RLock()
	buf, ok := s.buffers[chainId]
	s.mu.RUnlock()
	if !ok {
		return domain.ErrInvalidChainId
	}

	buf.mu.Lock()
	buf.bids[auctionId] = append(buf.bids[auctionId], bid)
	buf.mu.Unlock()
	return nil
}

// flush drains the buffer entry for chainId's currently-ongoing auction and
// submits it to the manager as one batch.
func (s *BidService) flush(chainId domain.ChainId) {
	auctionId, ok := s.mgr.GetOngoingAuctionId(chainId)
	if !ok {
		return
	}

	s.mu.RLock()
	buf, ok := s.buffers[chainId]
	s.mu.RUnlock()
	if !ok {
		return
	}

	buf.mu.Lock()
	bids, present := buf.bids[auctionId]
	if present {
		delete(buf.bids, auctionId)
	}
	buf.mu.Unlock()

	if !present || len(bids) == 0 {
		return
	}

	if err := s.mgr.SubmitBidBatch(chainId, auctionId, bids); err != nil {
		logger.RejectedErr("dropping bids on flush", err, "chain_id", chainId, "auction_id", auctionId, "count", len(bids))
	}
}
