// Package registry validates seller-submitted auction offers and holds one
// pending-auction priority queue per chain, ordered ascending by StartTime.
// Chain/seller bookkeeping lives in package chainreg; this package is
// stateless with respect to chain registration itself.
package registry

import (
	"sync"

	"github.com/radiusxyz/lightbulb/chainreg"
	"github.com/radiusxyz/lightbulb/domain"
	"github.com/radiusxyz/lightbulb/log"
	"github.com/radiusxyz/lightbulb/sig"
)

var logger = log.Default().Module("registry")

// MinAuctionWindowMs is the minimum distance between StartTime and EndTime
// an AuctionInfo must satisfy to be accepted.
const MinAuctionWindowMs = 500

// Config tunes the Registry's acceptance checks.
type Config struct {
	// MinAuctionWindowMs overrides MinAuctionWindowMs above when non-zero.
	MinAuctionWindowMs int64
}

// DefaultConfig returns the spec's default Registry configuration.
func DefaultConfig() Config {
	return Config{MinAuctionWindowMs: MinAuctionWindowMs}
}

// Registry validates offers and holds the per-chain pending-auction queues.
type Registry struct {
	mu     sync.RWMutex
	cfg    Config
	chains *chainreg.ChainRegistry
	queues map[domain.ChainId]*pendingQueue
}

// New creates a Registry backed by the given ChainRegistry. Chains already
// registered in chains at construction time get an empty pending queue
// immediately.
func New(cfg Config, chains *chainreg.ChainRegistry) *Registry {
	r := &Registry{cfg: cfg, chains: chains, queues: make(map[domain.ChainId]*pendingQueue)}
	for _, id := range chains.GetChainIds() {
		r.queues[id] = newPendingQueue()
	}
	return r
}

// RegisterChain creates an empty pending queue for chainId. The chain must
// already be known to the backing ChainRegistry; a queue for an unknown
// chain could never accept an auction, so that is rejected up front with
// ErrInvalidChainId. Returns ErrChainAlreadyRegistered if a queue already
// exists for it.
func (r *Registry) RegisterChain(chainId domain.ChainId) error {
	if !r.chains.ValidateChainId(chainId) {
		return domain.ErrInvalidChainId
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.queues[chainId]; ok {
		return domain.ErrChainAlreadyRegistered
	}
	r.queues[chainId] = newPendingQueue()
	return nil
}

// SubmitAuctionInfo validates info and, on success, inserts it into its
// chain's pending queue. Validation short-circuits in this order: chain
// known -> seller registered -> seller signature verifies -> blockspace_size
// <= gas_limit -> end_time >= start_time + window. Past StartTime values are
// legal and simply make the auction eligible for immediate promotion.
func (r *Registry) SubmitAuctionInfo(info domain.AuctionInfo) error {
	if err := r.validate(info); err != nil {
		logger.RejectedErr("rejected auction info", err, "chain_id", info.ChainId, "auction_id", info.AuctionId)
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	q, ok := r.queues[info.ChainId]
	if !ok {
		return domain.ErrInvalidChainId
	}
	q.push(info)
	logger.Info("accepted auction info", "chain_id", info.ChainId, "auction_id", info.AuctionId, "start_time", info.StartTime)
	return nil
}

func (r *Registry) validate(info domain.AuctionInfo) error {
	if !r.chains.ValidateChainId(info.ChainId) {
		return domain.ErrInvalidChainId
	}
	if !r.chains.IsValidSeller(info.ChainId, info.Seller) {
		return domain.ErrSellerNotRegistered
	}
	if !sig.Verify(info.Seller[:], nil, info.SellerSig) {
		return domain.ErrInvalidSellerSig
	}
	gasLimit, _ := r.chains.GetMaxGasLimit(info.ChainId)
	if info.BlockspaceSize > gasLimit {
		return domain.ErrInvalidGasLimit
	}
	window := r.cfg.MinAuctionWindowMs
	if window == 0 {
		window = MinAuctionWindowMs
	}
	if info.EndTime < info.StartTime+window {
		return domain.ErrInvalidAuctionTime
	}
	return nil
}

// PeekNext returns the minimum-StartTime pending auction for chainId without
// removing it.
func (r *Registry) PeekNext(chainId domain.ChainId) (domain.AuctionInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q, ok := r.queues[chainId]
	if !ok {
		return domain.AuctionInfo{}, false
	}
	return q.peek()
}

// PopNext removes and returns the minimum-StartTime pending auction for
// chainId.
func (r *Registry) PopNext(chainId domain.ChainId) (domain.AuctionInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, ok := r.queues[chainId]
	if !ok {
		return domain.AuctionInfo{}, false
	}
	return q.pop()
}

// PopNextIfReady atomically pops the chain's pending head if its StartTime
// has been reached (nowMs >= StartTime), leaving the queue untouched
// otherwise. This is the primitive the manager's start_next_auction relies
// on to make steps 2-3 of its promotion atomic across concurrent starters on
// the same chain.
func (r *Registry) PopNextIfReady(chainId domain.ChainId, nowMs int64) (domain.AuctionInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, ok := r.queues[chainId]
	if !ok {
		return domain.AuctionInfo{}, false
	}
	head, ok := q.peek()
	if !ok || nowMs < head.StartTime {
		return domain.AuctionInfo{}, false
	}
	return q.pop()
}

// GetChainIds returns every chain id with a pending queue.
func (r *Registry) GetChainIds() []domain.ChainId {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]domain.ChainId, 0, len(r.queues))
	for id := range r.queues {
		ids = append(ids, id)
	}
	return ids
}
