// Package manager is the façade that promotes pending auctions from the
// registry into per-chain workers, consumes worker lifecycle messages off
// the bus, and exposes the outward API an RPC layer would call.
package manager

import (
	"sync"
	"time"

	"github.com/holiman/uint256"
	"github.com/radiusxyz/lightbulb/domain"
	"github.com/radiusxyz/lightbulb/log"
	"github.com/radiusxyz/lightbulb/registry"
)

var logger = log.Default().Module("manager")

// DefaultMaxBidAmount is the spec's placeholder admission ceiling: a bid
// above this amount is rejected as "insufficient funds" even though no real
// balance is checked. Treat it as a tunable threshold, not a fixed constant.
var DefaultMaxBidAmount = uint256.NewInt(1_000_000_000)

// Config tunes the bid-admission predicate the manager applies once, before
// a bid ever reaches a worker.
type Config struct {
	MaxBidAmount *uint256.Int
}

// DefaultConfig returns the spec's default admission configuration.
func DefaultConfig() Config {
	return Config{MaxBidAmount: DefaultMaxBidAmount}
}

// WorkerClient is the capability the manager needs from a chain's worker.
// Modeling it as an interface rather than a concrete *worker.Worker lets the
// same manager code work whether the worker lives in-process (*worker.Worker)
// or behind a remote proxy (RemoteClient).
type WorkerClient interface {
	StartAuction(info domain.AuctionInfo)
	SubmitBid(auctionId string, bid domain.Bid) (string, error)
	SubmitBidBatch(auctionId string, bids []domain.Bid) error
	GetAuctionState() (domain.AuctionState, error)
	GetLatestTOB() ([]domain.Tx, error)
}

// Manager owns the worker set, drives registry->worker promotion, and
// maintains the ongoing-auction index.
type Manager struct {
	reg *registry.Registry
	bus <-chan domain.WorkerMessage
	cfg Config

	workersMu sync.RWMutex
	workers   map[domain.ChainId]WorkerClient

	ongoingMu sync.RWMutex
	ongoing   map[domain.ChainId]domain.AuctionInfo

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// New creates a Manager bound to reg with the default admission config and
// starts the message-bus consumer goroutine. bus is the read side of the
// shared worker->manager channel; see package bus.
func New(reg *registry.Registry, bus <-chan domain.WorkerMessage) *Manager {
	return NewWithConfig(reg, bus, DefaultConfig())
}

// NewWithConfig is New with an explicit admission Config.
func NewWithConfig(reg *registry.Registry, bus <-chan domain.WorkerMessage, cfg Config) *Manager {
	if cfg.MaxBidAmount == nil {
		cfg.MaxBidAmount = DefaultMaxBidAmount
	}
	m := &Manager{
		reg:     reg,
		bus:     bus,
		cfg:     cfg,
		workers: make(map[domain.ChainId]WorkerClient),
		ongoing: make(map[domain.ChainId]domain.AuctionInfo),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go m.consumeBus()
	return m
}

// Close stops the bus consumer goroutine and waits for it to exit.
func (m *Manager) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
	<-m.done
}

// RegisterWorker plugs a chain's WorkerClient into the manager. Chains must
// be registered before StartNextAuction can promote auctions for them.
func (m *Manager) RegisterWorker(chainId domain.ChainId, client WorkerClient) {
	m.workersMu.Lock()
	defer m.workersMu.Unlock()
	m.workers[chainId] = client
}

func (m *Manager) worker(chainId domain.ChainId) (WorkerClient, bool) {
	m.workersMu.RLock()
	defer m.workersMu.RUnlock()
	c, ok := m.workers[chainId]
	return c, ok
}

func (m *Manager) consumeBus() {
	defer close(m.done)
	for {
		select {
		case <-m.stop:
			return
		case msg, ok := <-m.bus:
			if !ok {
				return
			}
			m.handleMessage(msg)
		}
	}
}

func (m *Manager) handleMessage(msg domain.WorkerMessage) {
	switch msg.Kind {
	case domain.AuctionEnded:
		m.ongoingMu.Lock()
		if cur, ok := m.ongoing[msg.ChainId]; ok && cur.AuctionId == msg.AuctionId {
			delete(m.ongoing, msg.ChainId)
			logger.Info("auction removed from ongoing index", "chain_id", msg.ChainId, "auction_id", msg.AuctionId)
		}
		m.ongoingMu.Unlock()
	case domain.AuctionProcessing, domain.Idle:
		logger.Debug("worker telemetry", "chain_id", msg.ChainId, "kind", msg.Kind.String())
	}
}

// StartNextAuction peeks the chain's registry queue; if the head's
// start_time has been reached it pops it, hands it to the chain's worker,
// and records it as ongoing. The peek-check-pop sequence is atomic with
// respect to other concurrent callers on the same chain (Registry.
// PopNextIfReady). Returns ("", false) if no auction is ready yet or there
// is no worker for the chain; in the latter case the auction has already
// been popped and is consumed, not retried.
func (m *Manager) StartNextAuction(chainId domain.ChainId) (string, bool) {
	info, ok := m.reg.PopNextIfReady(chainId, time.Now().UnixMilli())
	if !ok {
		return "", false
	}

	client, ok := m.worker(chainId)
	if !ok {
		logger.Warn("dropping popped auction, no worker for chain", "chain_id", chainId, "auction_id", info.AuctionId)
		return "", false
	}

	client.StartAuction(info)

	m.ongoingMu.Lock()
	m.ongoing[chainId] = info
	m.ongoingMu.Unlock()

	logger.Info("promoted auction", "chain_id", chainId, "auction_id", info.AuctionId)
	return info.AuctionId, true
}

// SubmitBid applies the admission predicate to bid, then forwards it to the
// chain's worker. The worker itself never re-checks signature or amount;
// admission happens exactly once, here.
func (m *Manager) SubmitBid(chainId domain.ChainId, auctionId string, bid domain.Bid) (string, error) {
	client, ok := m.worker(chainId)
	if !ok {
		return "", domain.ErrNoAuctions
	}
	if err := m.admit(bid); err != nil {
		return "", err
	}
	return client.SubmitBid(auctionId, bid)
}

// SubmitBidBatch applies the admission predicate to every bid before
// forwarding any of them, so a batch either passes admission in full or
// reaches the worker not at all.
func (m *Manager) SubmitBidBatch(chainId domain.ChainId, auctionId string, bids []domain.Bid) error {
	client, ok := m.worker(chainId)
	if !ok {
		return domain.ErrNoAuctions
	}
	for _, bid := range bids {
		if err := m.admit(bid); err != nil {
			return err
		}
	}
	return client.SubmitBidBatch(auctionId, bids)
}

// admit is the admission predicate applied once, upstream of the worker:
// signature must be non-empty and amount must not exceed cfg.MaxBidAmount.
func (m *Manager) admit(bid domain.Bid) error {
	if len(bid.Signature) == 0 {
		return domain.ErrInvalidBuyerSignature
	}
	if bid.Amount.Cmp(m.cfg.MaxBidAmount) > 0 {
		return domain.ErrInsufficientFunds
	}
	return nil
}

// GetOngoingAuctionId returns the currently-running auction id for chainId,
// if any.
func (m *Manager) GetOngoingAuctionId(chainId domain.ChainId) (string, bool) {
	m.ongoingMu.RLock()
	defer m.ongoingMu.RUnlock()
	info, ok := m.ongoing[chainId]
	return info.AuctionId, ok
}

// GetAllOngoingAuctionIds returns a snapshot of every chain's ongoing
// auction id.
func (m *Manager) GetAllOngoingAuctionIds() map[domain.ChainId]string {
	m.ongoingMu.RLock()
	defer m.ongoingMu.RUnlock()

	out := make(map[domain.ChainId]string, len(m.ongoing))
	for chainId, info := range m.ongoing {
		out[chainId] = info.AuctionId
	}
	return out
}

// RequestAuctionState forwards to the chain's worker.
func (m *Manager) RequestAuctionState(chainId domain.ChainId) (domain.AuctionState, error) {
	client, ok := m.worker(chainId)
	if !ok {
		return domain.AuctionState{}, domain.ErrNoAuctions
	}
	return client.GetAuctionState()
}

// RequestLatestTOB forwards to the chain's worker.
func (m *Manager) RequestLatestTOB(chainId domain.ChainId) ([]domain.Tx, error) {
	client, ok := m.worker(chainId)
	if !ok {
		return nil, domain.ErrNoAuctions
	}
	return client.GetLatestTOB()
}
