// Package domain holds the core value types shared by the registry, worker,
// manager and bidservice packages: transactions, bids, auction offers and the
// in-flight auction state a worker owns.
package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ChainId identifies an external blockchain the engine runs auctions for.
type ChainId uint64

// Tx is an opaque transaction payload supplied by a bidder. The engine never
// inspects its contents; it only carries it along as part of the winning
// Top-of-Block result.
type Tx struct {
	Data []byte
}

// Bid is a buyer-submitted offer for a specific auction: an amount, an
// ordered transaction list, and a signature proving the bidder's identity.
// A Bid is immutable once constructed.
type Bid struct {
	Bidder    common.Address
	Amount    uint256.Int
	Signature []byte
	TxList    []Tx
}

// AuctionInfo is the seller-provided offer that seeds an auction. AuctionId
// is a pure function of the remaining fields; see ComputeAuctionId.
type AuctionInfo struct {
	AuctionId      string
	ChainId        ChainId
	BlockNumber    uint64
	Seller         common.Address
	BlockspaceSize uint64
	StartTime      int64 // Unix ms
	EndTime        int64 // Unix ms
	SellerSig      []byte
}

// AuctionState is the mutable in-flight record a Worker owns for the
// currently adopted auction on its chain.
type AuctionState struct {
	Info      AuctionInfo
	HighestBid uint256.Int
	Winner     common.Address
	HasWinner  bool
	Bids       []Bid
	IsEnded    bool

	// TotalBidVolume and BidCount are derived aggregates, refreshed on every
	// tick alongside the leader. They are never consulted for winner
	// selection.
	TotalBidVolume uint256.Int
	BidCount       int
}

// NewAuctionState creates the zero-value state a worker adopts on
// start_auction.
func NewAuctionState(info AuctionInfo) *AuctionState {
	return &AuctionState{Info: info}
}

// ChainInfo is the registered configuration for one chain: its gas limit and
// the set of sellers allowed to submit offers on it. Immutable after
// registration.
type ChainInfo struct {
	GasLimit          uint64
	RegisteredSellers map[common.Address]struct{}
}

// WorkerMessageKind enumerates the lifecycle events a worker reports to the
// manager over the message bus.
type WorkerMessageKind int

const (
	// Idle is emitted while a worker has no running auction: before its
	// first adoption, and after its current auction has ended.
	Idle WorkerMessageKind = iota
	// AuctionProcessing is emitted once per tick while an auction is running.
	AuctionProcessing
	// AuctionEnded is emitted exactly once when a worker detects end_time.
	AuctionEnded
)

func (k WorkerMessageKind) String() string {
	switch k {
	case Idle:
		return "Idle"
	case AuctionProcessing:
		return "AuctionProcessing"
	case AuctionEnded:
		return "AuctionEnded"
	default:
		return "Unknown"
	}
}

// WorkerMessage is sent by a worker to the manager's message bus. It is only
// ever sent by the worker that owns the referenced chain/auction.
type WorkerMessage struct {
	Kind      WorkerMessageKind
	ChainId   ChainId
	AuctionId string
}
