package manager

import (
	"sync"

	"github.com/radiusxyz/lightbulb/domain"
)

// remoteOp tags a proxied WorkerClient call.
type remoteOp int

const (
	opStartAuction remoteOp = iota
	opSubmitBid
	opSubmitBidBatch
	opGetAuctionState
	opGetLatestTOB
)

// remoteRequest is one proxied call in flight: the operation, its arguments,
// and the reply channel the serving loop answers on.
type remoteRequest struct {
	op        remoteOp
	info      domain.AuctionInfo
	auctionId string
	bid       domain.Bid
	bids      []domain.Bid
	reply     chan remoteResponse
}

type remoteResponse struct {
	ack   string
	state domain.AuctionState
	txs   []domain.Tx
	err   error
}

// RemoteClient is the second WorkerClient variant: instead of calling the
// worker directly it forwards every call over a bounded request channel to a
// serving loop that wraps the real worker, the way an RPC stub would marshal
// calls over a wire. The manager cannot tell the two variants apart.
type RemoteClient struct {
	backing  WorkerClient
	requests chan remoteRequest

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewRemoteClient wraps backing behind a proxied call channel and starts the
// serving loop. Close stops the loop; calls made after Close fail with
// ErrNoAuctions rather than blocking forever.
func NewRemoteClient(backing WorkerClient) *RemoteClient {
	c := &RemoteClient{
		backing:  backing,
		requests: make(chan remoteRequest),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go c.serve()
	return c
}

// Close stops the serving loop and waits for it to exit. Safe to call
// multiple times.
func (c *RemoteClient) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
}

// serve is the remote side: it dispatches each proxied request to the
// backing worker and answers on the request's reply channel. Requests are
// served strictly in arrival order, preserving the same happens-before bid
// ordering a direct client gives.
func (c *RemoteClient) serve() {
	defer close(c.done)
	for {
		select {
		case <-c.stop:
			return
		case req := <-c.requests:
			req.reply <- c.dispatch(req)
		}
	}
}

func (c *RemoteClient) dispatch(req remoteRequest) remoteResponse {
	switch req.op {
	case opStartAuction:
		c.backing.StartAuction(req.info)
		return remoteResponse{}
	case opSubmitBid:
		ack, err := c.backing.SubmitBid(req.auctionId, req.bid)
		return remoteResponse{ack: ack, err: err}
	case opSubmitBidBatch:
		return remoteResponse{err: c.backing.SubmitBidBatch(req.auctionId, req.bids)}
	case opGetAuctionState:
		state, err := c.backing.GetAuctionState()
		return remoteResponse{state: state, err: err}
	case opGetLatestTOB:
		txs, err := c.backing.GetLatestTOB()
		return remoteResponse{txs: txs, err: err}
	default:
		return remoteResponse{err: domain.ErrNoAuctions}
	}
}

// call sends req and waits for the serving loop's answer. A closed proxy
// answers ErrNoAuctions, the same error a caller gets from a chain with no
// worker at all.
func (c *RemoteClient) call(req remoteRequest) remoteResponse {
	req.reply = make(chan remoteResponse, 1)
	select {
	case c.requests <- req:
	case <-c.stop:
		return remoteResponse{err: domain.ErrNoAuctions}
	}
	select {
	case resp := <-req.reply:
		return resp
	case <-c.stop:
		return remoteResponse{err: domain.ErrNoAuctions}
	}
}

func (c *RemoteClient) StartAuction(info domain.AuctionInfo) {
	c.call(remoteRequest{op: opStartAuction, info: info})
}

func (c *RemoteClient) SubmitBid(auctionId string, bid domain.Bid) (string, error) {
	resp := c.call(remoteRequest{op: opSubmitBid, auctionId: auctionId, bid: bid})
	return resp.ack, resp.err
}

func (c *RemoteClient) SubmitBidBatch(auctionId string, bids []domain.Bid) error {
	return c.call(remoteRequest{op: opSubmitBidBatch, auctionId: auctionId, bids: bids}).err
}

func (c *RemoteClient) GetAuctionState() (domain.AuctionState, error) {
	resp := c.call(remoteRequest{op: opGetAuctionState})
	return resp.state, resp.err
}

func (c *RemoteClient) GetLatestTOB() ([]domain.Tx, error) {
	resp := c.call(remoteRequest{op: opGetLatestTOB})
	return resp.txs, resp.err
}
