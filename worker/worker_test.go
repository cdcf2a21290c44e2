package worker

import (
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/radiusxyz/lightbulb/domain"
)

func testBid(addr string, amount uint64) domain.Bid {
	return domain.Bid{
		Bidder:    common.HexToAddress(addr),
		Amount:    *uint256.NewInt(amount),
		Signature: []byte("sig"),
	}
}

func newTestWorker(t *testing.T, tick time.Duration) (*Worker, chan domain.WorkerMessage) {
	t.Helper()
	bus := make(chan domain.WorkerMessage, 100)
	w := New(1, bus, Config{TickPeriod: tick})
	t.Cleanup(w.Close)
	return w, bus
}

func TestSubmitBidBeforeStartAuctionFails(t *testing.T) {
	w, _ := newTestWorker(t, time.Hour)
	_, err := w.SubmitBid("whatever", testBid("0xB1", 100))
	if !errors.Is(err, domain.ErrNoAuctions) {
		t.Fatalf("SubmitBid on idle worker = %v, want ErrNoAuctions", err)
	}
}

func TestSubmitBidWrongAuctionId(t *testing.T) {
	w, _ := newTestWorker(t, time.Hour)
	info := domain.AuctionInfo{AuctionId: "real", StartTime: 0, EndTime: time.Now().UnixMilli() + 100000}
	w.StartAuction(info)

	_, err := w.SubmitBid("fake", testBid("0xB1", 100))
	if !errors.Is(err, domain.ErrInvalidAuctionId) {
		t.Fatalf("SubmitBid with wrong id = %v, want ErrInvalidAuctionId", err)
	}
}

func TestWorkerEndsAuctionAndPicksHighestBidder(t *testing.T) {
	w, bus := newTestWorker(t, 20*time.Millisecond)
	now := time.Now().UnixMilli()
	info := domain.AuctionInfo{AuctionId: "a1", StartTime: now - 100, EndTime: now + 60}
	w.StartAuction(info)

	if _, err := w.SubmitBid("a1", testBid("0xB1", 1000)); err != nil {
		t.Fatalf("SubmitBid B1: %v", err)
	}
	if _, err := w.SubmitBid("a1", testBid("0xB2", 1500)); err != nil {
		t.Fatalf("SubmitBid B2: %v", err)
	}
	if _, err := w.SubmitBid("a1", testBid("0xB3", 1200)); err != nil {
		t.Fatalf("SubmitBid B3: %v", err)
	}

	waitForEnded(t, bus, "a1")

	state, err := w.GetAuctionState()
	if err != nil {
		t.Fatalf("GetAuctionState: %v", err)
	}
	if !state.IsEnded {
		t.Fatalf("state.IsEnded = false, want true")
	}
	want := common.HexToAddress("0xB2")
	if state.Winner != want {
		t.Errorf("winner = %v, want %v", state.Winner, want)
	}
	if state.HighestBid.Uint64() != 1500 {
		t.Errorf("highest_bid = %v, want 1500", state.HighestBid.Uint64())
	}
	if len(state.Bids) != 3 {
		t.Errorf("len(bids) = %d, want 3", len(state.Bids))
	}
}

func TestWorkerTieBreakEarliestWins(t *testing.T) {
	w, bus := newTestWorker(t, 20*time.Millisecond)
	now := time.Now().UnixMilli()
	info := domain.AuctionInfo{AuctionId: "a1", StartTime: now - 100, EndTime: now + 60}
	w.StartAuction(info)

	if _, err := w.SubmitBid("a1", testBid("0xA", 1500)); err != nil {
		t.Fatalf("SubmitBid A: %v", err)
	}
	if _, err := w.SubmitBid("a1", testBid("0xB", 1500)); err != nil {
		t.Fatalf("SubmitBid B: %v", err)
	}

	waitForEnded(t, bus, "a1")

	state, err := w.GetAuctionState()
	if err != nil {
		t.Fatalf("GetAuctionState: %v", err)
	}
	want := common.HexToAddress("0xA")
	if state.Winner != want {
		t.Errorf("winner = %v, want %v (earliest of equal bids)", state.Winner, want)
	}
}

func TestBidAfterAuctionEndedIsRejected(t *testing.T) {
	w, bus := newTestWorker(t, 20*time.Millisecond)
	now := time.Now().UnixMilli()
	info := domain.AuctionInfo{AuctionId: "a1", StartTime: now - 100, EndTime: now + 30}
	w.StartAuction(info)

	if _, err := w.SubmitBid("a1", testBid("0xFirst", 1000)); err != nil {
		t.Fatalf("first SubmitBid: %v", err)
	}

	waitForEnded(t, bus, "a1")

	if _, err := w.SubmitBid("a1", testBid("0xSecond", 5000)); !errors.Is(err, domain.ErrAuctionEnded) {
		t.Fatalf("late SubmitBid = %v, want ErrAuctionEnded", err)
	}

	state, err := w.GetAuctionState()
	if err != nil {
		t.Fatalf("GetAuctionState: %v", err)
	}
	want := common.HexToAddress("0xFirst")
	if state.Winner != want {
		t.Errorf("winner = %v, want %v (late bid must not count)", state.Winner, want)
	}
}

func TestStartAuctionOverwritesEndedState(t *testing.T) {
	w, bus := newTestWorker(t, 20*time.Millisecond)
	now := time.Now().UnixMilli()
	first := domain.AuctionInfo{AuctionId: "a1", StartTime: now - 100, EndTime: now + 30}
	w.StartAuction(first)
	waitForEnded(t, bus, "a1")

	second := domain.AuctionInfo{AuctionId: "a2", StartTime: now, EndTime: now + 100000}
	w.StartAuction(second)

	state, err := w.GetAuctionState()
	if err != nil {
		t.Fatalf("GetAuctionState: %v", err)
	}
	if state.IsEnded {
		t.Errorf("newly adopted auction should not be ended")
	}
	if state.Info.AuctionId != "a2" {
		t.Errorf("AuctionId = %q, want a2", state.Info.AuctionId)
	}
}

func TestRequestSaleInfo(t *testing.T) {
	w, _ := newTestWorker(t, time.Hour)

	if _, _, err := w.RequestSaleInfo(); !errors.Is(err, domain.ErrNoAuctions) {
		t.Fatalf("RequestSaleInfo on idle worker = %v, want ErrNoAuctions", err)
	}

	info := domain.AuctionInfo{AuctionId: "a1", ChainId: 1, StartTime: 0, EndTime: time.Now().UnixMilli() + 100000}
	w.StartAuction(info)

	id, got, err := w.RequestSaleInfo()
	if err != nil {
		t.Fatalf("RequestSaleInfo: %v", err)
	}
	if id != "a1" || got.AuctionId != "a1" {
		t.Errorf("RequestSaleInfo = (%q, %+v), want auction a1", id, got)
	}
}

func TestGetLatestTOBReturnsWinnersTxList(t *testing.T) {
	w, bus := newTestWorker(t, 20*time.Millisecond)
	now := time.Now().UnixMilli()
	info := domain.AuctionInfo{AuctionId: "a1", StartTime: now - 100, EndTime: now + 60}
	w.StartAuction(info)

	low := testBid("0xLow", 100)
	low.TxList = []domain.Tx{{Data: []byte("tx-low")}}
	high := testBid("0xHigh", 900)
	high.TxList = []domain.Tx{{Data: []byte("tx-high")}}
	if _, err := w.SubmitBid("a1", low); err != nil {
		t.Fatalf("SubmitBid low: %v", err)
	}
	if _, err := w.SubmitBid("a1", high); err != nil {
		t.Fatalf("SubmitBid high: %v", err)
	}

	waitForEnded(t, bus, "a1")

	tob, err := w.GetLatestTOB()
	if err != nil {
		t.Fatalf("GetLatestTOB: %v", err)
	}
	if len(tob) != 1 || string(tob[0].Data) != "tx-high" {
		t.Errorf("top-of-block = %v, want the highest bidder's tx list", tob)
	}
}

func TestSubmitBidBatchAtomicOnWrongId(t *testing.T) {
	w, _ := newTestWorker(t, time.Hour)
	info := domain.AuctionInfo{AuctionId: "a1", StartTime: 0, EndTime: time.Now().UnixMilli() + 100000}
	w.StartAuction(info)

	batch := []domain.Bid{testBid("0xB1", 10), testBid("0xB2", 20)}
	if err := w.SubmitBidBatch("wrong", batch); !errors.Is(err, domain.ErrInvalidAuctionId) {
		t.Fatalf("SubmitBidBatch wrong id = %v, want ErrInvalidAuctionId", err)
	}

	state, err := w.GetAuctionState()
	if err != nil {
		t.Fatalf("GetAuctionState: %v", err)
	}
	if len(state.Bids) != 0 {
		t.Errorf("rejected batch must append nothing, got %d bids", len(state.Bids))
	}

	if err := w.SubmitBidBatch("a1", batch); err != nil {
		t.Fatalf("SubmitBidBatch: %v", err)
	}
	state, _ = w.GetAuctionState()
	if len(state.Bids) != 2 {
		t.Errorf("accepted batch must append all bids in order, got %d", len(state.Bids))
	}
}

func waitForEnded(t *testing.T, bus chan domain.WorkerMessage, auctionId string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg := <-bus:
			if msg.Kind == domain.AuctionEnded && msg.AuctionId == auctionId {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for AuctionEnded(%s)", auctionId)
		}
	}
}
