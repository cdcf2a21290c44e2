package chainreg

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/radiusxyz/lightbulb/domain"
)

func TestRegisterChainRejectsDuplicate(t *testing.T) {
	r := New()
	seller := common.HexToAddress("0x01")

	if err := r.RegisterChain(1, 1000, []common.Address{seller}); err != nil {
		t.Fatalf("first register_chain failed: %v", err)
	}
	err := r.RegisterChain(1, 1000, nil)
	if !errors.Is(err, domain.ErrChainAlreadyRegistered) {
		t.Fatalf("second register_chain = %v, want ErrChainAlreadyRegistered", err)
	}
}

func TestIsValidSeller(t *testing.T) {
	r := New()
	seller := common.HexToAddress("0xS")
	other := common.HexToAddress("0x02")
	_ = r.RegisterChain(1, 1000, []common.Address{seller})

	if !r.IsValidSeller(1, seller) {
		t.Errorf("registered seller should be valid")
	}
	if r.IsValidSeller(1, other) {
		t.Errorf("unregistered seller should be invalid")
	}
	if r.IsValidSeller(2, seller) {
		t.Errorf("seller on unknown chain should be invalid")
	}
}

func TestGetMaxGasLimit(t *testing.T) {
	r := New()
	_ = r.RegisterChain(1, 5000, nil)

	limit, ok := r.GetMaxGasLimit(1)
	if !ok || limit != 5000 {
		t.Errorf("GetMaxGasLimit(1) = (%d, %v), want (5000, true)", limit, ok)
	}

	if _, ok := r.GetMaxGasLimit(99); ok {
		t.Errorf("GetMaxGasLimit(99) should report unknown chain")
	}
}

func TestGetChainIds(t *testing.T) {
	r := New()
	_ = r.RegisterChain(1, 1, nil)
	_ = r.RegisterChain(2, 1, nil)

	ids := r.GetChainIds()
	if len(ids) != 2 {
		t.Fatalf("len(GetChainIds()) = %d, want 2", len(ids))
	}
}
