// Package chainreg holds the catalog of registered chains: their gas limits
// and registered-seller sets. It is stateless with respect to in-flight or
// pending auctions; see package registry for the pending-auction queue.
package chainreg

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/radiusxyz/lightbulb/domain"
)

// ChainRegistry maps a ChainId to its registered ChainInfo.
type ChainRegistry struct {
	mu    sync.RWMutex
	chains map[domain.ChainId]domain.ChainInfo
}

// New creates an empty ChainRegistry.
func New() *ChainRegistry {
	return &ChainRegistry{chains: make(map[domain.ChainId]domain.ChainInfo)}
}

// RegisterChain registers chainId with the given gas limit and seller set.
// Returns ErrChainAlreadyRegistered if chainId is already known.
func (r *ChainRegistry) RegisterChain(chainId domain.ChainId, gasLimit uint64, sellers []common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.chains[chainId]; ok {
		return domain.ErrChainAlreadyRegistered
	}

	set := make(map[common.Address]struct{}, len(sellers))
	for _, s := range sellers {
		set[s] = struct{}{}
	}
	r.chains[chainId] = domain.ChainInfo{GasLimit: gasLimit, RegisteredSellers: set}
	return nil
}

// GetChainIds returns every registered chain id.
func (r *ChainRegistry) GetChainIds() []domain.ChainId {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]domain.ChainId, 0, len(r.chains))
	for id := range r.chains {
		ids = append(ids, id)
	}
	return ids
}

// ValidateChainId reports whether chainId is registered.
func (r *ChainRegistry) ValidateChainId(chainId domain.ChainId) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.chains[chainId]
	return ok
}

// IsValidSeller reports whether seller is registered for chainId. Returns
// false if the chain itself is unknown.
func (r *ChainRegistry) IsValidSeller(chainId domain.ChainId, seller common.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, ok := r.chains[chainId]
	if !ok {
		return false
	}
	_, ok = info.RegisteredSellers[seller]
	return ok
}

// GetMaxGasLimit returns the configured gas limit for chainId and whether
// the chain is registered at all.
func (r *ChainRegistry) GetMaxGasLimit(chainId domain.ChainId) (uint64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, ok := r.chains[chainId]
	if !ok {
		return 0, false
	}
	return info.GasLimit, true
}
