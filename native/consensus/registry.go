package consensus

import (
	"errors"

	"loanchain/crypto"
)

var errNotSigner = errors.New("terms consensus: address is not a signer")

// MemoryRegistry is an in-memory SignerRegistry used for wiring and tests.
type MemoryRegistry struct {
	signers map[string]struct{}
	nonces  map[string]struct{}
}

// NewMemoryRegistry constructs an empty signer registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		signers: make(map[string]struct{}),
		nonces:  make(map[string]struct{}),
	}
}

// AddSigner registers a signer address.
func (r *MemoryRegistry) AddSigner(addr crypto.Address) {
	if r == nil {
		return
	}
	r.signers[string(addr.Bytes())] = struct{}{}
}

// IsSigner implements SignerRegistry.
func (r *MemoryRegistry) IsSigner(addr crypto.Address) bool {
	if r == nil {
		return false
	}
	_, ok := r.signers[string(addr.Bytes())]
	return ok
}

// NonceUsed implements SignerRegistry.
func (r *MemoryRegistry) NonceUsed(addr crypto.Address, nonce uint64) bool {
	if r == nil {
		return false
	}
	_, ok := r.nonces[nonceKey(addr, nonce)]
	return ok
}

// ConsumeNonce implements SignerRegistry. Consuming an already-used nonce is
// rejected so replay can never slip through a racing caller.
func (r *MemoryRegistry) ConsumeNonce(addr crypto.Address, nonce uint64) error {
	if r == nil {
		return errNotSigner
	}
	if !r.IsSigner(addr) {
		return errNotSigner
	}
	key := nonceKey(addr, nonce)
	if _, ok := r.nonces[key]; ok {
		return ErrNonceReused
	}
	r.nonces[key] = struct{}{}
	return nil
}
