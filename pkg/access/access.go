// Package access implements single-owner authorization.
package access

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrUnauthorized indicates that the caller lacks the required role.
	ErrUnauthorized = errors.New("caller is not the owner")
	// ErrZeroAddress indicates that the zero address was supplied where an account is required.
	ErrZeroAddress = errors.New("zero address")
)

// Ownable holds the single account allowed to mutate a component.
type Ownable struct {
	mu    sync.RWMutex
	owner common.Address
}

// NewOwnable creates an Ownable owned by owner.
func NewOwnable(owner common.Address) *Ownable {
	return &Ownable{owner: owner}
}

// Owner returns the current owner.
func (o *Ownable) Owner() common.Address {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.owner
}

// IsOwner reports whether caller is the owner.
func (o *Ownable) IsOwner(caller common.Address) bool {
	return o.Owner() == caller
}

// OnlyOwner fails with ErrUnauthorized unless caller is the owner.
func (o *Ownable) OnlyOwner(caller common.Address) error {
	if !o.IsOwner(caller) {
		return fmt.Errorf("%w: %s", ErrUnauthorized, caller.Hex())
	}
	return nil
}

// TransferOwnership hands the component to next. Only the owner may call it.
func (o *Ownable) TransferOwnership(caller, next common.Address) error {
	if next == (common.Address{}) {
		return ErrZeroAddress
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.owner != caller {
		return fmt.Errorf("%w: %s", ErrUnauthorized, caller.Hex())
	}
	o.owner = next
	return nil
}
