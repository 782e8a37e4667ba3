// Package bank provides fee settlement books usable as the ledger's fee-transfer
// capability. A book either moves the full amount or leaves both balances alone.
package bank

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInsufficientFunds rejects a transfer larger than the sender's balance.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Book is the settlement surface the service consumes. Transfer is handed to the
// ledger as its fee capability; Deposit and Balance back the faucet endpoints.
type Book interface {
	Deposit(principal string, amount uint64) error
	Balance(principal string) (uint64, error)
	Transfer(from, to string, amount uint64) error
}

// MemoryBook keeps balances in process memory. Used by tests and embedded hosts.
type MemoryBook struct {
	mu       sync.Mutex
	balances map[string]uint64
}

// NewMemoryBook returns an empty book.
func NewMemoryBook() *MemoryBook {
	return &MemoryBook{balances: make(map[string]uint64)}
}

// Deposit credits amount to principal.
func (b *MemoryBook) Deposit(principal string, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[principal] += amount
	return nil
}

// Balance reads principal's current balance.
func (b *MemoryBook) Balance(principal string) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[principal], nil
}

// Transfer debits from and credits to atomically under the book's lock.
func (b *MemoryBook) Transfer(from, to string, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.balances[from] < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, from, b.balances[from], amount)
	}
	b.balances[from] -= amount
	b.balances[to] += amount
	return nil
}
