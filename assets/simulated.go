// Package assets provides in-memory ledgers implementing the token and
// native-coin bindings the bridge calls. They stand in for the on-chain
// asset contracts in tests and in the demo node, the same way the
// simulated chain backends stand in for real nodes.
package assets

import (
	"errors"
	"math/big"
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrTransferRejected      = errors.New("transfer rejected by asset contract")
)

// SimulatedToken is a minimal fungible token ledger: balances, allowances,
// mint. RejectTransfersTo models a malicious or broken token that fails
// transfers toward chosen recipients, which the bridge must convert into a
// rejection rather than a revert.
type SimulatedToken struct {
	mu         sync.Mutex
	balances   map[ethcommon.Address]*big.Int
	allowances map[ethcommon.Address]map[ethcommon.Address]*big.Int
	rejected   map[ethcommon.Address]bool
}

func NewSimulatedToken() *SimulatedToken {
	return &SimulatedToken{
		balances:   make(map[ethcommon.Address]*big.Int),
		allowances: make(map[ethcommon.Address]map[ethcommon.Address]*big.Int),
		rejected:   make(map[ethcommon.Address]bool),
	}
}

func (t *SimulatedToken) Mint(to ethcommon.Address, amount *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.credit(to, amount)
}

func (t *SimulatedToken) Approve(owner, spender ethcommon.Address, amount *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.allowances[owner] == nil {
		t.allowances[owner] = make(map[ethcommon.Address]*big.Int)
	}
	t.allowances[owner][spender] = new(big.Int).Set(amount)
}

// RejectTransfersTo makes every transfer toward addr fail.
func (t *SimulatedToken) RejectTransfersTo(addr ethcommon.Address) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rejected[addr] = true
}

func (t *SimulatedToken) BalanceOf(owner ethcommon.Address) *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return new(big.Int).Set(t.balance(owner))
}

func (t *SimulatedToken) Allowance(owner, spender ethcommon.Address) *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.allowances[owner] == nil || t.allowances[owner][spender] == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(t.allowances[owner][spender])
}

func (t *SimulatedToken) Transfer(from, to ethcommon.Address, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.move(from, to, amount)
}

func (t *SimulatedToken) TransferFrom(spender, from, to ethcommon.Address, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	allowance := t.allowances[from][spender]
	if allowance == nil || allowance.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	if err := t.move(from, to, amount); err != nil {
		return err
	}
	allowance.Sub(allowance, amount)
	return nil
}

func (t *SimulatedToken) move(from, to ethcommon.Address, amount *big.Int) error {
	if t.rejected[to] {
		return ErrTransferRejected
	}
	bal := t.balance(from)
	if bal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	bal.Sub(bal, amount)
	t.credit(to, amount)
	return nil
}

func (t *SimulatedToken) balance(owner ethcommon.Address) *big.Int {
	if t.balances[owner] == nil {
		t.balances[owner] = new(big.Int)
	}
	return t.balances[owner]
}

func (t *SimulatedToken) credit(to ethcommon.Address, amount *big.Int) {
	t.balance(to).Add(t.balance(to), amount)
}

// SimulatedNative is the native-coin ledger of one simulated chain.
type SimulatedNative struct {
	mu       sync.Mutex
	balances map[ethcommon.Address]*big.Int
	rejected map[ethcommon.Address]bool
}

func NewSimulatedNative() *SimulatedNative {
	return &SimulatedNative{
		balances: make(map[ethcommon.Address]*big.Int),
		rejected: make(map[ethcommon.Address]bool),
	}
}

func (n *SimulatedNative) Mint(to ethcommon.Address, amount *big.Int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.balance(to).Add(n.balance(to), amount)
}

// RejectTransfersTo makes every transfer toward addr fail, modeling a
// recipient that cannot accept the coin.
func (n *SimulatedNative) RejectTransfersTo(addr ethcommon.Address) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rejected[addr] = true
}

func (n *SimulatedNative) BalanceOf(owner ethcommon.Address) *big.Int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return new(big.Int).Set(n.balance(owner))
}

func (n *SimulatedNative) Transfer(from, to ethcommon.Address, amount *big.Int) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.rejected[to] {
		return ErrTransferRejected
	}
	bal := n.balance(from)
	if bal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	bal.Sub(bal, amount)
	n.balance(to).Add(n.balance(to), amount)
	return nil
}

func (n *SimulatedNative) balance(owner ethcommon.Address) *big.Int {
	if n.balances[owner] == nil {
		n.balances[owner] = new(big.Int)
	}
	return n.balances[owner]
}
