package relp

import (
	"github.com/holiman/uint256"

	"relpchain/crypto"
)

// MemoryState is a map-backed state used by tests and offline replays.
type MemoryState struct {
	global     *Global
	accounts   map[crypto.Address]*Account
	awards     map[awardKey]*Award
	allowances map[allowanceKey]*uint256.Int
}

// NewMemoryState returns an empty in-memory state.
func NewMemoryState() *MemoryState {
	return &MemoryState{
		accounts:   make(map[crypto.Address]*Account),
		awards:     make(map[awardKey]*Award),
		allowances: make(map[allowanceKey]*uint256.Int),
	}
}

func (m *MemoryState) RELPGlobalGet() (*Global, error) {
	if m.global == nil {
		return nil, nil
	}
	return m.global.Clone(), nil
}

func (m *MemoryState) RELPGlobalPut(global *Global) error {
	m.global = global.Clone()
	return nil
}

func (m *MemoryState) RELPAccountGet(addr crypto.Address) (*Account, error) {
	acc, ok := m.accounts[addr]
	if !ok {
		return nil, nil
	}
	return acc.Clone(), nil
}

func (m *MemoryState) RELPAccountPut(addr crypto.Address, account *Account) error {
	m.accounts[addr] = account.Clone()
	return nil
}

func (m *MemoryState) RELPAwardGet(pool PoolID, index uint64) (*Award, error) {
	award, ok := m.awards[awardKey{pool: pool, index: index}]
	if !ok {
		return nil, nil
	}
	return award.Clone(), nil
}

func (m *MemoryState) RELPAwardPut(pool PoolID, index uint64, award *Award) error {
	m.awards[awardKey{pool: pool, index: index}] = award.Clone()
	return nil
}

func (m *MemoryState) RELPAllowanceGet(owner, spender crypto.Address) (*uint256.Int, error) {
	amount, ok := m.allowances[allowanceKey{owner: owner, spender: spender}]
	if !ok {
		return nil, nil
	}
	return cloneInt(amount), nil
}

func (m *MemoryState) RELPAllowancePut(owner, spender crypto.Address, amount *uint256.Int) error {
	m.allowances[allowanceKey{owner: owner, spender: spender}] = cloneInt(amount)
	return nil
}

// Accounts returns every address the state has seen.
func (m *MemoryState) Accounts() []crypto.Address {
	out := make([]crypto.Address, 0, len(m.accounts))
	for addr := range m.accounts {
		out = append(out, addr)
	}
	return out
}
