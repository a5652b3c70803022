package relp

import (
	"bytes"
	"sort"

	"github.com/holiman/uint256"

	"relpchain/core/types"
	"relpchain/crypto"
)

type awardKey struct {
	pool  PoolID
	index uint64
}

type allowanceKey struct {
	owner   crypto.Address
	spender crypto.Address
}

// txn buffers every read and write of a single engine call so a failing call
// leaves the backing state untouched. Events are held until commit.
type txn struct {
	base       engineState
	global     *Global
	accounts   map[crypto.Address]*Account
	awards     map[awardKey]*Award
	appended   []awardKey
	allowances map[allowanceKey]*uint256.Int
	dirtyAllow map[allowanceKey]struct{}
	events     []*types.Event
}

func newTxn(base engineState) *txn {
	return &txn{
		base:       base,
		accounts:   make(map[crypto.Address]*Account),
		awards:     make(map[awardKey]*Award),
		allowances: make(map[allowanceKey]*uint256.Int),
		dirtyAllow: make(map[allowanceKey]struct{}),
	}
}

func (tx *txn) loadGlobal() (*Global, error) {
	if tx.global != nil {
		return tx.global, nil
	}
	stored, err := tx.base.RELPGlobalGet()
	if err != nil {
		return nil, err
	}
	tx.global = stored.Clone()
	return tx.global, nil
}

// account returns the buffered record for addr, loading it on first use. The
// returned pointer is shared by every caller within the transaction.
func (tx *txn) account(addr crypto.Address) (*Account, error) {
	if acc, ok := tx.accounts[addr]; ok {
		return acc, nil
	}
	stored, err := tx.base.RELPAccountGet(addr)
	if err != nil {
		return nil, err
	}
	acc := stored.Clone()
	tx.accounts[addr] = acc
	return acc, nil
}

func (tx *txn) award(pool PoolID, index uint64) (*Award, error) {
	key := awardKey{pool: pool, index: index}
	if award, ok := tx.awards[key]; ok {
		return award, nil
	}
	stored, err := tx.base.RELPAwardGet(pool, index)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, ErrIndexOutOfRange
	}
	tx.awards[key] = stored.Clone()
	return tx.awards[key], nil
}

func (tx *txn) appendAward(pool PoolID, index uint64, award *Award) {
	key := awardKey{pool: pool, index: index}
	tx.awards[key] = award
	tx.appended = append(tx.appended, key)
}

func (tx *txn) allowance(owner, spender crypto.Address) (*uint256.Int, error) {
	key := allowanceKey{owner: owner, spender: spender}
	if amount, ok := tx.allowances[key]; ok {
		return amount, nil
	}
	stored, err := tx.base.RELPAllowanceGet(owner, spender)
	if err != nil {
		return nil, err
	}
	amount := new(uint256.Int)
	if stored != nil {
		amount.Set(stored)
	}
	tx.allowances[key] = amount
	return amount, nil
}

func (tx *txn) setAllowance(owner, spender crypto.Address, amount *uint256.Int) {
	key := allowanceKey{owner: owner, spender: spender}
	tx.allowances[key] = cloneInt(amount)
	tx.dirtyAllow[key] = struct{}{}
}

func (tx *txn) emit(evt *types.Event) {
	if evt != nil {
		tx.events = append(tx.events, evt)
	}
}

// commit flushes buffered writes in a deterministic order.
func (tx *txn) commit() error {
	if tx.global != nil {
		if err := tx.base.RELPGlobalPut(tx.global); err != nil {
			return err
		}
	}
	addrs := make([]crypto.Address, 0, len(tx.accounts))
	for addr := range tx.accounts {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return bytes.Compare(addrs[i][:], addrs[j][:]) < 0 })
	for _, addr := range addrs {
		if err := tx.base.RELPAccountPut(addr, tx.accounts[addr]); err != nil {
			return err
		}
	}
	for _, key := range tx.appended {
		if err := tx.base.RELPAwardPut(key.pool, key.index, tx.awards[key]); err != nil {
			return err
		}
	}
	keys := make([]allowanceKey, 0, len(tx.dirtyAllow))
	for key := range tx.dirtyAllow {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if c := bytes.Compare(keys[i].owner[:], keys[j].owner[:]); c != 0 {
			return c < 0
		}
		return bytes.Compare(keys[i].spender[:], keys[j].spender[:]) < 0
	})
	for _, key := range keys {
		if err := tx.base.RELPAllowancePut(key.owner, key.spender, tx.allowances[key]); err != nil {
			return err
		}
	}
	return nil
}
