package state

import (
	"encoding/binary"

	"relpchain/crypto"
)

var (
	relpGlobalKey       = []byte("relp/global")
	relpAccountPrefix   = []byte("relp/account/")
	relpAwardPrefix     = []byte("relp/award/")
	relpAllowancePrefix = []byte("relp/allowance/")
)

// RELPGlobalKey returns the key of the ledger-wide aggregate record.
func RELPGlobalKey() []byte {
	return append([]byte(nil), relpGlobalKey...)
}

// RELPAccountKey returns the key of an account record.
func RELPAccountKey(addr crypto.Address) []byte {
	buf := make([]byte, 0, len(relpAccountPrefix)+crypto.AddressLength)
	buf = append(buf, relpAccountPrefix...)
	return append(buf, addr[:]...)
}

// RELPAwardKey returns the key of the award at index in the given pool.
func RELPAwardKey(pool uint8, index uint64) []byte {
	buf := make([]byte, 0, len(relpAwardPrefix)+1+8)
	buf = append(buf, relpAwardPrefix...)
	buf = append(buf, pool)
	return binary.BigEndian.AppendUint64(buf, index)
}

// RELPAllowanceKey returns the key of the allowance owner granted spender.
func RELPAllowanceKey(owner, spender crypto.Address) []byte {
	buf := make([]byte, 0, len(relpAllowancePrefix)+2*crypto.AddressLength)
	buf = append(buf, relpAllowancePrefix...)
	buf = append(buf, owner[:]...)
	return append(buf, spender[:]...)
}
