package eventlog

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"lukechampine.com/blake3"
)

// ErrDigestMismatch is returned by Verify when a stored record does not match
// the digest chain.
var ErrDigestMismatch = errors.New("eventlog: digest mismatch")

var genesisDigest [32]byte

// chainDigest hashes rec's content together with the digest of the record
// before it.
func chainDigest(prev [32]byte, rec Record) [32]byte {
	buf := make([]byte, 0, 32+16+8+len(rec.Type)+8+len(rec.Attributes))
	buf = append(buf, prev[:]...)
	buf = binary.BigEndian.AppendUint64(buf, rec.Seq)
	buf = binary.BigEndian.AppendUint64(buf, rec.Block)
	buf = appendDelimited(buf, []byte(rec.Type))
	buf = appendDelimited(buf, []byte(rec.Attributes))
	return blake3.Sum256(buf)
}

func appendDelimited(buf, data []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(data)))
	return append(buf, data...)
}

func decodeDigest(raw string) ([32]byte, error) {
	var out [32]byte
	decoded, err := hex.DecodeString(raw)
	if err != nil || len(decoded) != len(out) {
		return out, fmt.Errorf("%w: malformed digest %q", ErrDigestMismatch, raw)
	}
	copy(out[:], decoded)
	return out, nil
}

// Verify recomputes the digest chain over the whole journal and returns the
// number of records checked.
func (j *Journal) Verify(ctx context.Context) (uint64, error) {
	if j == nil {
		return 0, fmt.Errorf("eventlog: journal not configured")
	}
	prev := genesisDigest
	var checked, after uint64
	for {
		var batch []Record
		err := j.db.WithContext(ctx).Where("seq > ?", after).Order("seq ASC").Limit(DefaultLimit).Find(&batch).Error
		if err != nil {
			return checked, fmt.Errorf("verify events: %w", err)
		}
		for _, rec := range batch {
			if rec.Seq != checked+1 {
				return checked, fmt.Errorf("%w: expected seq %d, found %d", ErrDigestMismatch, checked+1, rec.Seq)
			}
			want := chainDigest(prev, rec)
			if hex.EncodeToString(want[:]) != rec.Digest {
				return checked, fmt.Errorf("%w at seq %d", ErrDigestMismatch, rec.Seq)
			}
			prev = want
			checked++
			after = rec.Seq
		}
		if len(batch) < DefaultLimit {
			return checked, nil
		}
	}
}
