package eventlog

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"relpchain/core/types"
)

// ErrPathRequired is returned when no DSN is configured.
var ErrPathRequired = errors.New("eventlog: dsn must be configured")

// DefaultLimit caps List results when the caller does not.
const DefaultLimit = 100

// Record is one committed ledger event. Digest chains the record to its
// predecessor; see Verify.
type Record struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Seq        uint64    `gorm:"uniqueIndex;not null"`
	Block      uint64    `gorm:"index;not null"`
	Type       string    `gorm:"index;not null"`
	Attributes string    `gorm:"not null"`
	Digest     string    `gorm:"size:64;not null"`
	CreatedAt  time.Time
}

// TableName pins the table name independent of the struct name.
func (Record) TableName() string { return "relp_events" }

// Event decodes the stored payload.
func (r Record) Event() (*types.Event, error) {
	evt := &types.Event{Type: r.Type, Attributes: map[string]string{}}
	if r.Attributes == "" {
		return evt, nil
	}
	if err := json.Unmarshal([]byte(r.Attributes), &evt.Attributes); err != nil {
		return nil, fmt.Errorf("decode attributes: %w", err)
	}
	return evt, nil
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Type      string
	FromBlock uint64
	ToBlock   uint64
	AfterSeq  uint64
	Limit     int
}

// Journal persists committed events in a sqlite database.
type Journal struct {
	db *gorm.DB
}

// MemoryDSN returns a DSN for a private in-memory database.
func MemoryDSN() string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
}

// FileDSN returns a DSN for an on-disk database at path.
func FileDSN(path string) string {
	return fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
}

// Open connects to dsn and migrates the schema.
func Open(dsn string) (*Journal, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, ErrPathRequired
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close releases database resources.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// LastSeq returns the sequence number of the newest record, or 0.
func (j *Journal) LastSeq(ctx context.Context) (uint64, error) {
	var last Record
	err := j.db.WithContext(ctx).Order("seq DESC").Limit(1).Take(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query last seq: %w", err)
	}
	return last.Seq, nil
}

// Append stores evts for block in one transaction and returns the records
// written.
func (j *Journal) Append(ctx context.Context, block uint64, evts []*types.Event) ([]Record, error) {
	if j == nil {
		return nil, fmt.Errorf("eventlog: journal not configured")
	}
	if len(evts) == 0 {
		return nil, nil
	}
	var records []Record
	err := j.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last Record
		seq := uint64(0)
		prev := genesisDigest
		if err := tx.Order("seq DESC").Limit(1).Take(&last).Error; err == nil {
			seq = last.Seq
			decoded, err := decodeDigest(last.Digest)
			if err != nil {
				return fmt.Errorf("record %d: %w", last.Seq, err)
			}
			prev = decoded
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		now := time.Now().UTC()
		records = make([]Record, 0, len(evts))
		for _, evt := range evts {
			if evt == nil {
				continue
			}
			attrs, err := json.Marshal(evt.Attributes)
			if err != nil {
				return fmt.Errorf("encode attributes: %w", err)
			}
			seq++
			rec := Record{
				ID:         uuid.New(),
				Seq:        seq,
				Block:      block,
				Type:       evt.Type,
				Attributes: string(attrs),
				CreatedAt:  now,
			}
			prev = chainDigest(prev, rec)
			rec.Digest = hex.EncodeToString(prev[:])
			records = append(records, rec)
		}
		if len(records) == 0 {
			return nil
		}
		return tx.Create(&records).Error
	})
	if err != nil {
		return nil, fmt.Errorf("append events: %w", err)
	}
	return records, nil
}

// List returns records matching f ordered by sequence number.
func (j *Journal) List(ctx context.Context, f Filter) ([]Record, error) {
	if j == nil {
		return nil, fmt.Errorf("eventlog: journal not configured")
	}
	query := j.db.WithContext(ctx).Model(&Record{})
	if kind := strings.TrimSpace(f.Type); kind != "" {
		query = query.Where("type = ?", kind)
	}
	if f.FromBlock > 0 {
		query = query.Where("block >= ?", f.FromBlock)
	}
	if f.ToBlock > 0 {
		query = query.Where("block <= ?", f.ToBlock)
	}
	if f.AfterSeq > 0 {
		query = query.Where("seq > ?", f.AfterSeq)
	}
	limit := f.Limit
	if limit <= 0 || limit > DefaultLimit {
		limit = DefaultLimit
	}
	var records []Record
	if err := query.Order("seq ASC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return records, nil
}
