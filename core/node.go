package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"relpchain/core/events"
	"relpchain/core/state"
	"relpchain/core/types"
	"relpchain/native/relp"
	"relpchain/observability"
	telemetry "relpchain/observability/otel"
	"relpchain/storage"
	"relpchain/storage/eventlog"
	"relpchain/storage/trie"
)

var headKey = []byte("relp/head")

// ErrJournalDisabled is returned by Events when the node runs without an
// event journal.
var ErrJournalDisabled = errors.New("core: event journal disabled")

// Head identifies the last committed state root and the height it was
// committed at.
type Head struct {
	Root   common.Hash
	Height uint64
}

// Node hosts the ledger engine over the persistent state trie. Mutating calls
// are serialized and each one is applied to a working copy of the trie that
// is adopted only when the call succeeds.
type Node struct {
	mu      sync.RWMutex
	db      storage.Database
	trie    *trie.Trie
	engine  *relp.Engine
	journal *eventlog.Journal
	logger  *slog.Logger

	committed Head
	height    uint64

	stream subscribers
}

// Option customises a Node.
type Option func(*Node)

// WithJournal records committed events in journal.
func WithJournal(journal *eventlog.Journal) Option {
	return func(n *Node) { n.journal = journal }
}

// WithLogger overrides the default slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Node) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// NewNode opens the ledger state recorded in db, or an empty ledger when db
// has no head.
func NewNode(db storage.Database, params relp.Params, opts ...Option) (*Node, error) {
	if db == nil {
		return nil, fmt.Errorf("core: database required")
	}
	engine, err := relp.NewEngine(params)
	if err != nil {
		return nil, fmt.Errorf("core: %w", err)
	}
	head, err := loadHead(db)
	if err != nil {
		return nil, err
	}
	var root []byte
	if head.Root != (common.Hash{}) {
		root = head.Root.Bytes()
	}
	stateTrie, err := trie.NewTrie(db, root)
	if err != nil {
		return nil, fmt.Errorf("core: open state trie: %w", err)
	}
	if err := state.EnsureStateVersion(stateTrie, false); err != nil {
		return nil, err
	}

	n := &Node{
		db:        db,
		trie:      stateTrie,
		engine:    engine,
		logger:    slog.Default(),
		committed: head,
		height:    head.Height,
	}
	for _, opt := range opts {
		opt(n)
	}
	n.engine.SetState(state.NewManager(n.trie))
	n.engine.SetBlockHeight(n.height)
	n.logger.Info("ledger state opened",
		slog.String("root", stateTrie.Hash().Hex()),
		slog.Uint64("height", head.Height))
	return n, nil
}

func loadHead(db storage.Database) (Head, error) {
	raw, err := db.Get(headKey)
	if errors.Is(err, storage.ErrNotFound) {
		return Head{}, nil
	}
	if err != nil {
		return Head{}, fmt.Errorf("core: load head: %w", err)
	}
	var head Head
	if err := rlp.DecodeBytes(raw, &head); err != nil {
		return Head{}, fmt.Errorf("core: decode head: %w", err)
	}
	return head, nil
}

// Head returns the last committed root and height.
func (n *Node) Head() Head {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.committed
}

// Height returns the height of the last applied call.
func (n *Node) Height() uint64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.height
}

// commitLocked flushes the trie at the current height. The caller must hold
// the write lock.
func (n *Node) commitLocked() error {
	root, err := n.trie.Commit(n.height)
	if err != nil {
		return fmt.Errorf("core: commit state: %w", err)
	}
	head := Head{Root: root, Height: n.height}
	encoded, err := rlp.EncodeToBytes(head)
	if err != nil {
		return fmt.Errorf("core: encode head: %w", err)
	}
	if err := n.db.Put(headKey, encoded); err != nil {
		return fmt.Errorf("core: store head: %w", err)
	}
	n.committed = head
	n.logger.Info("block committed",
		slog.Uint64("height", head.Height),
		slog.String("root", root.Hex()))
	return nil
}

// Apply runs fn against the engine at block. Heights must not decrease. When
// block is above the last applied height the pending state is committed
// first. A failed call leaves the applied height unchanged. Events emitted by
// a successful call are journaled in call order.
func (n *Node) Apply(ctx context.Context, op string, block uint64, fn func(*relp.Engine) error) error {
	ctx, span := telemetry.StartCall(ctx, op, block)
	start := time.Now()
	err := n.apply(ctx, op, block, fn)
	observability.Ledger().ObserveCall(op, err, time.Since(start))
	telemetry.EndCall(span, err)
	if err != nil {
		n.logger.Warn("ledger call rejected",
			slog.String("op", op),
			slog.Uint64("block", block),
			slog.String("error", err.Error()))
		return err
	}
	return nil
}

func (n *Node) apply(ctx context.Context, op string, block uint64, fn func(*relp.Engine) error) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if block < n.height {
		return fmt.Errorf("%w: block %d below %d", relp.ErrStaleBlock, block, n.height)
	}
	// Pending state is flushed at the old height. The new height is only
	// adopted once fn succeeds.
	if block > n.height {
		if err := n.commitLocked(); err != nil {
			return err
		}
	}

	working := n.trie.Copy()
	buffer := &events.Buffer{}
	n.engine.SetState(state.NewManager(working))
	n.engine.SetEmitter(buffer)
	n.engine.SetBlockHeight(block)
	defer n.engine.SetEmitter(events.NoopEmitter{})

	if err := fn(n.engine); err != nil {
		n.engine.SetState(state.NewManager(n.trie))
		n.engine.SetBlockHeight(n.height)
		return err
	}
	n.trie = working
	n.height = block
	n.publishTotals()
	n.record(ctx, op, block, buffer.Drain())
	return nil
}

// record forwards committed events to metrics, the journal and subscribers.
// Journal failures are logged; the state change has already been adopted.
func (n *Node) record(ctx context.Context, op string, block uint64, evts []*types.Event) {
	for _, evt := range evts {
		observability.Ledger().RecordEvent(evt.Type)
	}
	if n.journal == nil || len(evts) == 0 {
		return
	}
	records, err := n.journal.Append(ctx, block, evts)
	if err != nil {
		n.logger.Error("event journal append failed",
			slog.String("op", op),
			slog.Uint64("block", block),
			slog.String("error", err.Error()))
		return
	}
	n.publish(records)
}

func (n *Node) publishTotals() {
	metrics := observability.Ledger()
	metrics.SetHeight(n.height)
	supply, err := n.engine.TotalSupply()
	if err != nil {
		return
	}
	reward, err := n.engine.TotalReward()
	if err != nil {
		return
	}
	metrics.SetTotals(supply.ToBig(), reward.ToBig())
}

// Query runs fn against the last applied state. fn must only call engine
// queries. Trie reads resolve nodes in place, so queries take the write lock.
func (n *Node) Query(fn func(*relp.Engine) error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return fn(n.engine)
}

// Events lists journal records. It fails when the node has no journal.
func (n *Node) Events(ctx context.Context, filter eventlog.Filter) ([]eventlog.Record, error) {
	if n.journal == nil {
		return nil, ErrJournalDisabled
	}
	return n.journal.List(ctx, filter)
}

// Close commits pending state, ends every subscription and releases
// storage.
func (n *Node) Close() error {
	n.stream.mu.Lock()
	for id, ch := range n.stream.subs {
		delete(n.stream.subs, id)
		close(ch)
	}
	n.stream.mu.Unlock()

	n.mu.Lock()
	defer n.mu.Unlock()
	err := n.commitLocked()
	if n.journal != nil {
		if jerr := n.journal.Close(); jerr != nil && err == nil {
			err = jerr
		}
	}
	n.db.Close()
	return err
}
