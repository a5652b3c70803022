package eventlog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"

	"relpchain/core/types"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	journal, err := Open(MemoryDSN())
	require.NoError(t, err)
	t.Cleanup(func() { journal.Close() })
	return journal
}

func TestOpenRequiresDSN(t *testing.T) {
	_, err := Open("  ")
	require.ErrorIs(t, err, ErrPathRequired)
}

func TestAppendAssignsSequence(t *testing.T) {
	ctx := context.Background()
	journal := openTestJournal(t)

	first, err := journal.Append(ctx, 10, []*types.Event{
		{Type: "relp.minted", Attributes: map[string]string{"amount": "100"}},
		nil,
		{Type: "relp.transferred", Attributes: map[string]string{"amount": "40"}},
	})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.Equal(t, uint64(1), first[0].Seq)
	require.Equal(t, uint64(2), first[1].Seq)

	second, err := journal.Append(ctx, 12, []*types.Event{{Type: "relp.burned"}})
	require.NoError(t, err)
	require.Equal(t, uint64(3), second[0].Seq)

	last, err := journal.LastSeq(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(3), last)

	none, err := journal.Append(ctx, 13, nil)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	journal := openTestJournal(t)

	_, err := journal.Append(ctx, 1, []*types.Event{{Type: "relp.minted", Attributes: map[string]string{"amount": "5"}}})
	require.NoError(t, err)
	_, err = journal.Append(ctx, 2, []*types.Event{{Type: "relp.burned"}})
	require.NoError(t, err)
	_, err = journal.Append(ctx, 3, []*types.Event{{Type: "relp.minted", Attributes: map[string]string{"amount": "7"}}})
	require.NoError(t, err)

	minted, err := journal.List(ctx, Filter{Type: "relp.minted"})
	require.NoError(t, err)
	require.Len(t, minted, 2)
	evt, err := minted[1].Event()
	require.NoError(t, err)
	require.Equal(t, "7", evt.Attribute("amount"))

	window, err := journal.List(ctx, Filter{FromBlock: 2, ToBlock: 2})
	require.NoError(t, err)
	require.Len(t, window, 1)
	require.Equal(t, "relp.burned", window[0].Type)

	after, err := journal.List(ctx, Filter{AfterSeq: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, after, 1)
	require.Equal(t, uint64(2), after[0].Seq)
}

func TestJournalPersistsToFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "events.db")

	journal, err := Open(FileDSN(path))
	require.NoError(t, err)
	_, err = journal.Append(ctx, 4, []*types.Event{{Type: "relp.approved"}})
	require.NoError(t, err)
	require.NoError(t, journal.Close())

	reopened, err := Open(FileDSN(path))
	require.NoError(t, err)
	defer reopened.Close()
	records, err := reopened.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, uint64(4), records[0].Block)
}

func TestVerifyDetectsTampering(t *testing.T) {
	ctx := context.Background()
	journal := openTestJournal(t)

	_, err := journal.Append(ctx, 1, []*types.Event{
		{Type: "relp.minted", Attributes: map[string]string{"amount": "5"}},
		{Type: "relp.approved", Attributes: map[string]string{"amount": "2"}},
	})
	require.NoError(t, err)
	_, err = journal.Append(ctx, 2, []*types.Event{{Type: "relp.burned", Attributes: map[string]string{"amount": "1"}}})
	require.NoError(t, err)

	checked, err := journal.Verify(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(3), checked)

	require.NoError(t, journal.db.Model(&Record{}).Where("seq = ?", 2).Update("attributes", `{"amount":"9"}`).Error)
	checked, err = journal.Verify(ctx)
	require.ErrorIs(t, err, ErrDigestMismatch)
	require.Equal(t, uint64(1), checked)
}

func TestExportParquet(t *testing.T) {
	ctx := context.Background()
	journal := openTestJournal(t)
	for block := uint64(1); block <= 3; block++ {
		_, err := journal.Append(ctx, block, []*types.Event{{Type: "relp.minted", Attributes: map[string]string{"amount": "1"}}})
		require.NoError(t, err)
	}
	_, err := journal.Append(ctx, 4, []*types.Event{{Type: "relp.burned"}})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "events.parquet")
	written, err := journal.ExportParquet(ctx, path, Filter{Type: "relp.minted", AfterSeq: 1})
	require.NoError(t, err)
	require.Equal(t, 2, written)

	src, err := local.NewLocalFileReader(path)
	require.NoError(t, err)
	defer src.Close()
	pr, err := reader.NewParquetReader(src, new(parquetRow), 1)
	require.NoError(t, err)
	defer pr.ReadStop()
	require.Equal(t, int64(2), pr.GetNumRows())
	rows := make([]parquetRow, 2)
	require.NoError(t, pr.Read(&rows))
	require.Equal(t, int64(2), rows[0].Seq)
	require.Equal(t, int64(3), rows[1].Block)
	require.Equal(t, "relp.minted", rows[1].Type)
	require.Len(t, rows[1].Digest, 64)
}
