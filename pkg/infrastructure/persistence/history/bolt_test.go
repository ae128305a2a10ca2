package history

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/errors"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/sentinel"
)

func newTestStore(t *testing.T) (*BoltStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	store, err := NewBoltStore(path, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func proposal(t *testing.T, status sentinel.FixStatus, created time.Time) sentinel.FixProposal {
	t.Helper()
	p, err := sentinel.NewFixProposal(sentinel.ErrorReport{
		ErrorMessage: "KeyError: 'DATABASE_URL'",
		AffectedFile: "app.py",
		AffectedLine: 12,
	}, "Missing environment variable", 0.9, sentinel.RiskMedium)
	require.NoError(t, err)
	p.Status = status
	p.CreatedAt = created
	return *p
}

func TestBoltStore_Proposals(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	late := proposal(t, sentinel.FixRejected, base.Add(time.Hour))
	early := proposal(t, sentinel.FixApplied, base)
	reviewer := "dana"
	early.ReviewedBy = &reviewer

	require.NoError(t, store.SaveProposal(ctx, late))
	require.NoError(t, store.SaveProposal(ctx, early))

	got, err := store.GetProposal(ctx, early.ID)
	require.NoError(t, err)
	assert.Equal(t, early.ID, got.ID)
	assert.Equal(t, sentinel.FixApplied, got.Status)
	require.NotNil(t, got.ReviewedBy)
	assert.Equal(t, "dana", *got.ReviewedBy)
	assert.True(t, base.Equal(got.CreatedAt))

	all, err := store.ListProposals(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, early.ID, all[0].ID)
	assert.Equal(t, late.ID, all[1].ID)

	rejected, err := store.ListProposals(ctx, WithStatus(sentinel.FixRejected))
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, late.ID, rejected[0].ID)
}

func TestBoltStore_SaveProposalReplaces(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	p := proposal(t, sentinel.FixApproved, time.Now())
	require.NoError(t, store.SaveProposal(ctx, p))
	p.Status = sentinel.FixFailed
	require.NoError(t, store.SaveProposal(ctx, p))

	all, err := store.ListProposals(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, sentinel.FixFailed, all[0].Status)
}

func TestBoltStore_Errors(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetProposal(ctx, "fix-missing")
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))

	err = store.SaveProposal(ctx, sentinel.FixProposal{})
	assert.True(t, errors.HasCode(err, errors.CodeInvalidParameter))

	empty, err := store.ListProposals(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestBoltStore_SignaturesKeepAppendOrder(t *testing.T) {
	store, _ := newTestStore(t)

	ids := []string{"SIG-235959-000", "SIG-000001-001", "SIG-120000-002"}
	for _, id := range ids {
		require.NoError(t, store.AppendSignature(sentinel.ThoughtSignature{ID: id, RiskLevel: sentinel.RiskLow}))
	}

	sigs, err := store.ListSignatures(context.Background())
	require.NoError(t, err)
	require.Len(t, sigs, 3)
	for i, id := range ids {
		assert.Equal(t, id, sigs[i].ID)
	}
}

func TestBoltStore_UnreadableSignatureIsLogged(t *testing.T) {
	var logs bytes.Buffer
	store, err := NewBoltStore(filepath.Join(t.TempDir(), "history.db"), zerolog.New(&logs))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.AppendSignature(sentinel.ThoughtSignature{ID: "SIG-101010-000", RiskLevel: sentinel.RiskLow}))
	require.NoError(t, store.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(signaturesBucket))
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		return bucket.Put(seqKey(seq), []byte("{not json"))
	}))
	require.NoError(t, store.AppendSignature(sentinel.ThoughtSignature{ID: "SIG-101011-001", RiskLevel: sentinel.RiskLow}))

	sigs, err := store.ListSignatures(context.Background())
	require.NoError(t, err)
	require.Len(t, sigs, 2)
	assert.Equal(t, "SIG-101011-001", sigs[1].ID)
	assert.Contains(t, logs.String(), "Skipping unreadable signature")
	assert.Contains(t, logs.String(), `"seq":2`)
}

func TestBoltStore_Reopen(t *testing.T) {
	store, path := newTestStore(t)
	p := proposal(t, sentinel.FixApplied, time.Now())
	require.NoError(t, store.SaveProposal(context.Background(), p))
	require.NoError(t, store.AppendSignature(sentinel.ThoughtSignature{ID: "SIG-000000-000"}))
	require.NoError(t, store.Close())

	reopened, err := NewBoltStore(path, zerolog.Nop())
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetProposal(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	sigs, err := reopened.ListSignatures(context.Background())
	require.NoError(t, err)
	assert.Len(t, sigs, 1)
}

func TestBoltStore_ConcurrentAppends(t *testing.T) {
	store, _ := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.AppendSignature(sentinel.ThoughtSignature{ID: "SIG"}))
		}()
	}
	wg.Wait()

	sigs, err := store.ListSignatures(context.Background())
	require.NoError(t, err)
	assert.Len(t, sigs, 20)
}
