package catalog

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerfsorg/libledgerfs-go/access"
	"github.com/ledgerfsorg/libledgerfs-go/automation"
	"github.com/ledgerfsorg/libledgerfs-go/blob"
	"github.com/ledgerfsorg/libledgerfs-go/crypt"
	"github.com/ledgerfsorg/libledgerfs-go/ledger"
	"github.com/ledgerfsorg/libledgerfs-go/record"
)

const testCapacity = 1000

func newTestCatalog(t *testing.T, opts Options) (*Catalog, *ledger.MemoryLedger) {
	t.Helper()
	if opts.RecordCapacity == 0 {
		opts.RecordCapacity = testCapacity
	}
	sink, err := blob.NewFileSink(t.TempDir())
	require.NoError(t, err)
	ml := ledger.NewMemoryLedger()
	c, err := New(sink, ml, nil, opts)
	require.NoError(t, err)
	return c, ml
}

func TestUpload_Small(t *testing.T) {
	c, ml := newTestCatalog(t, Options{})
	ctx := context.Background()

	payload := []byte("0123456789")
	before := time.Now()
	entry, err := c.Upload(ctx, payload, "a.txt", "text/plain", UploadOptions{RetentionDays: 30})
	require.NoError(t, err)

	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, int64(10), entry.Size)
	assert.Equal(t, crypt.HashHex(payload), entry.ContentHash)
	assert.Nil(t, entry.Encryption)
	assert.Equal(t, 30, entry.RetentionDays)
	assert.WithinDuration(t, before.AddDate(0, 0, 30), entry.ExpiresAt, time.Second)

	// Small payload: exactly one ledger record, no chunks.
	assert.Equal(t, 1, ml.Len())

	got, err := c.Download(ctx, entry.ID, "")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestUpload_InitialVersion(t *testing.T) {
	c, _ := newTestCatalog(t, Options{})

	entry, err := c.Upload(context.Background(), []byte("v1"), "a.txt", "text/plain", UploadOptions{UploadedBy: "alice"})
	require.NoError(t, err)

	versions, err := c.Versions(entry.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, 1, versions[0].Number)
	assert.Equal(t, "Initial upload", versions[0].Description)
	assert.Equal(t, "alice", versions[0].ChangedBy)
	assert.True(t, versions[0].Current)

	cur, err := c.CurrentVersion(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ContentHash, cur.Hash)
}

func TestUpload_OversizedRejectedBeforeAnyWork(t *testing.T) {
	sinkCalls := 0
	sink := &blob.MockSink{
		PutFn: func(ctx context.Context, data []byte) (string, error) {
			sinkCalls++
			return "", nil
		},
	}
	ml := &ledger.MockClient{}
	c, err := New(sink, ml, nil, Options{MaxFileSize: 100, RecordCapacity: testCapacity})
	require.NoError(t, err)

	_, err = c.Upload(context.Background(), make([]byte, 101), "big.bin", "application/octet-stream", UploadOptions{})
	assert.ErrorIs(t, err, ErrValidation)

	// Rejected before hashing, chunking or any collaborator call.
	assert.Zero(t, ml.CommitCalls)
	assert.Zero(t, sinkCalls)
}

func TestUpload_ValidationErrors(t *testing.T) {
	c, _ := newTestCatalog(t, Options{AllowedMimeTypes: []string{"text/plain"}})
	ctx := context.Background()

	_, err := c.Upload(ctx, []byte("x"), "", "text/plain", UploadOptions{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = c.Upload(ctx, []byte("x"), "a.exe", "application/octet-stream", UploadOptions{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = c.Upload(ctx, []byte("x"), "a.txt", "text/plain", UploadOptions{Encrypt: true})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = c.Upload(ctx, []byte("x"), "a.txt", "text/plain", UploadOptions{RetentionDays: -1})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpload_MultiChunk(t *testing.T) {
	c, ml := newTestCatalog(t, Options{})
	ctx := context.Background()

	payload := bytes.Repeat([]byte{0xAB}, 3*testCapacity+5)
	entry, err := c.Upload(ctx, payload, "big.bin", "application/octet-stream", UploadOptions{})
	require.NoError(t, err)

	// 4 chunk records plus 1 manifest record.
	assert.Equal(t, 5, ml.Len())
	assert.Equal(t, int64(3*testCapacity+5), entry.Size)

	got, err := c.Download(ctx, entry.ID, "")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestUpload_ChunkCommitFailureReportsProgress(t *testing.T) {
	commits := 0
	ml := &ledger.MockClient{
		CommitRecordFn: func(ctx context.Context, data []byte) (string, error) {
			commits++
			if commits == 3 {
				return "", errors.New("broadcast refused")
			}
			return ledger.RefForRecord(data), nil
		},
	}
	sink := &blob.MockSink{
		PutFn: func(ctx context.Context, data []byte) (string, error) {
			return blob.RefForContent(data), nil
		},
	}
	c, err := New(sink, ml, nil, Options{RecordCapacity: testCapacity})
	require.NoError(t, err)

	payload := bytes.Repeat([]byte{1}, 3*testCapacity+5)
	_, err = c.Upload(context.Background(), payload, "big.bin", "application/octet-stream", UploadOptions{})
	assert.ErrorIs(t, err, ErrCollaborator)
	assert.Contains(t, err.Error(), "2 of 4 chunks")

	// No partially-indexed entry.
	assert.Empty(t, c.ListByFolder(""))
}

func TestUploadDownload_Encrypted(t *testing.T) {
	c, _ := newTestCatalog(t, Options{})
	ctx := context.Background()

	payload := []byte("secret contents")
	entry, err := c.Upload(ctx, payload, "s.txt", "text/plain", UploadOptions{
		Encrypt:    true,
		Passphrase: "correct horse",
	})
	require.NoError(t, err)

	require.NotNil(t, entry.Encryption)
	assert.Equal(t, crypt.Algorithm, entry.Encryption.Algorithm)
	assert.NotEmpty(t, entry.Encryption.Salt)
	// Content hash reflects the plaintext, not the ciphertext.
	assert.Equal(t, crypt.HashHex(payload), entry.ContentHash)

	got, err := c.Download(ctx, entry.ID, "correct horse")
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	_, err = c.Download(ctx, entry.ID, "wrong pass")
	assert.ErrorIs(t, err, crypt.ErrDecryptionFailed)

	_, err = c.Download(ctx, entry.ID, "")
	assert.ErrorIs(t, err, crypt.ErrDecryptionFailed)
}

func TestUploadDownload_Compressed(t *testing.T) {
	c, ml := newTestCatalog(t, Options{})
	ctx := context.Background()

	payload := bytes.Repeat([]byte("compressible "), 500)
	entry, err := c.Upload(ctx, payload, "c.txt", "text/plain", UploadOptions{Compress: true})
	require.NoError(t, err)
	assert.Equal(t, record.CompressGzip, entry.Compression)

	got, err := c.Download(ctx, entry.ID, "")
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	// Compression is recorded so download can invert it; content hash is
	// still over the raw payload.
	assert.Equal(t, crypt.HashHex(payload), entry.ContentHash)

	// What went to the ledger is the gzip stream, not the plaintext: it
	// decompresses back to the payload and is smaller on the wire.
	raw, err := ml.FetchRecord(ctx, entry.LedgerRef)
	require.NoError(t, err)
	rec, err := record.DecodeRecord(raw)
	require.NoError(t, err)
	require.Equal(t, record.KindSingle, rec.Kind)
	assert.Less(t, len(rec.Payload), len(payload))
	inflated, err := record.Decompress(rec.Payload, record.CompressGzip)
	require.NoError(t, err)
	assert.Equal(t, payload, inflated)
}

func TestUploadDownload_EncryptedCompressedChunked(t *testing.T) {
	c, _ := newTestCatalog(t, Options{})
	ctx := context.Background()

	payload := bytes.Repeat([]byte("chunky secret "), 400)
	entry, err := c.Upload(ctx, payload, "cs.bin", "application/octet-stream", UploadOptions{
		Encrypt:    true,
		Passphrase: "pass",
		Compress:   true,
	})
	require.NoError(t, err)

	got, err := c.Download(ctx, entry.ID, "pass")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestDownload_NotFound(t *testing.T) {
	c, _ := newTestCatalog(t, Options{})
	_, err := c.Download(context.Background(), "missing", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDownload_CountsUsage(t *testing.T) {
	c, _ := newTestCatalog(t, Options{})
	ctx := context.Background()

	entry, err := c.Upload(ctx, []byte("x"), "a.txt", "text/plain", UploadOptions{})
	require.NoError(t, err)

	assert.Zero(t, c.DownloadCount(entry.ID))
	for i := 0; i < 3; i++ {
		_, err := c.Download(ctx, entry.ID, "")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, c.DownloadCount(entry.ID))
	assert.Zero(t, c.DownloadCount("missing"))
}

func TestGetByHash(t *testing.T) {
	c, _ := newTestCatalog(t, Options{})

	payload := []byte("indexed by hash")
	entry, err := c.Upload(context.Background(), payload, "a.txt", "text/plain", UploadOptions{})
	require.NoError(t, err)

	got, err := c.GetByHash(crypt.HashHex(payload))
	require.NoError(t, err)
	assert.Equal(t, entry.ID, got.ID)

	_, err = c.GetByHash("no-such-hash")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRenew(t *testing.T) {
	c, _ := newTestCatalog(t, Options{})

	entry, err := c.Upload(context.Background(), []byte("x"), "a.txt", "text/plain", UploadOptions{RetentionDays: 30})
	require.NoError(t, err)

	require.NoError(t, c.Renew(entry.ID, 15))

	got, err := c.Get(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, 45, got.RetentionDays)
	assert.Equal(t, entry.ExpiresAt.AddDate(0, 0, 15), got.ExpiresAt)

	assert.ErrorIs(t, c.Renew("missing", 10), ErrNotFound)
	assert.ErrorIs(t, c.Renew(entry.ID, 0), ErrValidation)
}

func TestDelete_Cascades(t *testing.T) {
	c, _ := newTestCatalog(t, Options{})
	ctx := context.Background()

	entry, err := c.Upload(ctx, []byte("x"), "a.txt", "text/plain", UploadOptions{})
	require.NoError(t, err)
	require.NoError(t, c.InitCollaboration(entry.ID, "owner"))
	_, err = c.CreateRule(ctx, entry.ID, "auto-renewal", nil, nil)
	require.NoError(t, err)

	require.NoError(t, c.Delete(entry.ID))

	_, err = c.Get(entry.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, c.Rules(entry.ID))
	assert.False(t, c.HasPermission(entry.ID, "owner", "read"))
	_, err = c.Versions(entry.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, c.Delete(entry.ID), ErrNotFound)
}

func TestListByFolderAndSearch(t *testing.T) {
	c, _ := newTestCatalog(t, Options{})
	ctx := context.Background()

	_, err := c.Upload(ctx, []byte("1"), "report.pdf", "application/pdf", UploadOptions{Folder: "work", Tags: []string{"Finance", "q3"}})
	require.NoError(t, err)
	_, err = c.Upload(ctx, []byte("2"), "holiday.jpg", "image/jpeg", UploadOptions{Folder: "photos"})
	require.NoError(t, err)
	_, err = c.Upload(ctx, []byte("3"), "notes.txt", "text/plain", UploadOptions{})
	require.NoError(t, err)

	assert.Len(t, c.ListByFolder(""), 3)
	work := c.ListByFolder("work")
	require.Len(t, work, 1)
	assert.Equal(t, "report.pdf", work[0].Name)

	// Case-insensitive over names and tags.
	assert.Len(t, c.Search("REPORT"), 1)
	assert.Len(t, c.Search("finance"), 1)
	assert.Len(t, c.Search("o"), 3)
	assert.Empty(t, c.Search("nomatch"))
}

func TestExpiringWithin(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	c, _ := newTestCatalog(t, Options{Clock: func() time.Time { return now }})
	ctx := context.Background()

	soon, err := c.Upload(ctx, []byte("1"), "soon.txt", "text/plain", UploadOptions{RetentionDays: 2})
	require.NoError(t, err)
	_, err = c.Upload(ctx, []byte("2"), "later.txt", "text/plain", UploadOptions{RetentionDays: 10})
	require.NoError(t, err)
	_, err = c.Upload(ctx, []byte("3"), "distant.txt", "text/plain", UploadOptions{RetentionDays: 40})
	require.NoError(t, err)

	expiring := c.ExpiringWithin(7)
	require.Len(t, expiring, 1)
	assert.Equal(t, soon.ID, expiring[0].ID)

	all := c.ExpiringWithin(60)
	require.Len(t, all, 3)
	assert.True(t, all[0].ExpiresAt.Before(all[1].ExpiresAt))
	assert.True(t, all[1].ExpiresAt.Before(all[2].ExpiresAt))
}

func TestUploadVersion(t *testing.T) {
	c, _ := newTestCatalog(t, Options{})
	ctx := context.Background()

	v1 := []byte("first draft")
	v2 := []byte("second draft, now longer")

	entry, err := c.Upload(ctx, v1, "doc.txt", "text/plain", UploadOptions{UploadedBy: "alice"})
	require.NoError(t, err)

	updated, err := c.UploadVersion(ctx, entry.ID, v2, "major rewrite", UploadOptions{UploadedBy: "bob"})
	require.NoError(t, err)

	assert.Equal(t, crypt.HashHex(v2), updated.ContentHash)
	assert.Equal(t, int64(len(v2)), updated.Size)

	versions, err := c.Versions(entry.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, "major rewrite", versions[1].Description)
	assert.True(t, versions[1].Current)
	assert.False(t, versions[0].Current)

	got, err := c.Download(ctx, entry.ID, "")
	require.NoError(t, err)
	assert.Equal(t, v2, got)

	// Hash index follows the current content.
	byHash, err := c.GetByHash(crypt.HashHex(v2))
	require.NoError(t, err)
	assert.Equal(t, entry.ID, byHash.ID)

	_, err = c.UploadVersion(ctx, "missing", v2, "", UploadOptions{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRestoreVersion(t *testing.T) {
	c, _ := newTestCatalog(t, Options{})
	ctx := context.Background()

	v1 := []byte("original content")
	v2 := []byte("replacement content")

	entry, err := c.Upload(ctx, v1, "doc.txt", "text/plain", UploadOptions{})
	require.NoError(t, err)
	_, err = c.UploadVersion(ctx, entry.ID, v2, "edit", UploadOptions{})
	require.NoError(t, err)

	versions, err := c.Versions(entry.ID)
	require.NoError(t, err)
	target := versions[0]

	restored, err := c.RestoreVersion(ctx, entry.ID, target.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, 3, restored.Number)
	assert.Equal(t, "Restored from version 1", restored.Description)

	// The entry points back at the original content.
	got, err := c.Download(ctx, entry.ID, "")
	require.NoError(t, err)
	assert.Equal(t, v1, got)

	// History grew; nothing was rewritten.
	versions, err = c.Versions(entry.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 3)

	_, err = c.RestoreVersion(ctx, entry.ID, "no-such-version", "alice")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCollaborationFlow(t *testing.T) {
	c, _ := newTestCatalog(t, Options{})
	ctx := context.Background()

	entry, err := c.Upload(ctx, []byte("x"), "a.txt", "text/plain", UploadOptions{})
	require.NoError(t, err)

	assert.ErrorIs(t, c.InitCollaboration("missing", "owner"), ErrNotFound)
	require.NoError(t, c.InitCollaboration(entry.ID, "owner"))

	assert.True(t, c.HasPermission(entry.ID, "owner", access.PermissionDelete))
	assert.False(t, c.HasPermission(entry.ID, "bob", access.PermissionRead))

	require.NoError(t, c.RequestAccess(entry.ID, "bob", []access.Permission{access.PermissionRead, access.PermissionWrite}))
	require.NoError(t, c.ApproveRequest(entry.ID, "bob", "owner"))

	assert.True(t, c.HasPermission(entry.ID, "bob", access.PermissionRead))
	assert.True(t, c.HasPermission(entry.ID, "bob", access.PermissionWrite))
	assert.False(t, c.HasPermission(entry.ID, "bob", access.PermissionShare))

	require.NoError(t, c.SetCollaborator(entry.ID, "bob", []access.Permission{access.PermissionRead}, "owner"))
	assert.False(t, c.HasPermission(entry.ID, "bob", access.PermissionWrite), "permission sets replace, not merge")

	require.NoError(t, c.TransferOwnership(ctx, entry.ID, "bob", "owner"))
	rec, err := c.AccessRecord(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", rec.Owner)
	assert.True(t, c.HasPermission(entry.ID, "owner", access.PermissionWrite), "old owner keeps full collaborator access")
}

func TestRuleFiring(t *testing.T) {
	c, _ := newTestCatalog(t, Options{})
	ctx := context.Background()

	entry, err := c.Upload(ctx, []byte("x"), "a.txt", "text/plain", UploadOptions{RetentionDays: 30})
	require.NoError(t, err)

	past := automation.Condition{
		Kind:   automation.ConditionTime,
		Params: map[string]string{"target_time": time.Now().Add(-time.Hour).Format(time.RFC3339)},
	}
	rule, err := c.CreateRule(ctx, entry.ID, automation.RuleAutoRenewal, []automation.Condition{past},
		map[string]string{"renew_days": "15"})
	require.NoError(t, err)
	assert.NotEmpty(t, rule.LedgerRef, "rule document is committed to the ledger")

	fired := c.SweepOnce(ctx)
	assert.Equal(t, 1, fired)

	got, err := c.Get(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, 45, got.RetentionDays)
	assert.Equal(t, entry.ExpiresAt.AddDate(0, 0, 15), got.ExpiresAt)
}

func TestRuleNotFiredFutureCondition(t *testing.T) {
	c, _ := newTestCatalog(t, Options{})
	ctx := context.Background()

	entry, err := c.Upload(ctx, []byte("x"), "a.txt", "text/plain", UploadOptions{RetentionDays: 30})
	require.NoError(t, err)

	future := automation.Condition{
		Kind:   automation.ConditionTime,
		Params: map[string]string{"target_time": time.Now().Add(time.Hour).Format(time.RFC3339)},
	}
	rule, err := c.CreateRule(ctx, entry.ID, automation.RuleAutoRenewal, []automation.Condition{future}, nil)
	require.NoError(t, err)

	fired := c.SweepOnce(ctx)
	assert.Zero(t, fired)

	got, err := c.Get(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, got.RetentionDays)

	rules := c.Rules(entry.ID)
	require.Len(t, rules, 1)
	assert.Equal(t, rule.ID, rules[0].ID)
	assert.False(t, rules[0].Conditions[0].Met)
	assert.False(t, rules[0].Conditions[0].LastChecked.IsZero())
}

func TestUsageConditionUnlocksAccess(t *testing.T) {
	c, _ := newTestCatalog(t, Options{})
	ctx := context.Background()

	entry, err := c.Upload(ctx, []byte("popular"), "a.txt", "text/plain", UploadOptions{})
	require.NoError(t, err)
	require.NoError(t, c.InitCollaboration(entry.ID, "owner"))

	usage := automation.Condition{
		Kind:   automation.ConditionUsage,
		Params: map[string]string{"file_id": entry.ID, "threshold": "2"},
	}
	_, err = c.CreateRule(ctx, entry.ID, automation.RuleConditionalAccess, []automation.Condition{usage},
		map[string]string{"address": "bob"})
	require.NoError(t, err)

	// Below the threshold: nothing fires.
	_, err = c.Download(ctx, entry.ID, "")
	require.NoError(t, err)
	assert.Zero(t, c.SweepOnce(ctx))
	assert.False(t, c.HasPermission(entry.ID, "bob", access.PermissionRead))

	// Threshold reached: the rule unlocks read access.
	_, err = c.Download(ctx, entry.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 1, c.SweepOnce(ctx))
	assert.True(t, c.HasPermission(entry.ID, "bob", access.PermissionRead))
}

func TestCreateRule_Errors(t *testing.T) {
	c, _ := newTestCatalog(t, Options{})
	ctx := context.Background()

	_, err := c.CreateRule(ctx, "missing", automation.RuleAutoRenewal, nil, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	entry, err := c.Upload(ctx, []byte("x"), "a.txt", "text/plain", UploadOptions{})
	require.NoError(t, err)

	_, err = c.CreateRule(ctx, entry.ID, "bogus", nil, nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeactivateRule(t *testing.T) {
	c, _ := newTestCatalog(t, Options{})
	ctx := context.Background()

	entry, err := c.Upload(ctx, []byte("x"), "a.txt", "text/plain", UploadOptions{RetentionDays: 30})
	require.NoError(t, err)
	rule, err := c.CreateRule(ctx, entry.ID, automation.RuleAutoRenewal, nil, nil)
	require.NoError(t, err)

	require.NoError(t, c.DeactivateRule(rule.ID))
	assert.Zero(t, c.SweepOnce(ctx))

	got, err := c.Get(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, got.RetentionDays)
}

func TestPersistence_SnapshotAfterMutation(t *testing.T) {
	store := &MockPersistence{}
	sink, err := blob.NewFileSink(t.TempDir())
	require.NoError(t, err)
	ml := ledger.NewMemoryLedger()
	c, err := New(sink, ml, store, Options{RecordCapacity: testCapacity})
	require.NoError(t, err)

	entry, err := c.Upload(context.Background(), []byte("persisted"), "a.txt", "text/plain", UploadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, store.SaveCalls)

	require.NoError(t, c.Renew(entry.ID, 5))
	assert.Equal(t, 2, store.SaveCalls)

	snap := store.Saved()
	require.NotNil(t, snap)
	assert.Equal(t, SnapshotVersion, snap.Version)
	require.Len(t, snap.Files, 1)
	assert.Equal(t, entry.ID, snap.Files[0].ID)
	require.Len(t, snap.Versions, 1)
}

func TestPersistence_ReloadAcrossInstances(t *testing.T) {
	store := &MockPersistence{}
	dir := t.TempDir()
	sink, err := blob.NewFileSink(dir)
	require.NoError(t, err)
	ml := ledger.NewMemoryLedger()
	ctx := context.Background()

	c1, err := New(sink, ml, store, Options{RecordCapacity: testCapacity})
	require.NoError(t, err)
	entry, err := c1.Upload(ctx, []byte("survives restart"), "a.txt", "text/plain", UploadOptions{})
	require.NoError(t, err)
	require.NoError(t, c1.InitCollaboration(entry.ID, "owner"))

	// Same store, same sink, same ledger: a fresh instance sees everything.
	c2, err := New(sink, ml, store, Options{RecordCapacity: testCapacity})
	require.NoError(t, err)

	got, err := c2.Download(ctx, entry.ID, "")
	require.NoError(t, err)
	assert.Equal(t, []byte("survives restart"), got)
	assert.True(t, c2.HasPermission(entry.ID, "owner", access.PermissionRead))

	versions, err := c2.Versions(entry.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 1)
}

func TestPersistence_FailedSaveRevertsUpload(t *testing.T) {
	store := &MockPersistence{
		SaveSnapshotFn: func(*Snapshot) error { return errors.New("disk full") },
	}
	sink, err := blob.NewFileSink(t.TempDir())
	require.NoError(t, err)
	c, err := New(sink, ledger.NewMemoryLedger(), store, Options{RecordCapacity: testCapacity})
	require.NoError(t, err)

	_, err = c.Upload(context.Background(), []byte("x"), "a.txt", "text/plain", UploadOptions{})
	assert.ErrorIs(t, err, ErrCollaborator)
	assert.Empty(t, c.ListByFolder(""))
}

func TestPersistence_CorruptSnapshotStartsEmpty(t *testing.T) {
	store := &MockPersistence{
		LoadSnapshotFn: func() (*Snapshot, error) { return nil, errors.New("corrupt") },
	}
	sink, err := blob.NewFileSink(t.TempDir())
	require.NoError(t, err)

	c, err := New(sink, ledger.NewMemoryLedger(), store, Options{RecordCapacity: testCapacity})
	require.NoError(t, err)
	assert.Empty(t, c.ListByFolder(""))
}

func TestImport_VersionGate(t *testing.T) {
	c, _ := newTestCatalog(t, Options{})

	err := c.Import(&Snapshot{Version: "2.0"})
	assert.ErrorIs(t, err, ErrUnsupportedSnapshot)

	err = c.Import(nil)
	assert.ErrorIs(t, err, ErrUnsupportedSnapshot)
}

func TestExportImport_AdditiveMerge(t *testing.T) {
	c1, _ := newTestCatalog(t, Options{})
	c2, _ := newTestCatalog(t, Options{})
	ctx := context.Background()

	e1, err := c1.Upload(ctx, []byte("one"), "one.txt", "text/plain", UploadOptions{})
	require.NoError(t, err)
	e2, err := c2.Upload(ctx, []byte("two"), "two.txt", "text/plain", UploadOptions{})
	require.NoError(t, err)

	// Merging c1's snapshot into c2 keeps c2's own entries.
	require.NoError(t, c2.Import(c1.Export()))
	assert.Len(t, c2.ListByFolder(""), 2)

	_, err = c2.Get(e1.ID)
	require.NoError(t, err)
	_, err = c2.Get(e2.ID)
	require.NoError(t, err)

	// A duplicate id overwrites the prior entry rather than duplicating it.
	require.NoError(t, c2.Import(c1.Export()))
	assert.Len(t, c2.ListByFolder(""), 2)
}

func TestCollaboratorFailurePropagatesWithOperation(t *testing.T) {
	boom := errors.New("ledger unreachable")
	ml := &ledger.MockClient{
		CommitRecordFn: func(ctx context.Context, data []byte) (string, error) {
			return "", boom
		},
	}
	sink := &blob.MockSink{
		PutFn: func(ctx context.Context, data []byte) (string, error) {
			return blob.RefForContent(data), nil
		},
	}
	c, err := New(sink, ml, nil, Options{RecordCapacity: testCapacity})
	require.NoError(t, err)

	_, err = c.Upload(context.Background(), []byte("x"), "a.txt", "text/plain", UploadOptions{})
	assert.ErrorIs(t, err, ErrCollaborator)
	assert.ErrorIs(t, err, boom, "the underlying failure is preserved")
	assert.Contains(t, err.Error(), "upload")
}
