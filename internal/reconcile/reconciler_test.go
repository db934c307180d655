package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herense/cloudsentinel/internal/model"
)

// ---------- Mock transaction ----------

type execCall struct {
	sql  string
	args []any
}

type mockTx struct {
	calls          []execCall
	execErrAt      int  // 1-based call index that fails; 0 means never
	accountMissing bool // the FOR UPDATE lock matches no row
	committed      bool
	rolledBack     bool
	commitErr      error
}

func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	m.calls = append(m.calls, execCall{sql: sql, args: arguments})
	if m.execErrAt > 0 && len(m.calls) == m.execErrAt {
		return pgconn.CommandTag{}, errors.New("exec failed")
	}
	if strings.Contains(sql, "FOR UPDATE") {
		if m.accountMissing {
			return pgconn.NewCommandTag("SELECT 0"), nil
		}
		return pgconn.NewCommandTag("SELECT 1"), nil
	}
	return pgconn.CommandTag{}, nil
}

func (m *mockTx) Commit(ctx context.Context) error {
	if m.commitErr != nil {
		return m.commitErr
	}
	m.committed = true
	return nil
}

func (m *mockTx) Rollback(ctx context.Context) error {
	if !m.committed {
		m.rolledBack = true
	}
	return nil
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *mockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *mockTx) Conn() *pgx.Conn                                               { return nil }

type mockBeginner struct {
	tx       *mockTx
	beginErr error
}

func (m *mockBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	return m.tx, nil
}

// ---------- Tests ----------

func region(s string) *string { return &s }

func TestReplaceInventory_DeletesThenInserts(t *testing.T) {
	tx := &mockTx{}
	r := New(&mockBeginner{tx: tx})

	scopes := []Scope{
		{
			ResourceType: model.ResourceTypeComputeInstance,
			Region:       region("eu-west-3"),
			Items: []model.CloudResource{
				{ResourceID: "i-0abc123", Detail: json.RawMessage(`{"instance_id":"i-0abc123"}`)},
				{ResourceID: "i-0def456", Detail: json.RawMessage(`{"instance_id":"i-0def456"}`)},
			},
		},
		{
			ResourceType: model.ResourceTypeManagedDatabase,
			Region:       region("eu-west-3"),
			Items:        nil,
		},
	}

	err := r.ReplaceInventory(context.Background(), "test-account-1", scopes)
	require.NoError(t, err)
	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)

	// account lock, then delete + 2 inserts for compute, then delete only
	// for the empty database scope
	require.Len(t, tx.calls, 5)
	assert.Contains(t, tx.calls[0].sql, "FOR UPDATE")
	assert.Contains(t, tx.calls[1].sql, "DELETE FROM cloud_resources")
	assert.Contains(t, tx.calls[1].sql, "region = $3")
	assert.Contains(t, tx.calls[2].sql, "INSERT INTO cloud_resources")
	assert.Contains(t, tx.calls[4].sql, "DELETE FROM cloud_resources")
}

func TestReplaceInventory_LocksAccountBeforeDeleting(t *testing.T) {
	tx := &mockTx{}
	r := New(&mockBeginner{tx: tx})

	scopes := []Scope{{
		ResourceType: model.ResourceTypeComputeInstance,
		Region:       region("eu-west-3"),
		Items:        nil,
	}}

	err := r.ReplaceInventory(context.Background(), "test-account-1", scopes)
	require.NoError(t, err)

	// Concurrent runs for the same account must queue on the account row
	// before touching any scope, so the lock is the first statement.
	require.NotEmpty(t, tx.calls)
	assert.Contains(t, tx.calls[0].sql, "SELECT id FROM cloud_accounts")
	assert.Contains(t, tx.calls[0].sql, "FOR UPDATE")
	assert.Equal(t, "test-account-1", tx.calls[0].args[0])
	for _, call := range tx.calls[1:] {
		assert.NotContains(t, call.sql, "FOR UPDATE")
	}
}

func TestReplaceInventory_AccountDeletedMidScan(t *testing.T) {
	tx := &mockTx{accountMissing: true}
	r := New(&mockBeginner{tx: tx})

	scopes := []Scope{{
		ResourceType: model.ResourceTypeComputeInstance,
		Region:       region("eu-west-3"),
		Items: []model.CloudResource{
			{ResourceID: "i-0abc123", Detail: json.RawMessage(`{}`)},
		},
	}}

	err := r.ReplaceInventory(context.Background(), "test-account-1", scopes)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	require.Len(t, tx.calls, 1)
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func TestReplaceInventory_GlobalScopeHasNoRegionFilter(t *testing.T) {
	tx := &mockTx{}
	r := New(&mockBeginner{tx: tx})

	bucketRegion := "us-east-1"
	scopes := []Scope{{
		ResourceType: model.ResourceTypeStorageBucket,
		Region:       nil,
		Items: []model.CloudResource{
			{ResourceID: "my-bucket", Region: &bucketRegion, Detail: json.RawMessage(`{"name":"my-bucket"}`)},
		},
	}}

	err := r.ReplaceInventory(context.Background(), "test-account-1", scopes)
	require.NoError(t, err)

	require.Len(t, tx.calls, 3)
	assert.NotContains(t, tx.calls[1].sql, "region")
	// the bucket keeps its own resolved region on insert
	assert.Equal(t, &bucketRegion, tx.calls[2].args[4])
}

func TestReplaceInventory_ExecErrorRollsBack(t *testing.T) {
	tx := &mockTx{execErrAt: 3}
	r := New(&mockBeginner{tx: tx})

	scopes := []Scope{{
		ResourceType: model.ResourceTypeComputeInstance,
		Region:       region("eu-west-3"),
		Items: []model.CloudResource{
			{ResourceID: "i-0abc123", Detail: json.RawMessage(`{}`)},
		},
	}}

	err := r.ReplaceInventory(context.Background(), "test-account-1", scopes)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "insert"))
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func TestReplaceInventory_BeginError(t *testing.T) {
	r := New(&mockBeginner{beginErr: errors.New("pool closed")})

	err := r.ReplaceInventory(context.Background(), "test-account-1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin reconcile transaction")
}

func TestReplaceInventory_CommitError(t *testing.T) {
	tx := &mockTx{commitErr: errors.New("serialization failure")}
	r := New(&mockBeginner{tx: tx})

	err := r.ReplaceInventory(context.Background(), "test-account-1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit reconcile transaction")
	assert.True(t, tx.rolledBack)
}
