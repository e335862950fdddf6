package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/gomarketplace/internal/store/postgres/migrations"
	"github.com/utafrali/gomarketplace/pkg/database"
	apperrors "github.com/utafrali/gomarketplace/pkg/errors"
)

const testKey = "@GoMarketplace:cart"

// --- Test Helpers ---

func newTestStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return New(mock, testKey), mock
}

// --- Load ---

func TestStore_Load_Success(t *testing.T) {
	s, mock := newTestStore(t)
	payload := []byte(`[{"id":"A","title":"Shoe","imageUrl":"u","price":10,"quantity":1}]`)

	mock.ExpectQuery(selectSnapshotSQL).WithArgs(testKey).
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow(payload))

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Load_NotFound(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery(selectSnapshotSQL).WithArgs(testKey).WillReturnError(pgx.ErrNoRows)

	_, err := s.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Load_QueryError(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery(selectSnapshotSQL).WithArgs(testKey).WillReturnError(errors.New("connection reset"))

	_, err := s.Load(context.Background())
	require.Error(t, err)
	assert.False(t, apperrors.IsNotFound(err))
	assert.Contains(t, err.Error(), "select cart snapshot")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- Save ---

func TestStore_Save_Upserts(t *testing.T) {
	s, mock := newTestStore(t)
	payload := []byte(`[]`)

	mock.ExpectExec(upsertSnapshotSQL).WithArgs(testKey, payload).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.Save(context.Background(), payload))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Save_Error(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec(upsertSnapshotSQL).WithArgs(testKey, []byte(`[]`)).
		WillReturnError(errors.New("connection refused"))

	err := s.Save(context.Background(), []byte(`[]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upsert cart snapshot")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- Ping ---

func TestStore_Ping(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectPing()
	require.NoError(t, s.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("down"))
	assert.Error(t, s.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- Migrations ---

func TestMigrations_EmbedsUpAndDown(t *testing.T) {
	up, err := migrations.FS.ReadFile("001_create_cart_snapshots.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(up), "CREATE TABLE IF NOT EXISTS cart_snapshots")

	_, err = migrations.FS.ReadFile("001_create_cart_snapshots.down.sql")
	assert.NoError(t, err)
}
