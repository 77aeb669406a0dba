package ledger

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	dialector := mysql.New(mysql.Config{
		Conn:                      mockDB,
		SkipInitializeWithVersion: true,
	})
	db, err := gorm.Open(dialector, &gorm.Config{})
	require.NoError(t, err)
	return db, mock
}

func TestGormRepositoryGetEntryBySource(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	rows := sqlmock.NewRows([]string{"id", "creator_id", "source_type", "source_id", "gross_cents", "platform_fee_cents", "processing_fee_cents", "net_cents", "currency", "created_at"}).
		AddRow(1, 7, "purchase", "ch_1", 1000, 100, 29, 871, "usd", time.Now())
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	entry, err := repo.GetEntryBySource("purchase", "ch_1")
	require.NoError(t, err)
	assert.Equal(t, uint(7), entry.CreatorID)
	assert.Equal(t, int64(871), entry.NetCents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRepositoryGetEntryBySourceNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	entry, err := repo.GetEntryBySource("purchase", "ch_missing")
	assert.Nil(t, entry)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGormRepositoryListEntriesByCreator(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	rows := sqlmock.NewRows([]string{"id", "creator_id", "net_cents", "currency"}).
		AddRow(1, 7, 871, "usd").
		AddRow(2, 7, 500, "usd")
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	entries, err := repo.ListEntriesByCreator(7)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
