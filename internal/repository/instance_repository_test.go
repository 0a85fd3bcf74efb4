package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInstanceRepo(t *testing.T) (*InstanceRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewInstanceRepo(db), mock
}

func TestInstanceGetByIDNotFound(t *testing.T) {
	repo, mock := newInstanceRepo(t)

	mock.ExpectQuery(`SELECT .* FROM show_instances WHERE id = \?`).
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrInstanceNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInstanceCreateBatchCommitsAllDates(t *testing.T) {
	repo, mock := newInstanceRepo(t)
	dates := []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO show_instances \(show_id, instance_date\) VALUES \(\?, \?\)`).
		WithArgs(uint64(1), "2024-01-01").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec(`INSERT INTO show_instances \(show_id, instance_date\) VALUES \(\?, \?\)`).
		WithArgs(uint64(1), "2024-01-08").
		WillReturnResult(sqlmock.NewResult(12, 1))
	mock.ExpectCommit()

	created, err := repo.CreateBatch(context.Background(), 1, dates)
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, uint64(11), created[0].ID)
	assert.Equal(t, uint64(12), created[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInstanceCreateBatchRollsBackOnFailure(t *testing.T) {
	repo, mock := newInstanceRepo(t)
	dates := []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO show_instances`).
		WithArgs(uint64(1), "2024-01-01").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec(`INSERT INTO show_instances`).
		WithArgs(uint64(1), "2024-01-08").
		WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	_, err := repo.CreateBatch(context.Background(), 1, dates)
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInstanceCreateBatchEmptyIsNoop(t *testing.T) {
	repo, mock := newInstanceRepo(t)

	created, err := repo.CreateBatch(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Empty(t, created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInstanceExistingDates(t *testing.T) {
	repo, mock := newInstanceRepo(t)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT instance_date FROM show_instances WHERE show_id = \? AND instance_date BETWEEN \? AND \?`).
		WithArgs(uint64(1), "2024-01-01", "2024-03-31").
		WillReturnRows(sqlmock.NewRows([]string{"instance_date"}).
			AddRow(time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)).
			AddRow(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)))

	existing, err := repo.ExistingDates(context.Background(), 1, from, to)
	require.NoError(t, err)
	assert.True(t, existing["2024-01-08"])
	assert.True(t, existing["2024-01-15"])
	assert.False(t, existing["2024-01-01"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInstanceCancelAlreadyCancelled(t *testing.T) {
	repo, mock := newInstanceRepo(t)
	at := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE show_instances SET is_cancelled=1`).
		WithArgs("rain", at, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT 1 FROM show_instances WHERE id=\?`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	err := repo.Cancel(context.Background(), 7, "rain", at)
	assert.ErrorIs(t, err, ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInstanceCancelMissing(t *testing.T) {
	repo, mock := newInstanceRepo(t)
	at := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE show_instances SET is_cancelled=1`).
		WithArgs("rain", at, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT 1 FROM show_instances WHERE id=\?`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	err := repo.Cancel(context.Background(), 7, "rain", at)
	assert.ErrorIs(t, err, ErrInstanceNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
