package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmicnights/openmic/internal/model"
)

func newSignupRepo(t *testing.T) (*SignupRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSignupRepo(db), mock
}

func TestSignupCreateRegistered(t *testing.T) {
	repo, mock := newSignupRepo(t)
	at := time.Date(2024, 1, 14, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO signups`).
		WithArgs(uint64(100), nil, uint64(7), at, "").
		WillReturnResult(sqlmock.NewResult(55, 1))

	s := &model.Signup{
		Performer:      model.RegisteredPerformer(100),
		ShowInstanceID: 7,
		SignupTime:     at,
	}
	require.NoError(t, repo.Create(context.Background(), s))
	assert.Equal(t, uint64(55), s.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSignupCreateWalkinHasNullComedian(t *testing.T) {
	repo, mock := newSignupRepo(t)
	at := time.Date(2024, 1, 15, 20, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO signups`).
		WithArgs(nil, "Surprise Guest", uint64(7), at, "").
		WillReturnResult(sqlmock.NewResult(56, 1))

	s := &model.Signup{
		Performer:      model.WalkinPerformer("Surprise Guest"),
		ShowInstanceID: 7,
		SignupTime:     at,
	}
	require.NoError(t, repo.Create(context.Background(), s))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSignupCreateDuplicateKey(t *testing.T) {
	repo, mock := newSignupRepo(t)
	at := time.Date(2024, 1, 14, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO signups`).
		WithArgs(uint64(100), nil, uint64(7), at, "").
		WillReturnError(errors.New("Error 1062: Duplicate entry '100-7' for key 'uniq_comedian_instance'"))

	s := &model.Signup{
		Performer:      model.RegisteredPerformer(100),
		ShowInstanceID: 7,
		SignupTime:     at,
	}
	err := repo.Create(context.Background(), s)
	assert.ErrorIs(t, err, ErrDuplicateSignup)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSignupDeleteNotFound(t *testing.T) {
	repo, mock := newSignupRepo(t)

	mock.ExpectExec(`DELETE FROM signups WHERE id = \?`).
		WithArgs(uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 99)
	assert.ErrorIs(t, err, ErrSignupNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSignupReorderPositions(t *testing.T) {
	repo, mock := newSignupRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE signups SET position = \? WHERE id = \? AND show_instance_id = \?`).
		WithArgs(1, uint64(301), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE signups SET position = \? WHERE id = \? AND show_instance_id = \?`).
		WithArgs(2, uint64(300), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ReorderPositions(context.Background(), 7, []uint64{301, 300})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
