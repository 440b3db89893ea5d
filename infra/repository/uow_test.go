package repository

import (
	"context"
	"reflect"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/amirasaad/appointments/pkg/repository"
	appointmentrepo "github.com/amirasaad/appointments/pkg/repository/appointment"
	messagerepo "github.com/amirasaad/appointments/pkg/repository/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newTestUoW(t *testing.T) (*UoW, sqlmock.Sqlmock) {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	require.NoError(t, err)
	dialector := postgres.New(postgres.Config{
		Conn:       mockDb,
		DriverName: "postgres",
	})
	db, err := gorm.Open(dialector, &gorm.Config{})
	require.NoError(t, err)
	return NewUoW(db), mock
}

func TestUoW_DoAndGetRepository(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)
	uow, mock := newTestUoW(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := uow.Do(context.Background(), func(txUow repository.UnitOfWork) error {
		repoAny, err := txUow.GetRepository(reflect.TypeOf((*appointmentrepo.Repository)(nil)).Elem())
		require.NoError(err)
		_, ok := repoAny.(appointmentrepo.Repository)
		assert.True(ok)

		repoAny, err = txUow.GetRepository(reflect.TypeOf((*messagerepo.Repository)(nil)).Elem())
		require.NoError(err)
		_, ok = repoAny.(messagerepo.Repository)
		assert.True(ok)

		return nil
	})
	assert.NoError(err)
	assert.NoError(mock.ExpectationsWereMet())
}

func TestUoW_UnsupportedRepositoryType(t *testing.T) {
	require := require.New(t)
	uow, mock := newTestUoW(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := uow.Do(context.Background(), func(txUow repository.UnitOfWork) error {
		_, err := txUow.GetRepository(reflect.TypeOf((*repository.UnitOfWork)(nil)).Elem())
		return err
	})
	require.Error(err)
	require.Contains(err.Error(), "unsupported repository type")
}

func TestUoW_TypeSafeMethods(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)
	uow, mock := newTestUoW(t)

	// outside a transaction the repositories bind to the bare connection
	appointmentRepo, err := uow.AppointmentRepository()
	require.NoError(err)
	assert.NotNil(appointmentRepo)

	messageRepo, err := uow.MessageRepository()
	require.NoError(err)
	assert.NotNil(messageRepo)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err = uow.Do(context.Background(), func(txUow repository.UnitOfWork) error {
		appointmentRepo, err := txUow.AppointmentRepository()
		require.NoError(err)
		assert.NotNil(appointmentRepo)

		messageRepo, err := txUow.MessageRepository()
		require.NoError(err)
		assert.NotNil(messageRepo)

		return nil
	})
	assert.NoError(err)
}

func TestUoW_RollbackOnError(t *testing.T) {
	require := require.New(t)
	uow, mock := newTestUoW(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := uow.Do(context.Background(), func(txUow repository.UnitOfWork) error {
		return assert.AnError
	})
	require.ErrorIs(err, assert.AnError)
	require.NoError(mock.ExpectationsWereMet())
}
