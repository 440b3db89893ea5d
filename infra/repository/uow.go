// Package repository provides the GORM-backed unit of work binding the
// appointment and message repositories to one transaction.
package repository

import (
	"context"
	"fmt"
	"reflect"

	infraappointment "github.com/amirasaad/appointments/infra/repository/appointment"
	inframessage "github.com/amirasaad/appointments/infra/repository/message"
	"github.com/amirasaad/appointments/pkg/repository"
	appointmentrepo "github.com/amirasaad/appointments/pkg/repository/appointment"
	messagerepo "github.com/amirasaad/appointments/pkg/repository/message"
	"gorm.io/gorm"
)

// UoW provides a transaction boundary and repository access in one
// abstraction. Every repository handed out inside Do is bound to the same
// transaction session.
type UoW struct {
	db           *gorm.DB
	tx           *gorm.DB
	repoRegistry map[reflect.Type]func(*gorm.DB) any
}

// NewUoW creates a new UoW for the given *gorm.DB.
func NewUoW(db *gorm.DB) *UoW {
	return &UoW{
		db: db,
		repoRegistry: map[reflect.Type]func(*gorm.DB) any{
			reflect.TypeOf((*appointmentrepo.Repository)(nil)).Elem(): func(db *gorm.DB) any { return infraappointment.New(db) },
			reflect.TypeOf((*messagerepo.Repository)(nil)).Elem():     func(db *gorm.DB) any { return inframessage.New(db) },
		},
	}
}

// Do runs the given function in a transaction boundary, providing a UoW with
// repository access. An error from fn rolls the transaction back.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txnUow := &UoW{db: u.db, tx: tx, repoRegistry: u.repoRegistry}
		return fn(txnUow)
	})
}

// GetRepository provides generic, type-safe access to repositories using the
// transaction session. Outside a Do boundary repositories bind to the bare
// connection.
func (u *UoW) GetRepository(repoType reflect.Type) (any, error) {
	constructor, ok := u.repoRegistry[repoType]
	if !ok {
		return nil, fmt.Errorf("unsupported repository type: %v", repoType)
	}
	handle := u.tx
	if handle == nil {
		handle = u.db
	}
	return constructor(handle), nil
}

// AppointmentRepository returns the appointment repository bound to the
// current session.
func (u *UoW) AppointmentRepository() (appointmentrepo.Repository, error) {
	repoAny, err := u.GetRepository(reflect.TypeOf((*appointmentrepo.Repository)(nil)).Elem())
	if err != nil {
		return nil, err
	}
	repo, ok := repoAny.(appointmentrepo.Repository)
	if !ok {
		return nil, fmt.Errorf("repository does not implement appointment.Repository: %T", repoAny)
	}
	return repo, nil
}

// MessageRepository returns the message repository bound to the current
// session.
func (u *UoW) MessageRepository() (messagerepo.Repository, error) {
	repoAny, err := u.GetRepository(reflect.TypeOf((*messagerepo.Repository)(nil)).Elem())
	if err != nil {
		return nil, err
	}
	repo, ok := repoAny.(messagerepo.Repository)
	if !ok {
		return nil, fmt.Errorf("repository does not implement message.Repository: %T", repoAny)
	}
	return repo, nil
}

var _ repository.UnitOfWork = (*UoW)(nil)
