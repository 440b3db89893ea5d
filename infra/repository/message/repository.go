// Package message provides the GORM-backed persistence for the append-only
// audit message ledger.
package message

import (
	"context"
	"errors"

	domain "github.com/amirasaad/appointments/pkg/domain/appointment"
	"github.com/amirasaad/appointments/pkg/dto"
	repo "github.com/amirasaad/appointments/pkg/repository/message"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// New creates a new message repository bound to the given connection or
// transaction handle.
func New(db *gorm.DB) repo.Repository {
	return &repository{db: db}
}

// mapError translates storage errors to the domain vocabulary.
func mapError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrMessageNotFound
	}
	return err
}

func (r *repository) Create(ctx context.Context, create dto.MessageCreate) error {
	row := mapCreateDTOToModel(create)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return mapError(err)
	}
	if len(create.Lines) > 0 {
		lines := mapLineCreatesToModels(create.ID, create.Lines)
		if err := r.db.WithContext(ctx).Create(&lines).Error; err != nil {
			return mapError(err)
		}
	}
	return nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*dto.MessageRead, error) {
	var row Message
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, mapError(err)
	}
	return r.readMessage(ctx, row)
}

func (r *repository) ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*dto.MessageRead, error) {
	var rows []Message
	err := r.db.WithContext(ctx).
		Where("appointment_id = ?", appointmentID).
		Order("version").
		Find(&rows).Error
	if err != nil {
		return nil, mapError(err)
	}
	reads := make([]*dto.MessageRead, 0, len(rows))
	for _, row := range rows {
		read, err := r.readMessage(ctx, row)
		if err != nil {
			return nil, err
		}
		reads = append(reads, read)
	}
	return reads, nil
}

// readMessage loads the detail lines belonging to a row and assembles the
// read DTO.
func (r *repository) readMessage(ctx context.Context, row Message) (*dto.MessageRead, error) {
	read := mapModelToDTO(row)
	var lines []MessageLine
	if err := r.db.WithContext(ctx).
		Where("message_id = ?", row.ID).
		Order("seq").
		Find(&lines).Error; err != nil {
		return nil, mapError(err)
	}
	for _, line := range lines {
		read.Lines = append(read.Lines, dto.MessageLineRead{
			Seq:  line.Seq,
			Code: line.Code,
			Text: line.Text,
		})
	}
	return read, nil
}

func mapCreateDTOToModel(create dto.MessageCreate) Message {
	return Message{
		ID:            create.ID,
		AppointmentID: create.AppointmentID,
		Version:       create.Version,
		Transition:    create.Transition,
		Actor:         create.Actor,
		CreatedAt:     create.CreatedAt,
	}
}

func mapLineCreatesToModels(messageID uuid.UUID, lines []dto.MessageLineCreate) []MessageLine {
	models := make([]MessageLine, 0, len(lines))
	for _, line := range lines {
		models = append(models, MessageLine{
			MessageID: messageID,
			Seq:       line.Seq,
			Code:      line.Code,
			Text:      line.Text,
		})
	}
	return models
}

func mapModelToDTO(row Message) *dto.MessageRead {
	return &dto.MessageRead{
		ID:            row.ID,
		AppointmentID: row.AppointmentID,
		Version:       row.Version,
		Transition:    row.Transition,
		Actor:         row.Actor,
		CreatedAt:     row.CreatedAt,
	}
}
