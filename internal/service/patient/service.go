package patient

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/casacaminho/shelter-api/internal/model"
	"github.com/casacaminho/shelter-api/internal/repository"
	"github.com/casacaminho/shelter-api/internal/service/waitinglist"
	apperrors "github.com/casacaminho/shelter-api/pkg/errors"
)

type PatientService interface {
	Intake(ctx context.Context, req *model.CreatePatientRequest) (*model.PatientIntake, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error)
	Update(ctx context.Context, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	store    repository.Store
	notifier waitinglist.Notifier
	onChange func()
}

func NewService(store repository.Store, notifier waitinglist.Notifier, onChange func()) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		onChange: onChange,
	}
}

func parseOptionalDate(field, value string) (*model.Date, error) {
	if value == "" {
		return nil, nil
	}
	d, err := model.ParseDate(value)
	if err != nil {
		return nil, apperrors.Invalid(field+": "+err.Error(), err)
	}
	return &d, nil
}

// Intake registers a patient and opens their waiting-list entry in the same
// transaction.
func (s *Service) Intake(ctx context.Context, req *model.CreatePatientRequest) (*model.PatientIntake, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.Invalid("name is required", nil)
	}
	birth, err := parseOptionalDate("birth_date", req.BirthDate)
	if err != nil {
		return nil, err
	}
	entryDate := model.Today()
	if d, err := parseOptionalDate("entry_date", req.EntryDate); err != nil {
		return nil, err
	} else if d != nil {
		entryDate = *d
	}

	patient := &model.Patient{
		Base:      model.NewBase(time.Now()),
		Name:      name,
		Phone:     strings.TrimSpace(req.Phone),
		BirthDate: birth,
		City:      req.City,
		Condition: req.Condition,
		Diagnosis: req.Diagnosis,
		Notes:     req.Notes,
	}

	var entry *model.WaitingListEntry
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Patients().Create(ctx, patient); err != nil {
			return err
		}
		if err := repository.RecordEvent(ctx, tx, model.EventPatientRegistered, model.PatientEvent{
			PatientID: patient.ID,
			Name:      patient.Name,
		}); err != nil {
			return err
		}
		var err error
		entry, _, err = waitinglist.EnqueueTx(ctx, tx, patient, entryDate, model.WaitingListStatusWaiting)
		return err
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	log.Info().Str("patient_id", patient.ID.String()).Msg("Patient registered")
	s.changed()
	if s.notifier != nil {
		s.notifier.PatientQueued(ctx, patient, entry)
	}
	return &model.PatientIntake{Patient: patient, Entry: entry}, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.store.Patients().Get(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return patient, nil
}

func (s *Service) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	patients, err := s.store.Patients().List(ctx, filters)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return patients, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	patient, err := s.store.Patients().Get(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperrors.Invalid("name must not be empty", nil)
		}
		patient.Name = name
	}
	if req.Phone != nil {
		patient.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.BirthDate != nil {
		if patient.BirthDate, err = parseOptionalDate("birth_date", *req.BirthDate); err != nil {
			return nil, err
		}
	}
	if req.City != nil {
		patient.City = *req.City
	}
	if req.Condition != nil {
		patient.Condition = *req.Condition
	}
	if req.Diagnosis != nil {
		patient.Diagnosis = *req.Diagnosis
	}
	if req.Notes != nil {
		patient.Notes = *req.Notes
	}

	if err := s.store.Patients().Update(ctx, patient); err != nil {
		return nil, notFound(err)
	}
	return patient, nil
}

// Delete releases the patient's rooms and ends their stays before removing the
// patient, all in one transaction.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Patients().Get(ctx, id); err != nil {
			return notFound(err)
		}

		now := time.Now()
		stay, err := tx.Stays().FindActiveByPatient(ctx, id)
		switch {
		case err == nil:
			if err := tx.Stays().End(ctx, stay.ID, now); err != nil {
				return err
			}
			if err := repository.RecordEvent(ctx, tx, model.EventStayEnded, model.StayEvent{
				StayID:     stay.ID,
				PatientID:  id,
				RoomID:     stay.RoomID,
				RoomNumber: stay.RoomNumber,
				EntryDate:  stay.EntryDate,
			}); err != nil {
				return err
			}
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}

		rooms, err := tx.Rooms().ListByOccupant(ctx, id)
		if err != nil {
			return err
		}
		for _, room := range rooms {
			if err := tx.Rooms().Release(ctx, room.ID); err != nil {
				return err
			}
			patientID := id
			if err := repository.RecordEvent(ctx, tx, model.EventRoomReleased, model.RoomEvent{
				RoomID:     room.ID,
				RoomNumber: room.Number,
				PatientID:  &patientID,
			}); err != nil {
				return err
			}
		}

		if _, err := tx.WaitingList().DeleteByPatient(ctx, id); err != nil {
			return err
		}
		return tx.Patients().Delete(ctx, id)
	})
	if err != nil {
		if _, ok := apperrors.As(err); ok {
			return err
		}
		return apperrors.Internal(err)
	}

	log.Info().Str("patient_id", id.String()).Msg("Patient deleted")
	s.changed()
	return nil
}

func (s *Service) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("patient", err)
	}
	return apperrors.Internal(err)
}
