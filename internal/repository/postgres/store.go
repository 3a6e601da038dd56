package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/casacaminho/shelter-api/internal/repository"
)

const uniqueViolation = "23505"

// Store binds every repository to either the pool or one open transaction.
type Store struct {
	db  *sqlx.DB
	ext sqlx.ExtContext
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db, ext: db}
}

func (s *Store) Patients() repository.PatientRepository {
	return &patientRepository{db: s.ext}
}

func (s *Store) Rooms() repository.RoomRepository {
	return &roomRepository{db: s.ext}
}

func (s *Store) WaitingList() repository.WaitingListRepository {
	return &waitingListRepository{db: s.ext}
}

func (s *Store) Stays() repository.StayRepository {
	return &stayRepository{db: s.ext}
}

func (s *Store) Users() repository.UserRepository {
	return &userRepository{db: s.ext}
}

func (s *Store) Outbox() repository.OutboxRepository {
	return &outboxRepository{db: s.ext}
}

func (s *Store) Stats() repository.StatsRepository {
	return &statsRepository{db: s.ext}
}

// WithinTx executes fn within a transaction. Nested calls join the outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Store{ext: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Error().Err(rbErr).Msg("Failed to roll back transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.PingContext(ctx)
}

// wrapErr turns driver errors into repository sentinels and adds the operation name.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, repository.ErrDuplicate)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// expectRow reports ErrNotFound when an update or delete touched nothing.
func expectRow(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	return nil
}
