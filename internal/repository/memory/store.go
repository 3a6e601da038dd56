// Package memory is a process-local repository.Store. It backs DB_DRIVER=memory
// and the service tests. Every operation, and every WithinTx scope, is serialized
// by one mutex; a failed transaction restores the snapshot taken when it began.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/casacaminho/shelter-api/internal/model"
	"github.com/casacaminho/shelter-api/internal/repository"
)

type tables struct {
	patients map[uuid.UUID]model.Patient
	rooms    map[uuid.UUID]model.Room
	entries  map[uuid.UUID]model.WaitingListEntry
	stays    map[uuid.UUID]model.Stay
	users    map[uuid.UUID]model.User
	outbox   map[uuid.UUID]model.OutboxEvent

	// seq records insertion order so equal timestamps still sort stably.
	seq  map[uuid.UUID]int64
	next int64
}

func newTables() *tables {
	return &tables{
		patients: map[uuid.UUID]model.Patient{},
		rooms:    map[uuid.UUID]model.Room{},
		entries:  map[uuid.UUID]model.WaitingListEntry{},
		stays:    map[uuid.UUID]model.Stay{},
		users:    map[uuid.UUID]model.User{},
		outbox:   map[uuid.UUID]model.OutboxEvent{},
		seq:      map[uuid.UUID]int64{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (t *tables) clone() *tables {
	return &tables{
		patients: cloneMap(t.patients),
		rooms:    cloneMap(t.rooms),
		entries:  cloneMap(t.entries),
		stays:    cloneMap(t.stays),
		users:    cloneMap(t.users),
		outbox:   cloneMap(t.outbox),
		seq:      cloneMap(t.seq),
		next:     t.next,
	}
}

func (t *tables) stamp(id uuid.UUID) {
	t.next++
	t.seq[id] = t.next
}

type Store struct {
	mu   *sync.Mutex
	t    *tables
	inTx bool
}

func NewStore() *Store {
	return &Store{mu: &sync.Mutex{}, t: newTables()}
}

// lock is a no-op inside WithinTx, which already holds the mutex.
func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) Patients() repository.PatientRepository { return &patientRepository{s} }
func (s *Store) Rooms() repository.RoomRepository { return &roomRepository{s} }
func (s *Store) WaitingList() repository.WaitingListRepository { return &waitingListRepository{s} }
func (s *Store) Stays() repository.StayRepository { return &stayRepository{s} }
func (s *Store) Users() repository.UserRepository { return &userRepository{s} }
func (s *Store) Outbox() repository.OutboxRepository { return &outboxRepository{s} }
func (s *Store) Stats() repository.StatsRepository { return &statsRepository{s} }

func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.t.clone()
	defer func() {
		if p := recover(); p != nil {
			*s.t = *snapshot
			panic(p)
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fn(&Store{mu: s.mu, t: s.t, inTx: true}); err != nil {
		*s.t = *snapshot
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}
