package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"testing/fstest"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casacaminho/shelter-api/internal/model"
	"github.com/casacaminho/shelter-api/internal/repository"
)

func setupMockStore(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *Store) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	return db, mock, NewStore(sqlx.NewDb(db, "postgres"))
}

var roomCols = []string{"id", "number", "type", "status", "occupant_id", "occupied_since", "created_at", "updated_at"}

func TestFindFreeForUpdate_OrdersByNumberAndSkipsLocked(t *testing.T) {
	db, mock, store := setupMockStore(t)
	defer db.Close()

	id := uuid.New()
	now := time.Now()
	rows := sqlmock.NewRows(roomCols).AddRow(id.String(), "A1", "single", "free", nil, nil, now, now)
	mock.ExpectQuery(`WHERE status = 'free' ORDER BY number COLLATE "C" ASC, id ASC\s+LIMIT 1\s+FOR UPDATE SKIP LOCKED`).WillReturnRows(rows)

	room, err := store.Rooms().FindFreeForUpdate(context.Background())

	require.NoError(t, err)
	assert.Equal(t, id, room.ID)
	assert.Equal(t, "A1", room.Number)
	assert.Equal(t, model.RoomStatusFree, room.Status)
	assert.Nil(t, room.OccupantID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindFreeForUpdate_NoneFree(t *testing.T) {
	db, mock, store := setupMockStore(t)
	defer db.Close()

	mock.ExpectQuery(`FOR UPDATE SKIP LOCKED`).WillReturnRows(sqlmock.NewRows(roomCols))

	_, err := store.Rooms().FindFreeForUpdate(context.Background())

	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOccupy_ConditionalUpdate(t *testing.T) {
	db, mock, store := setupMockStore(t)
	defer db.Close()

	roomID, patientID := uuid.New(), uuid.New()
	since := model.NewDate(time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC))

	mock.ExpectExec(regexp.QuoteMeta(`WHERE id = $4 AND status = 'free'`)).
		WithArgs(patientID, since.Time, sqlmock.AnyArg(), roomID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.Rooms().Occupy(context.Background(), roomID, patientID, since))

	mock.ExpectExec(regexp.QuoteMeta(`WHERE id = $4 AND status = 'free'`)).
		WithArgs(patientID, since.Time, sqlmock.AnyArg(), roomID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := store.Rooms().Occupy(context.Background(), roomID, patientID, since)
	assert.ErrorIs(t, err, repository.ErrRoomNotFree)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRelease_MissingRoom(t *testing.T) {
	db, mock, store := setupMockStore(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE rooms\s+SET status = 'free', occupant_id = NULL`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Rooms().Release(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomCounts(t *testing.T) {
	db, mock, store := setupMockStore(t)
	defer db.Close()

	mock.ExpectQuery(`COUNT\(\*\) FILTER`).WillReturnRows(
		sqlmock.NewRows([]string{"total", "free", "occupied", "maintenance"}).AddRow(4, 1, 2, 1))

	counts, err := store.Rooms().Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.RoomCounts{Total: 4, Free: 1, Occupied: 2, Maintenance: 1}, counts)
	assert.Equal(t, 50.0, counts.OccupancyPct())
}

func TestPatientGet_NotFound(t *testing.T) {
	db, mock, store := setupMockStore(t)
	defer db.Close()

	id := uuid.New()
	mock.ExpectQuery(`FROM patients WHERE id = \$1`).WithArgs(id).WillReturnError(sql.ErrNoRows)

	_, err := store.Patients().Get(context.Background(), id)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPatientList_Filters(t *testing.T) {
	db, mock, store := setupMockStore(t)
	defer db.Close()

	cols := []string{"id", "name", "phone", "birth_date", "city", "clinical_condition", "diagnosis", "notes", "created_at", "updated_at"}
	now := time.Now()
	birth := time.Date(1960, 5, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE name ILIKE $1 AND city ILIKE $2 ORDER BY name ASC`)).
		WithArgs("%maria%", "Recife").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(uuid.NewString(), "Maria", "+5581", birth, "Recife", "", "", "", now, now))

	patients, err := store.Patients().List(context.Background(), &model.PatientFilters{Search: "maria", City: "Recife"})
	require.NoError(t, err)
	require.Len(t, patients, 1)
	require.NotNil(t, patients[0].BirthDate)
	assert.Equal(t, "1960-05-02", patients[0].BirthDate.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	db, mock, store := setupMockStore(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO users`).WillReturnError(&pq.Error{Code: uniqueViolation})

	err := store.Users().Create(context.Background(), &model.User{Name: "A", Email: "A@Example.org ", Role: model.UserRoleStaff})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestWaitingListList_HidesApprovedByDefault(t *testing.T) {
	db, mock, store := setupMockStore(t)
	defer db.Close()

	cols := []string{"id", "patient_id", "entry_date", "status", "created_at", "updated_at", "patient_name", "patient_phone"}
	now := time.Now()
	mock.ExpectQuery(`WHERE w.status <> 'approved' ORDER BY w.entry_date ASC, w.created_at ASC`).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(uuid.NewString(), uuid.NewString(), now, "waiting", now, now, "Ana", "+55"))

	entries, err := store.WaitingList().List(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Ana", entries[0].PatientName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_CommitAndRollback(t *testing.T) {
	db, mock, store := setupMockStore(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM waiting_list_entries WHERE patient_id`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := store.WithinTx(context.Background(), func(tx repository.Store) error {
		n, err := tx.WaitingList().DeleteByPatient(context.Background(), uuid.New())
		assert.Equal(t, int64(2), n)
		return err
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()
	err = store.WithinTx(context.Background(), func(tx repository.Store) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxCreate(t *testing.T) {
	db, mock, store := setupMockStore(t)
	defer db.Close()

	evt, err := model.NewOutboxEvent(model.EventStayOpened, map[string]string{"room": "A1"})
	require.NoError(t, err)

	mock.ExpectExec(`INSERT INTO outbox_events`).
		WithArgs(evt.ID, model.EventStayOpened, []byte(`{"room":"A1"}`), model.OutboxStatusPending, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Outbox().Create(context.Background(), evt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadMigrations(t *testing.T) {
	files := fstest.MapFS{
		"002_rooms.sql": {Data: []byte("CREATE TABLE rooms (id UUID);")},
		"001_core.sql":  {Data: []byte("CREATE TABLE patients (id UUID);")},
		"README.md":     {Data: []byte("docs")},
		"seed.sql":      {Data: []byte("INSERT")},
	}

	migrations, err := NewMigrator(nil, files).LoadMigrations()
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "002_rooms.sql", migrations[1].Name)
}

func TestEmbeddedMigrations(t *testing.T) {
	migrations, err := NewMigrator(nil, nil).LoadMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	assert.Contains(t, migrations[0].SQL, "CREATE TABLE IF NOT EXISTS rooms")
}

func TestMigratorUp_SkipsApplied(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	files := fstest.MapFS{
		"001_core.sql":  {Data: []byte("CREATE TABLE a (id INT)")},
		"002_rooms.sql": {Data: []byte("CREATE TABLE b (id INT)")},
	}
	migrator := NewMigrator(sqlx.NewDb(db, "postgres"), files)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT version FROM schema_migrations`).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(1))
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE b`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO schema_migrations`).WithArgs(2, "002_rooms.sql").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	applied, err := migrator.Up(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxCleanup(t *testing.T) {
	db, mock, store := setupMockStore(t)
	defer db.Close()

	cutoff := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(`DELETE FROM outbox_events\s+WHERE status = 'processed' AND processed_at < \$1`).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := store.Outbox().Cleanup(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
