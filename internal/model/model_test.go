package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitingListStatusNext(t *testing.T) {
	assert.Equal(t, WaitingListStatusAwaitingConfirmation, WaitingListStatusWaiting.Next())
	assert.Equal(t, WaitingListStatusApproved, WaitingListStatusAwaitingConfirmation.Next())
	assert.Equal(t, WaitingListStatusApproved, WaitingListStatusApproved.Next())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-01-10")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-10", d.String())

	_, err = ParseDate("10/01/2025")
	assert.Error(t, err)

	_, err = ParseDate("2025-02-30")
	assert.Error(t, err)
}

func TestDateJSON(t *testing.T) {
	var stay Stay
	require.NoError(t, json.Unmarshal([]byte(`{"entry_date":"2025-01-10","duration_days":30}`), &stay))
	assert.Equal(t, 2025, stay.EntryDate.Year())
	assert.Equal(t, time.January, stay.EntryDate.Month())

	out, err := json.Marshal(stay.EntryDate)
	require.NoError(t, err)
	assert.JSONEq(t, `"2025-01-10"`, string(out))
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2025, 3, 4, 15, 30, 0, 0, time.UTC)))
	assert.Equal(t, "2025-03-04", d.String())

	require.NoError(t, d.Scan([]byte("2024-12-31")))
	assert.Equal(t, "2024-12-31", d.String())

	assert.Error(t, d.Scan(42))
}

func TestOccupancyPct(t *testing.T) {
	assert.Equal(t, 0.0, RoomCounts{}.OccupancyPct())
	assert.Equal(t, 33.3, RoomCounts{Total: 3, Occupied: 1}.OccupancyPct())
	assert.Equal(t, 100.0, RoomCounts{Total: 2, Occupied: 2}.OccupancyPct())
}

func TestLoginRequestSecretAlias(t *testing.T) {
	assert.Equal(t, "pw", LoginRequest{Password: "pw", Senha: "other"}.Secret())
	assert.Equal(t, "other", LoginRequest{Senha: "other"}.Secret())
}
