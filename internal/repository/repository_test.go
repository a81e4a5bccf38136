package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

type fakeResult int64

func (fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return int64(r), nil }

func TestRecordTableSQL(t *testing.T) {
	assert.Equal(t,
		"INSERT INTO position_change_records (id, patient_id, change_date, scheduled_time, position, notes, recorder) "+
			"VALUES (:id, :patient_id, :change_date, :scheduled_time, :position, :notes, :recorder)",
		positionChangesTable.insertSQL())
	assert.Equal(t,
		"UPDATE position_change_records SET patient_id = :patient_id, change_date = :change_date, "+
			"scheduled_time = :scheduled_time, position = :position, notes = :notes, recorder = :recorder WHERE id = :id",
		positionChangesTable.updateSQL())
}

func TestRecordTablesSelectWritableColumns(t *testing.T) {
	for _, tbl := range []recordTable{patrolRoundsTable, diaperChangesTable, restraintObservationsTable, positionChangesTable, hygieneTable} {
		assert.Len(t, tbl.columns, len(tbl.writable)+3, tbl.name)
		assert.NotEmpty(t, tbl.dateCol, tbl.name)
		assert.NotEmpty(t, tbl.timeCol, tbl.name)
	}
	assert.Equal(t, "DATE_FORMAT(patrol_date,'%Y-%m-%d') AS patrol_date", fmtDate("patrol_date"))
	assert.Equal(t, "TIME_FORMAT(patrol_time,'%H:%i') AS patrol_time", fmtTime("patrol_time"))
}

func TestMapWriteErr(t *testing.T) {
	dup := fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	assert.ErrorIs(t, mapWriteErr(dup), ErrConflict)

	fk := &mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"}
	assert.ErrorIs(t, mapWriteErr(fk), ErrInvalidReference)

	other := errors.New("boom")
	assert.Same(t, other, mapWriteErr(other))
}

func TestMapReadErr(t *testing.T) {
	assert.ErrorIs(t, mapReadErr(sql.ErrNoRows), ErrNotFound)
	assert.NoError(t, mapReadErr(nil))
}

func TestAffectedOne(t *testing.T) {
	assert.ErrorIs(t, affectedOne(fakeResult(0)), ErrNotFound)
	assert.NoError(t, affectedOne(fakeResult(1)))
}
