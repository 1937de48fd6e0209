package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/attendance"
)

type AttendanceRepository struct {
	exec core.DBExecutor
}

var _ attendance.Repository = (*AttendanceRepository)(nil)

func NewAttendanceRepository(exec core.DBExecutor) *AttendanceRepository {
	return &AttendanceRepository{exec: exec}
}

func (repo AttendanceRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo AttendanceRepository) CreateRecord(ctx context.Context, rec attendance.Record, exec ...core.DBExecutor) (attendance.Record, error) {
	err := sqlx.GetContext(ctx, repo.getExec(exec), &rec,
		`INSERT INTO attendance (student_id, date_time, status) VALUES ($1, $2, $3) RETURNING *`,
		rec.StudentID, rec.DateTime, rec.Status)
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "inserting attendance record")
	}
	return rec, nil
}

func (repo AttendanceRepository) QueryRecordsByStudent(ctx context.Context, studentID int, exec ...core.DBExecutor) ([]attendance.Record, error) {
	var recs []attendance.Record
	err := sqlx.SelectContext(ctx, repo.getExec(exec), &recs,
		`SELECT * FROM attendance WHERE student_id = $1 ORDER BY date_time DESC`, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance records by student")
	}
	return recs, nil
}

func (repo AttendanceRepository) QueryAllRecords(ctx context.Context, exec ...core.DBExecutor) ([]attendance.Record, error) {
	var recs []attendance.Record
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &recs, `SELECT * FROM attendance`); err != nil {
		return nil, errors.Wrap(err, "querying attendance records")
	}
	return recs, nil
}

func (repo AttendanceRepository) GetRecordForPeriod(ctx context.Context, studentID int, start, end time.Time, exec ...core.DBExecutor) (attendance.Record, error) {
	var rec attendance.Record
	err := sqlx.GetContext(ctx, repo.getExec(exec), &rec, `
		SELECT * FROM attendance
		WHERE student_id = $1 AND date_time >= $2 AND date_time < $3
		ORDER BY id LIMIT 1`,
		studentID, start, end)
	if err != nil {
		if err == sql.ErrNoRows {
			return attendance.Record{}, attendance.ErrRecordNotFound
		}
		return attendance.Record{}, errors.Wrap(err, "getting attendance record for period")
	}
	return rec, nil
}

func (repo AttendanceRepository) UpdateRecord(ctx context.Context, rec attendance.Record, exec ...core.DBExecutor) (attendance.Record, error) {
	err := sqlx.GetContext(ctx, repo.getExec(exec), &rec,
		`UPDATE attendance SET date_time = $1, status = $2 WHERE id = $3 RETURNING *`,
		rec.DateTime, rec.Status, rec.ID)
	if err != nil {
		if err == sql.ErrNoRows {
			return attendance.Record{}, attendance.ErrRecordNotFound
		}
		return attendance.Record{}, errors.Wrap(err, "updating attendance record")
	}
	return rec, nil
}

func (repo AttendanceRepository) CountRecords(ctx context.Context, studentID int, status string, exec ...core.DBExecutor) (int, error) {
	var count int
	var err error
	if status != "" {
		err = sqlx.GetContext(ctx, repo.getExec(exec), &count,
			`SELECT COUNT(*) FROM attendance WHERE student_id = $1 AND status = $2`, studentID, status)
	} else {
		err = sqlx.GetContext(ctx, repo.getExec(exec), &count,
			`SELECT COUNT(*) FROM attendance WHERE student_id = $1`, studentID)
	}
	if err != nil {
		return 0, errors.Wrap(err, "counting attendance records")
	}
	return count, nil
}
