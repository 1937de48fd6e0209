package attendance

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

var (
	// errors
	ErrRecordNotFound = errors.New("attendance record not found")
	ErrNoRecordToday  = errors.New("attendance record for today not found")
)

type (
	Repository interface {
		CreateRecord(ctx context.Context, rec Record, exec ...core.DBExecutor) (Record, error)
		// QueryRecordsByStudent returns the student's records ordered by date_time descending.
		QueryRecordsByStudent(ctx context.Context, studentID int, exec ...core.DBExecutor) ([]Record, error)
		QueryAllRecords(ctx context.Context, exec ...core.DBExecutor) ([]Record, error)
		// GetRecordForPeriod returns the first record for the student whose date_time
		// falls within [start, end).
		GetRecordForPeriod(ctx context.Context, studentID int, start, end time.Time, exec ...core.DBExecutor) (Record, error)
		UpdateRecord(ctx context.Context, rec Record, exec ...core.DBExecutor) (Record, error)
		// CountRecords counts the student's records, restricted to the given status
		// when non-empty.
		CountRecords(ctx context.Context, studentID int, status string, exec ...core.DBExecutor) (int, error)
	}

	Service interface {
		Mark(ctx context.Context, ma MarkAttendance) (Record, error)
		UpdateToday(ctx context.Context, studentID string, ua UpdateAttendance) (Record, error)
		Summary(ctx context.Context, studentID int) (Summary, error)
		ByStudent(ctx context.Context, studentID string) ([]StudentRecord, error)
		AllWithNames(ctx context.Context) ([]NamedRecord, error)
	}

	service struct {
		repo    Repository
		usrRepo user.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrRepo user.Repository) Service {
	return &service{
		repo:    repo,
		usrRepo: usrRepo,
	}
}

// Mark appends a new record stamped with the current UTC time. Marking twice on the
// same day creates two records; only UpdateToday assumes a singular record per day.
func (svc *service) Mark(ctx context.Context, ma MarkAttendance) (Record, error) {
	rec := Record{
		StudentID: ma.StudentID,
		DateTime:  time.Now().UTC(),
		Status:    ma.Status,
	}
	return svc.repo.CreateRecord(ctx, rec)
}

// UpdateToday rewrites today's record for the student identified by their external
// student id. It never creates a record; ErrNoRecordToday is returned when none
// exists within [midnight, midnight+1d) UTC.
func (svc *service) UpdateToday(ctx context.Context, studentID string, ua UpdateAttendance) (Record, error) {
	student, err := svc.usrRepo.GetStudentByStudentID(ctx, core.CleanString(studentID))
	if err != nil {
		return Record{}, err
	}

	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	rec, err := svc.repo.GetRecordForPeriod(ctx, student.ID, start, end)
	if err != nil {
		if errors.Cause(err) == ErrRecordNotFound {
			return Record{}, ErrNoRecordToday
		}
		return Record{}, err
	}
	if ua.Status != "" {
		rec.Status = ua.Status
	}
	if ua.Date != nil {
		rec.DateTime = ua.Date.UTC()
	}
	return svc.repo.UpdateRecord(ctx, rec)
}

func (svc *service) Summary(ctx context.Context, studentID int) (Summary, error) {
	present, err := svc.repo.CountRecords(ctx, studentID, StatusPresent)
	if err != nil {
		return Summary{}, errors.Wrap(err, "counting present records")
	}
	absent, err := svc.repo.CountRecords(ctx, studentID, StatusAbsent)
	if err != nil {
		return Summary{}, errors.Wrap(err, "counting absent records")
	}
	total, err := svc.repo.CountRecords(ctx, studentID, "")
	if err != nil {
		return Summary{}, errors.Wrap(err, "counting records")
	}
	return Summary{Present: present, Absent: absent, Total: total}, nil
}

func (svc *service) ByStudent(ctx context.Context, studentID string) ([]StudentRecord, error) {
	student, err := svc.usrRepo.GetStudentByStudentID(ctx, core.CleanString(studentID))
	if err != nil {
		return nil, err
	}
	recs, err := svc.repo.QueryRecordsByStudent(ctx, student.ID)
	if err != nil {
		return nil, err
	}
	records := make([]StudentRecord, 0, len(recs))
	for _, rec := range recs {
		records = append(records, StudentRecord{Date: rec.DateTime, Status: rec.Status})
	}
	return records, nil
}

// AllWithNames joins every record to its owning user; records whose owner no longer
// resolves are silently skipped.
func (svc *service) AllWithNames(ctx context.Context) ([]NamedRecord, error) {
	recs, err := svc.repo.QueryAllRecords(ctx)
	if err != nil {
		return nil, err
	}
	users, err := svc.usrRepo.QueryAllUsers(ctx)
	if err != nil {
		return nil, err
	}
	usersByID := make(map[int]user.User, len(users))
	for _, usr := range users {
		usersByID[usr.ID] = usr
	}

	records := make([]NamedRecord, 0, len(recs))
	for _, rec := range recs {
		usr, ok := usersByID[rec.StudentID]
		if !ok {
			continue
		}
		var extID string
		if usr.StudentID != nil {
			extID = *usr.StudentID
		}
		records = append(records, NamedRecord{
			StudentID: extID,
			Name:      usr.Name,
			Status:    rec.Status,
			Date:      rec.DateTime,
		})
	}
	return records, nil
}
