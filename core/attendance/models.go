package attendance

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

// Statuses
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
)

// Record is a single attendance mark. The timestamp is exposed as `date` to match
// the API contract.
type Record struct {
	ID        int       `json:"id" db:"id"`
	StudentID int       `json:"student_id" db:"student_id"`
	DateTime  time.Time `json:"date" db:"date_time"` // UTC
	Status    string    `json:"status" db:"status"`
}

// MarkAttendance contains information needed to mark attendance for a student.
// StudentID here is the internal user id, not the external student id string.
type MarkAttendance struct {
	StudentID int    `json:"student_id" validate:"required"`
	Status    string `json:"status" validate:"required,attstatus"`
}

func (ma *MarkAttendance) Validate(validate *validator.Validate) error {
	return validate.Struct(ma)
}

// UpdateAttendance defines what may be changed on today's record; omitted fields
// are left unchanged.
type UpdateAttendance struct {
	Status string     `json:"status" validate:"omitempty,attstatus"`
	Date   *time.Time `json:"date"`
}

func (ua *UpdateAttendance) Validate(validate *validator.Validate) error {
	return validate.Struct(ua)
}

type Summary struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Total   int `json:"total"`
}

// StudentRecord is a record projected for a single student's history.
type StudentRecord struct {
	Date   time.Time `json:"date"`
	Status string    `json:"status"`
}

// NamedRecord is a record joined with its owning user's identity.
type NamedRecord struct {
	StudentID string    `json:"studentId"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Date      time.Time `json:"date"`
}

var (
	attStatusTag  = "attstatus"
	attStatusText = "status must be either 'present' or 'absent'"
)

// InitValidators registers the attendance package's custom validations on the app validator.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(attStatusTag, attStatusValidation)
	core.RegisterCustomTranslation(validate, translator, attStatusTag, attStatusText)
}

// attStatusValidation checks that the provided status is a recognized value.
func attStatusValidation(fl validator.FieldLevel) bool {
	status := fl.Field().String()
	return status == StatusPresent || status == StatusAbsent
}
