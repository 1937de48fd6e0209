package testutil

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

// NewConfig returns a bare test configuration without touching the environment.
func NewConfig() *core.Config {
	return &core.Config{
		TestMode: true,
		Env:      "TEST",
		AppName:  "Shule",
		WorkDir:  core.Getwd(),
	}
}

// NewLogger returns a core.Logger writing to stdout, fit for tests.
func NewLogger() core.Logger {
	return stdLogger{std: log.New(os.Stdout, "TEST : ", log.LstdFlags)}
}

type stdLogger struct {
	std *log.Logger
}

func (l stdLogger) print(msg string, args []interface{}) {
	l.std.Println(msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}

func (l stdLogger) Debug(msg string, args ...interface{}) { l.print(msg, args) }
func (l stdLogger) Info(msg string, args ...interface{})  { l.print(msg, args) }
func (l stdLogger) Warn(msg string, args ...interface{})  { l.print(msg, args) }
func (l stdLogger) Error(msg string, args ...interface{}) { l.print(msg, args) }
func (l stdLogger) Fatal(msg string, args ...interface{}) { l.print(msg, args); l.std.Fatal(msg) }

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd, role string,
	isActive bool,
	ids ...string, // studentID [, instructorID]
) user.User {
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: time.Now().UTC(),
	}
	if len(ids) > 0 && ids[0] != "" {
		usr.StudentID = &ids[0]
	}
	if len(ids) > 1 && ids[1] != "" {
		usr.InstructorID = &ids[1]
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateSchool(t *testing.T, repo school.Repository, name string, archived bool) school.School {
	sch, err := repo.CreateSchool(context.Background(), school.School{Name: name, Archived: archived})
	if err != nil {
		t.Fatalf("CreateSchool() failed: %v", err)
	}
	return sch
}

func CreateRecord(t *testing.T, repo attendance.Repository, studentID int, status string, at time.Time) attendance.Record {
	rec, err := repo.CreateRecord(context.Background(), attendance.Record{
		StudentID: studentID,
		DateTime:  at.UTC(),
		Status:    status,
	})
	if err != nil {
		t.Fatalf("CreateRecord() failed: %v", err)
	}
	return rec
}
