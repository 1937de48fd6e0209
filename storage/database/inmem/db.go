// Package inmemdb provides in-memory repositories used by tests.
package inmemdb

import (
	"sync"

	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

type (
	DB struct {
		user       *userTable
		school     *schoolTable
		attendance *attendanceTable
	}

	userTable struct {
		table   map[int]*user.User
		pkCount int
		mutex   sync.RWMutex
	}

	schoolTable struct {
		table   map[int]*school.School
		pkCount int
		mutex   sync.RWMutex
	}

	attendanceTable struct {
		table   map[int]*attendance.Record
		pkCount int
		mutex   sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		user:       &userTable{table: make(map[int]*user.User)},
		school:     &schoolTable{table: make(map[int]*school.School)},
		attendance: &attendanceTable{table: make(map[int]*attendance.Record)},
	}
}
