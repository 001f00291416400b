package inmemdb

import (
	"sync"

	"github.com/trezcool/ratiba/core/school"
	"github.com/trezcool/ratiba/core/timetable"
)

type (
	// DB is a process-local store, used in tests and when no database is configured.
	DB struct {
		timetable *timetableTable
		session   *sessionTable
		school    *schoolTable
	}

	timetableTable struct {
		sync.RWMutex
		pk    int
		table map[int]*timetable.Timetable
	}

	sessionTable struct {
		sync.RWMutex
		pk    int
		table map[int]*timetable.Session
		keys  map[string]int // client key -> session id
	}

	schoolTable struct {
		sync.RWMutex
		data school.Data
	}
)

func Open() (*DB, error) {
	db := &DB{
		timetable: &timetableTable{table: make(map[int]*timetable.Timetable)},
		session:   &sessionTable{table: make(map[int]*timetable.Session), keys: make(map[string]int)},
		school:    &schoolTable{},
	}
	return db, nil
}
