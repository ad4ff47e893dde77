package inmemdb

import (
	"strconv"
	"sync"

	"github.com/trezcool/darasa/core/classroom"
	"github.com/trezcool/darasa/core/mission"
	"github.com/trezcool/darasa/core/user"
)

type customizationKey struct {
	classID, missionID string
}

// DB is an in-memory stand-in for the platform's database, used by tests and `database.engine=memory`.
type DB struct {
	mutex   sync.RWMutex
	pkCount int

	profiles       map[string]user.Profile
	classes        map[string]classroom.Class
	enrollments    map[string]map[string]bool // class ID -> student IDs
	missions       map[string]mission.Mission
	customizations map[customizationKey]mission.Customization
}

func NewDB() *DB {
	return &DB{
		profiles:       make(map[string]user.Profile),
		classes:        make(map[string]classroom.Class),
		enrollments:    make(map[string]map[string]bool),
		missions:       make(map[string]mission.Mission),
		customizations: make(map[customizationKey]mission.Customization),
	}
}

// nextID must be called with the write lock held.
func (db *DB) nextID() string {
	db.pkCount++
	return strconv.Itoa(db.pkCount)
}

// AddProfile stores prof, generating its ID if empty.
func (db *DB) AddProfile(prof user.Profile) user.Profile {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	if prof.ID == "" {
		prof.ID = db.nextID()
	}
	db.profiles[prof.ID] = prof
	return prof
}

// AddClass stores cls, generating its ID if empty.
func (db *DB) AddClass(cls classroom.Class) classroom.Class {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	if cls.ID == "" {
		cls.ID = db.nextID()
	}
	db.classes[cls.ID] = cls
	return cls
}

func (db *DB) Enroll(classID string, studentIDs ...string) {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	students, ok := db.enrollments[classID]
	if !ok {
		students = make(map[string]bool)
		db.enrollments[classID] = students
	}
	for _, id := range studentIDs {
		students[id] = true
	}
}

// Reset empties every table.
func (db *DB) Reset() {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	db.pkCount = 0
	db.profiles = make(map[string]user.Profile)
	db.classes = make(map[string]classroom.Class)
	db.enrollments = make(map[string]map[string]bool)
	db.missions = make(map[string]mission.Mission)
	db.customizations = make(map[customizationKey]mission.Customization)
}
