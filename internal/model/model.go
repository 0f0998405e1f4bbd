package model

import "time"

// DateTimeLayout is the storage format for event start times. The column is a
// plain sortable string, so lexical ordering matches chronological ordering.
const DateTimeLayout = "2006-01-02 15:04"

const (
	RoleAdmin       = "admin"
	RoleParticipant = "participant"
)

const (
	StatusRegistered    = "Registered"
	StatusNotRegistered = "Not Registered"
)

type User struct {
	Username string `db:"username" json:"username"`
	Password string `db:"password" json:"-"`
	Role     string `db:"role" json:"role"`
	Phone    string `db:"phone" json:"phone"`
}

type Event struct {
	ID       int    `db:"event_id" json:"event_id"`
	Name     string `db:"name" json:"name"`
	Date     string `db:"date" json:"date"`
	Location string `db:"location" json:"location"`
}

type Registration struct {
	EventID  int    `db:"event_id" json:"event_id"`
	Username string `db:"username" json:"username"`
}

// UpcomingEvent is one row of the participant view: every event exactly once,
// with the registration status for the requesting user.
type UpcomingEvent struct {
	Name     string `db:"name" json:"name"`
	Date     string `db:"date" json:"date"`
	Location string `db:"location" json:"location"`
	Status   string `db:"status" json:"status"`
}

// ReminderRow joins an event with one registered participant's phone number.
type ReminderRow struct {
	EventID   int    `db:"event_id" json:"event_id"`
	EventName string `db:"name" json:"event_name"`
	Date      string `db:"date" json:"date"`
	Location  string `db:"location" json:"location"`
	Username  string `db:"username" json:"username"`
	Phone     string `db:"phone" json:"phone"`
}

// StartTime parses the stored date string.
func (r ReminderRow) StartTime() (time.Time, error) {
	return time.Parse(DateTimeLayout, r.Date)
}
