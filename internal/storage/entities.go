package storage

import "time"

// User is a users table row. Columns left out of a Query stay zero valued.
type User struct {
	ID        int64     `db:"id"`
	Username  string    `db:"username"`
	Email     string    `db:"email"`
	Password  string    `db:"password"`
	Status    bool      `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

// Message is a messages table row. SenderID and ReceiverID become nil once the party deletes the message.
type Message struct {
	ID         int64     `db:"id"`
	SenderID   *int64    `db:"sender_id"`
	ReceiverID *int64    `db:"receiver_id"`
	Subject    string    `db:"subject"`
	Body       string    `db:"body"`
	Read       bool      `db:"read"`
	CreatedAt  time.Time `db:"created_at"`
}

// BelongsTo reports whether userID is the sender or the receiver of m
func (m Message) BelongsTo(userID int64) bool {
	return equalID(m.SenderID, userID) || equalID(m.ReceiverID, userID)
}

// IsReceiver reports whether userID is the receiver of m
func (m Message) IsReceiver(userID int64) bool {
	return equalID(m.ReceiverID, userID)
}

// IsSender reports whether userID is the sender of m
func (m Message) IsSender(userID int64) bool {
	return equalID(m.SenderID, userID)
}

// Orphaned reports whether both parties have deleted m
func (m Message) Orphaned() bool {
	return m.SenderID == nil && m.ReceiverID == nil
}

func equalID(p *int64, id int64) bool {
	return p != nil && *p == id
}

// NewUser holds data for a users row insert, Password must be already hashed
type NewUser struct {
	Username string
	Email    string
	Password string
	Status   bool
}

// UserChanges holds columns to update, nil fields are left untouched
type UserChanges struct {
	Username *string
	Email    *string
	Password *string
	Status   *bool
}

// Empty reports whether c changes nothing
func (c UserChanges) Empty() bool {
	return c.Username == nil && c.Email == nil && c.Password == nil && c.Status == nil
}

// NewMessage holds data for a messages row insert
type NewMessage struct {
	SenderID   int64
	ReceiverID int64
	Subject    string
	Body       string
}

// Action tells ModifyMessage what to do with a message after ModifyFunc returns
type Action int

const (
	// Keep leaves the row untouched
	Keep Action = iota
	// Save writes sender_id, receiver_id and read back
	Save
	// Purge deletes the row
	Purge
)

// ModifyFunc inspects and changes a locked message. Returning an error rolls the transaction back.
type ModifyFunc func(m *Message) (Action, error)

// UserColumns lists users table columns which may be selected or ordered by, password excluded
var UserColumns = []string{"id", "username", "email", "status", "created_at"}

// MessageColumns lists messages table columns which may be selected or ordered by
var MessageColumns = []string{"id", "sender_id", "receiver_id", "subject", "body", "read", "created_at"}

// Columns returns changed columns and their new values in a stable order
func (c UserChanges) Columns() ([]string, []interface{}) {
	var (
		columns []string
		values  []interface{}
	)
	if c.Username != nil {
		columns, values = append(columns, "username"), append(values, *c.Username)
	}
	if c.Email != nil {
		columns, values = append(columns, "email"), append(values, *c.Email)
	}
	if c.Password != nil {
		columns, values = append(columns, "password"), append(values, *c.Password)
	}
	if c.Status != nil {
		columns, values = append(columns, "status"), append(values, *c.Status)
	}
	return columns, values
}
