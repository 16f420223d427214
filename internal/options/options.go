// Package options turns loosely typed list/get query parameters into an immutable, bounded Options value.
//
// Parsing never fails: a malformed or out of range parameter silently falls back to the resource default.
package options

const (
	MaxLimit    = 100
	TypeAll     = "all"
	TypeOnline  = "online"
	TypeOffline = "offline"
	TypeInbox   = "inbox"
	TypeSent    = "sent"
	SortAsc     = "asc"
	SortDesc    = "desc"
)

// Name is a query parameter name understood by Parse
type Name string

const (
	Limit  Name = "limit"
	Offset Name = "offset"
	Sort   Name = "sort"
	Fields Name = "fields"
	Type   Name = "type"
	Status Name = "status"
)

// ReadStatus filters messages by read flag
type ReadStatus int

const (
	AnyStatus ReadStatus = iota
	Unread
	Read
)

// Order is a single sort key with its direction
type Order struct {
	Field     string
	Direction string
}

// Desc reports whether o sorts in descending order
func (o Order) Desc() bool { return o.Direction == SortDesc }

// Options is the parsed form of list/get query parameters
type Options struct {
	Limit  int
	Offset int
	// Sort keeps keys in request order, nil means resource default order
	Sort []Order
	// Fields keeps selected fields in request order, nil means all fields
	Fields []string
	Type   string
	Status ReadStatus
}

// Resource describes allowed values and defaults of one REST resource
type Resource struct {
	Name         string
	DefaultLimit int
	MaxLimit     int
	Fields       []string
	SortKeys     []string
	Types        []string
	DefaultType  string
}

// Users is the users resource
var Users = Resource{
	Name:         "users",
	DefaultLimit: 10,
	MaxLimit:     MaxLimit,
	Fields:       []string{"id", "username", "email", "status", "created_at"},
	SortKeys:     []string{"id", "username", "email", "status", "created_at", "date"},
	Types:        []string{TypeAll, TypeOnline, TypeOffline},
	DefaultType:  TypeAll,
}

// Messages is the messages resource
var Messages = Resource{
	Name:         "messages",
	DefaultLimit: 50,
	MaxLimit:     MaxLimit,
	Fields:       []string{"id", "sender_id", "receiver_id", "subject", "body", "read", "created_at"},
	SortKeys:     []string{"id", "sender_id", "receiver_id", "subject", "body", "read", "created_at", "date", "user"},
	Types:        []string{TypeAll, TypeInbox, TypeSent},
	DefaultType:  TypeAll,
}

// Defaults returns options a request without parameters gets
func (r Resource) Defaults() Options {
	return Options{
		Limit:  r.DefaultLimit,
		Offset: 0,
		Type:   r.DefaultType,
		Status: AnyStatus,
	}
}

// SortDirection returns direction requested for key and whether key was requested at all
func (o Options) SortDirection(key string) (string, bool) {
	for _, s := range o.Sort {
		if s.Field == key {
			return s.Direction, true
		}
	}
	return "", false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
