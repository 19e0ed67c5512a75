package domain

import "time"

// Entry is one immutable log record.
//
// Two entries are equal when they share the same (CreatedAt, Order) pair; level and
// message take no part in equality or ordering.
type Entry struct {
	level     Level
	message   string
	file      string
	line      uint
	function  string
	createdAt time.Time
	order     int64
	stored    bool
}

// EntryOption customizes an entry while it is being constructed.
type EntryOption func(entry *Entry)

// NewEntry builds an entry. The creation time defaults to now and the order key is drawn from seq
// unless an option supplies them. A nil seq uses ProcessSequencer.
func NewEntry(seq Sequencer, level Level, file string, line uint, function, message string, options ...EntryOption) *Entry {
	entry := &Entry{
		level:    level,
		message:  message,
		file:     file,
		line:     line,
		function: function,
		order:    -1,
	}

	for _, option := range options {
		option(entry)
	}

	if entry.createdAt.IsZero() {
		entry.createdAt = time.Now()
	}
	if entry.order < 0 {
		if seq == nil {
			seq = ProcessSequencer
		}
		entry.order = seq.Next()
	}
	return entry
}

// WithCreatedAt sets the creation time instead of using the construction time.
func WithCreatedAt(createdAt time.Time) EntryOption {
	return func(entry *Entry) {
		entry.createdAt = createdAt
	}
}

// WithOrder sets the order key instead of drawing one from the sequencer.
func WithOrder(order int64) EntryOption {
	return func(entry *Entry) {
		entry.order = order
	}
}

// WithStored marks whether the entry was already synced to an external service.
func WithStored(stored bool) EntryOption {
	return func(entry *Entry) {
		entry.stored = stored
	}
}

func (e *Entry) Level() Level         { return e.level }
func (e *Entry) Message() string      { return e.message }
func (e *Entry) File() string         { return e.file }
func (e *Entry) Line() uint           { return e.line }
func (e *Entry) Function() string     { return e.function }
func (e *Entry) CreatedAt() time.Time { return e.createdAt }
func (e *Entry) Order() int64         { return e.order }
func (e *Entry) Stored() bool         { return e.stored }

// Compare orders entries by creation time, then by order key.
// It returns -1 if e sorts before other, 1 if after and 0 if they are equal.
func (e *Entry) Compare(other *Entry) int {
	if c := e.createdAt.Compare(other.createdAt); c != 0 {
		return c
	}
	switch {
	case e.order < other.order:
		return -1
	case e.order > other.order:
		return 1
	default:
		return 0
	}
}

// Equal reports whether both entries share the same (CreatedAt, Order) key.
func (e *Entry) Equal(other *Entry) bool {
	return e.Compare(other) == 0
}

// Less reports whether e was created before other.
func (e *Entry) Less(other *Entry) bool {
	return e.Compare(other) < 0
}

// Record is the serializable projection of an entry.
type Record struct {
	Level     string    `json:"level"`
	CreatedAt time.Time `json:"createdAt"`
	Order     int64     `json:"order"`
	File      string    `json:"file"`
	Line      uint      `json:"line"`
	Function  string    `json:"function"`
	Message   string    `json:"message"`
	Stored    bool      `json:"stored,omitempty"`
}

// Record returns the serializable projection of the entry.
func (e *Entry) Record() Record {
	return Record{
		Level:     e.level.String(),
		CreatedAt: e.createdAt,
		Order:     e.order,
		File:      e.file,
		Line:      e.line,
		Function:  e.function,
		Message:   e.message,
		Stored:    e.stored,
	}
}

// Entry rebuilds an entry from its record. Unknown level names fall back to debug.
func (r Record) Entry() *Entry {
	level, err := ParseLevel(r.Level)
	if err != nil {
		level = LevelDebug
	}
	return NewEntry(nil, level, r.File, r.Line, r.Function, r.Message,
		WithCreatedAt(r.CreatedAt), WithOrder(r.Order), WithStored(r.Stored))
}
