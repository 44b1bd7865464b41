package db

import "errors"

// ErrKeyNotFound is returned by Cache.Get for a missing or expired key.
var ErrKeyNotFound = errors.New("db: key not found")

// Operation names recorded on Error.
const (
	OpPing       = "PING"
	OpGet        = "GET"
	OpSet        = "SET"
	OpCounter    = "COUNTER"
	OpAddCounter = "INCRBY"
	OpExpire     = "EXPIRE"
)

// Error records which operation failed, and on which key.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " " + e.Key + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }
