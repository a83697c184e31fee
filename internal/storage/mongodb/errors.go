package mongodb

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/x/mongo/driver"
	"go.mongodb.org/mongo-driver/x/mongo/driver/auth"
)

// codeAuthenticationFailed is the server's AuthenticationFailed error code.
const codeAuthenticationFailed = 18

// ErrDatabase is matched by every failure coming out of this package.
var ErrDatabase = errors.New("database error")

// Error carries the operation that failed and the driver error behind it.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("database error: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{ErrDatabase, e.Err}
}

// Wrap returns nil for a nil err, otherwise an *Error for op. Errors that
// are already wrapped are returned unchanged.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var dbErr *Error
	if errors.As(err, &dbErr) {
		return err
	}
	return &Error{Op: op, Err: err}
}

// IsAuthError reports whether err is the server rejecting credentials, as
// opposed to the server being unreachable or failing otherwise. A failed
// handshake surfaces as an auth error wrapping the server's reply.
func IsAuthError(err error) bool {
	if se := mongo.ServerError(nil); errors.As(err, &se) && se.HasErrorCode(codeAuthenticationFailed) {
		return true
	}
	var de driver.Error
	if errors.As(err, &de) && de.Code == codeAuthenticationFailed {
		return true
	}
	var ae *auth.Error
	return errors.As(err, &ae)
}
