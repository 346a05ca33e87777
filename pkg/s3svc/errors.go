package s3svc

import (
	"errors"
	"fmt"
)

var (
	// ErrConnectivity matches every failed listing or bucket enumeration.
	ErrConnectivity = errors.New("object store request failed")
	// ErrTransfer matches every failed single-object download.
	ErrTransfer = errors.New("object transfer failed")
)

// Error carries the operation and location of a failed store call.
type Error struct {
	Op     string
	Bucket string
	Key    string
	Err    error

	kind error
}

func (e *Error) Error() string {
	switch {
	case e.Bucket != "" && e.Key != "":
		return fmt.Sprintf("s3.%s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	case e.Bucket != "":
		return fmt.Sprintf("s3.%s bucket %s: %v", e.Op, e.Bucket, e.Err)
	default:
		return fmt.Sprintf("s3.%s: %v", e.Op, e.Err)
	}
}

// Unwrap exposes both the error class and the underlying cause.
func (e *Error) Unwrap() []error {
	return []error{e.kind, e.Err}
}

func connectivityError(op, bucket, key string, err error) *Error {
	return &Error{Op: op, Bucket: bucket, Key: key, Err: err, kind: ErrConnectivity}
}

func transferError(op, bucket, key string, err error) *Error {
	return &Error{Op: op, Bucket: bucket, Key: key, Err: err, kind: ErrTransfer}
}
