package sharefs

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrInvalidSharePath indicates a remote-looking path with no
	// share segment.
	ErrInvalidSharePath = errors.New("invalid share path")

	// ErrNoCredential indicates that no registered credential covers
	// the target path.
	ErrNoCredential = errors.New("no credential registered for path")

	// ErrHostResolution indicates the host name could not be resolved
	// to a network address.
	ErrHostResolution = errors.New("host name resolution failed")

	// ErrHostUnreachable indicates the resolved host did not accept a
	// transport connection.
	ErrHostUnreachable = errors.New("host unreachable")

	// ErrSessionSetup indicates session establishment or
	// authentication with the host failed.
	ErrSessionSetup = errors.New("session setup failed")

	// ErrShareAttach indicates the session could not attach to the
	// named share.
	ErrShareAttach = errors.New("share attach failed")

	// ErrACLNotSupported indicates an access-control operation on a
	// path for which ACLs cannot be translated.
	ErrACLNotSupported = errors.New("access control lists are not supported")

	// ErrNotDirectory indicates the path is not a directory.
	ErrNotDirectory = errors.New("not a directory")

	// ErrIsDirectory indicates the path is a directory.
	ErrIsDirectory = errors.New("is a directory")
)

// PathError records an error and the operation and path that caused it.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// wrapPathError wraps an error with operation and path information.
func wrapPathError(op, path string, err error) error {
	if err == nil {
		return nil
	}

	// Don't double-wrap an error already carrying the same path.
	var pe *PathError
	if errors.As(err, &pe) && pe.Path == path {
		return err
	}

	return &PathError{
		Op:   op,
		Path: path,
		Err:  err,
	}
}

// StatusError is a fatal remote status converted to an error. It
// unwraps to the caller-meaningful class error (fs.ErrNotExist,
// fs.ErrPermission, ...) where one applies.
type StatusError struct {
	Status NTStatus
	Err    error
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v (%s)", e.Err, e.Status)
	}
	return e.Status.String()
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// statusErr converts a remote status to an error. Success converts to
// nil; everything else carries the status plus its error class.
func statusErr(s NTStatus) error {
	if s.IsSuccess() {
		return nil
	}

	var class error
	switch s {
	case STATUS_NO_SUCH_FILE, STATUS_OBJECT_NAME_NOT_FOUND,
		STATUS_OBJECT_PATH_NOT_FOUND, STATUS_BAD_NETWORK_NAME,
		STATUS_NETWORK_NAME_DELETED, STATUS_NOT_FOUND:
		class = fs.ErrNotExist
	case STATUS_ACCESS_DENIED, STATUS_LOGON_FAILURE,
		STATUS_SHARING_VIOLATION, STATUS_DELETE_PENDING:
		class = fs.ErrPermission
	case STATUS_OBJECT_NAME_COLLISION:
		class = fs.ErrExist
	case STATUS_OBJECT_NAME_INVALID, STATUS_INVALID_PARAMETER:
		class = fs.ErrInvalid
	case STATUS_FILE_CLOSED:
		class = fs.ErrClosed
	case STATUS_FILE_IS_A_DIRECTORY:
		class = ErrIsDirectory
	case STATUS_NOT_A_DIRECTORY:
		class = ErrNotDirectory
	case STATUS_NOT_SUPPORTED:
		class = errors.ErrUnsupported
	}

	return &StatusError{Status: s, Err: class}
}
