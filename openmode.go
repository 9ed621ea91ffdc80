package sharefs

import (
	"fmt"
	"os"
)

// OpenMode selects how an object is created or opened, mirroring the
// modes of conventional local file APIs.
type OpenMode int

const (
	// ModeOpen opens an existing object and fails if it is absent.
	ModeOpen OpenMode = iota

	// ModeCreate creates the object, replacing any existing content.
	ModeCreate

	// ModeCreateNew creates the object and fails if it already exists.
	ModeCreateNew

	// ModeOpenOrCreate opens the object if present, else creates it.
	ModeOpenOrCreate

	// ModeAppend opens an existing object positioned at its end.
	ModeAppend
)

func (m OpenMode) String() string {
	switch m {
	case ModeOpen:
		return "Open"
	case ModeCreate:
		return "Create"
	case ModeCreateNew:
		return "CreateNew"
	case ModeOpenOrCreate:
		return "OpenOrCreate"
	case ModeAppend:
		return "Append"
	default:
		return fmt.Sprintf("OpenMode(%d)", int(m))
	}
}

// disposition maps an open mode to the remote create disposition.
func (m OpenMode) disposition() (CreateDisposition, error) {
	switch m {
	case ModeCreate:
		return FILE_OVERWRITE_IF, nil
	case ModeCreateNew:
		return FILE_CREATE, nil
	case ModeOpen, ModeAppend:
		return FILE_OPEN, nil
	case ModeOpenOrCreate:
		return FILE_OPEN_IF, nil
	default:
		return 0, fmt.Errorf("unknown open mode %d", int(m))
	}
}

// Access selects the requested access to an object.
type Access int

const (
	ReadAccess Access = iota
	WriteAccess
	ReadWriteAccess
)

func (a Access) String() string {
	switch a {
	case ReadAccess:
		return "Read"
	case WriteAccess:
		return "Write"
	case ReadWriteAccess:
		return "ReadWrite"
	default:
		return fmt.Sprintf("Access(%d)", int(a))
	}
}

// masks maps the requested access to the remote access mask and the
// share access granted to other openers while the handle is held.
func (a Access) masks() (AccessMask, ShareMode) {
	switch a {
	case WriteAccess:
		return GENERIC_WRITE, FILE_SHARE_WRITE
	case ReadWriteAccess:
		return GENERIC_ALL, FILE_SHARE_WRITE
	default:
		return GENERIC_READ, FILE_SHARE_READ
	}
}

// FileOption is a per-open hint or behavior request.
type FileOption int

const (
	NoOption FileOption = iota

	// DeleteOnClose removes the object when its handle is closed.
	DeleteOnClose

	// RandomAccess hints that access will be mostly random.
	RandomAccess

	// SequentialScan hints that access will be front to back.
	SequentialScan

	// WriteThrough requests that writes bypass remote caches.
	WriteThrough
)

// createOptions maps a file option to remote create options. Options
// with no remote analogue fall back to a plain non-directory open.
func (o FileOption) createOptions() CreateOptions {
	switch o {
	case DeleteOnClose:
		return FILE_DELETE_ON_CLOSE
	case RandomAccess:
		return FILE_RANDOM_ACCESS | FILE_NON_DIRECTORY_FILE
	case SequentialScan:
		return FILE_SEQUENTIAL_ONLY | FILE_NON_DIRECTORY_FILE
	case WriteThrough:
		return FILE_WRITE_THROUGH | FILE_NON_DIRECTORY_FILE
	default:
		return FILE_NON_DIRECTORY_FILE
	}
}

// localFlag maps mode and access to os.OpenFile flags for the local
// pass-through branch.
func localFlag(m OpenMode, a Access) int {
	var flag int
	switch a {
	case WriteAccess:
		flag = os.O_WRONLY
	case ReadWriteAccess:
		flag = os.O_RDWR
	default:
		flag = os.O_RDONLY
	}

	switch m {
	case ModeCreate:
		flag |= os.O_CREATE | os.O_TRUNC
	case ModeCreateNew:
		flag |= os.O_CREATE | os.O_EXCL
	case ModeOpenOrCreate:
		flag |= os.O_CREATE
	case ModeAppend:
		flag |= os.O_APPEND
	}
	return flag
}
