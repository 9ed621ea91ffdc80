package sharefs

import (
	"context"
	"time"
)

// Access mask bits accepted by RemoteStore.CreateFile, per MS-SMB2.
type AccessMask uint32

const (
	GENERIC_READ          AccessMask = 0x80000000
	GENERIC_WRITE         AccessMask = 0x40000000
	GENERIC_ALL           AccessMask = 0x10000000
	DELETE                AccessMask = 0x00010000
	FILE_READ_ATTRIBUTES  AccessMask = 0x00000080
	FILE_WRITE_ATTRIBUTES AccessMask = 0x00000100
)

// Share access bits: what access other openers of the same object are
// granted while a handle is held.
type ShareMode uint32

const (
	FILE_SHARE_NONE   ShareMode = 0x0
	FILE_SHARE_READ   ShareMode = 0x1
	FILE_SHARE_WRITE  ShareMode = 0x2
	FILE_SHARE_DELETE ShareMode = 0x4
)

// CreateDisposition selects the create/open policy for an object.
type CreateDisposition uint32

const (
	FILE_SUPERSEDE    CreateDisposition = 0 // replace if exists, else create
	FILE_OPEN         CreateDisposition = 1 // open existing, fail if absent
	FILE_CREATE       CreateDisposition = 2 // create, fail if exists
	FILE_OPEN_IF      CreateDisposition = 3 // open existing, else create
	FILE_OVERWRITE    CreateDisposition = 4 // truncate existing, fail if absent
	FILE_OVERWRITE_IF CreateDisposition = 5 // truncate existing, else create
)

// CreateOptions modify how the object is opened.
type CreateOptions uint32

const (
	FILE_DIRECTORY_FILE     CreateOptions = 0x00000001
	FILE_WRITE_THROUGH      CreateOptions = 0x00000002
	FILE_SEQUENTIAL_ONLY    CreateOptions = 0x00000004
	FILE_NON_DIRECTORY_FILE CreateOptions = 0x00000040
	FILE_RANDOM_ACCESS      CreateOptions = 0x00000800
	FILE_DELETE_ON_CLOSE    CreateOptions = 0x00001000
)

// RemoteHandle is an opaque reference to an open object on a remote
// store. A handle is only valid with the store that produced it and
// must be closed before that store's connection is released.
type RemoteHandle interface{}

// FileBasicInformation carries timestamps and attributes of a remote
// object. Times are transmitted in UTC; a zero time leaves the
// corresponding field unchanged on set.
type FileBasicInformation struct {
	CreationTime   time.Time
	LastAccessTime time.Time
	LastWriteTime  time.Time
	ChangeTime     time.Time
	Attributes     FileAttributes
}

// FileStandardInformation carries size and kind of a remote object.
type FileStandardInformation struct {
	AllocationSize int64
	EndOfFile      int64
	DeletePending  bool
	Directory      bool
}

// DirectoryEntry is one result of a directory query.
type DirectoryEntry struct {
	Name           string
	Size           int64
	Attributes     FileAttributes
	CreationTime   time.Time
	LastWriteTime  time.Time
	LastAccessTime time.Time
}

// IsDir reports whether the entry is itself a container.
func (e DirectoryEntry) IsDir() bool {
	return e.Attributes.IsDirectory()
}

// RemoteStore is the handle-producing capability obtained by attaching
// a session to a share. Calls are synchronous; each returns a protocol
// status rather than an error so the retry policy can distinguish
// transient from fatal outcomes.
//
// Implementations need not be safe for concurrent use; in this design
// every operation owns its store exclusively via its Connection.
type RemoteStore interface {
	// CreateFile opens or creates the object at the share-relative
	// path and returns a handle to it. The handle is nil unless the
	// status is success.
	CreateFile(path string, access AccessMask, share ShareMode, disp CreateDisposition, opts CreateOptions) (RemoteHandle, NTStatus)

	// CloseFile releases a handle. Closing an already-closed handle is
	// a no-op, never a fatal error.
	CloseFile(h RemoteHandle) NTStatus

	// ReadFile reads up to len(p) bytes at the given offset.
	ReadFile(h RemoteHandle, p []byte, off int64) (int, NTStatus)

	// WriteFile writes p at the given offset, extending the object as
	// needed.
	WriteFile(h RemoteHandle, p []byte, off int64) (int, NTStatus)

	// QueryBasicInformation fetches timestamps and attributes.
	QueryBasicInformation(h RemoteHandle) (FileBasicInformation, NTStatus)

	// QueryStandardInformation fetches size and kind.
	QueryStandardInformation(h RemoteHandle) (FileStandardInformation, NTStatus)

	// SetBasicInformation applies timestamps and attributes. Zero
	// times and a zero attribute word are left unchanged.
	SetBasicInformation(h RemoteHandle, info FileBasicInformation) NTStatus

	// QueryDirectory lists the entries of an open directory handle
	// matching pattern ("*" for all). Pattern matching is
	// case-insensitive.
	QueryDirectory(h RemoteHandle, pattern string) ([]DirectoryEntry, NTStatus)
}

// Session is an authenticated session with a host, before any share is
// attached. Obtained from a Dialer.
type Session interface {
	// Attach binds the session to the named share and returns the
	// store for operating within it.
	Attach(share string) (RemoteStore, error)

	// ListShares enumerates the share names the host exposes.
	ListShares() ([]string, error)

	// Logoff tears the session down.
	Logoff() error
}

// Dialer establishes sessions with remote hosts. The production
// implementation is SMBDialer; tests substitute a MockDialer.
type Dialer interface {
	Dial(ctx context.Context, host string, transport Transport, cred *Credential) (Session, error)
}
