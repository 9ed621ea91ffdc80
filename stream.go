package sharefs

import (
	"io"
	"io/fs"
	"sync"
)

// RemoteStream adapts an open remote handle plus its owning connection
// into a seekable byte stream. Closing the stream releases the handle
// and then the connection, exactly once, in that order.
//
// A RemoteStream carries mutable position state and is not safe for
// concurrent use.
type RemoteStream struct {
	conn   *Connection
	handle RemoteHandle
	name   string

	// pos is the logical position of the next read or write.
	pos int64

	// size is the object length learned at open time, extended by
	// writes. Reads never cross this window.
	size int64

	closed   bool
	once     sync.Once
	closeErr error
}

func newRemoteStream(conn *Connection, handle RemoteHandle, name string, size int64) *RemoteStream {
	return &RemoteStream{
		conn:   conn,
		handle: handle,
		name:   name,
		size:   size,
	}
}

// Name returns the path the stream was opened with.
func (rs *RemoteStream) Name() string {
	return rs.name
}

// Size returns the current logical length of the object.
func (rs *RemoteStream) Size() int64 {
	return rs.size
}

// Read reads up to len(p) bytes at the current position. Reads are
// bounded by the size window known at open time plus any bytes written
// through this stream; the window end reads as io.EOF.
func (rs *RemoteStream) Read(p []byte) (int, error) {
	if rs.closed {
		return 0, wrapPathError("read", rs.name, fs.ErrClosed)
	}
	if rs.pos >= rs.size {
		return 0, io.EOF
	}

	if remaining := rs.size - rs.pos; int64(len(p)) > remaining {
		p = p[:remaining]
	}

	n, st := rs.conn.Store().ReadFile(rs.handle, p, rs.pos)
	rs.pos += int64(n)
	if st == STATUS_END_OF_FILE {
		if n == 0 {
			return 0, io.EOF
		}
		return n, nil
	}
	if !st.IsSuccess() {
		return n, wrapPathError("read", rs.name, statusErr(st))
	}
	return n, nil
}

// Write writes p at the current position, extending the logical length
// when the write runs past it.
func (rs *RemoteStream) Write(p []byte) (int, error) {
	if rs.closed {
		return 0, wrapPathError("write", rs.name, fs.ErrClosed)
	}

	n, st := rs.conn.Store().WriteFile(rs.handle, p, rs.pos)
	rs.pos += int64(n)
	if rs.pos > rs.size {
		rs.size = rs.pos
	}
	if !st.IsSuccess() {
		return n, wrapPathError("write", rs.name, statusErr(st))
	}
	if n < len(p) {
		return n, wrapPathError("write", rs.name, io.ErrShortWrite)
	}
	return n, nil
}

// Seek sets the position for the next Read or Write.
func (rs *RemoteStream) Seek(offset int64, whence int) (int64, error) {
	if rs.closed {
		return 0, wrapPathError("seek", rs.name, fs.ErrClosed)
	}

	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = rs.pos + offset
	case io.SeekEnd:
		abs = rs.size + offset
	default:
		return 0, wrapPathError("seek", rs.name, fs.ErrInvalid)
	}
	if abs < 0 {
		return 0, wrapPathError("seek", rs.name, fs.ErrInvalid)
	}

	rs.pos = abs
	return abs, nil
}

// Close releases the handle and then the owning connection. Safe to
// call more than once; later calls return the first result.
func (rs *RemoteStream) Close() error {
	rs.once.Do(func() {
		rs.closed = true
		st := rs.conn.Store().CloseFile(rs.handle)
		err := statusErr(st)
		if cerr := rs.conn.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			rs.closeErr = wrapPathError("close", rs.name, err)
		}
	})
	return rs.closeErr
}

var _ io.ReadWriteSeeker = (*RemoteStream)(nil)
var _ io.Closer = (*RemoteStream)(nil)
