package sharefs

import (
	"errors"
	"io"
	"io/fs"
	"testing"
)

func openStream(t *testing.T, fsys *FileSystem, name string, mode OpenMode, access Access) *RemoteStream {
	t.Helper()
	f, err := fsys.OpenFile(name, mode, access, NoOption)
	if err != nil {
		t.Fatalf("OpenFile(%q): %v", name, err)
	}
	rs, ok := f.(*RemoteStream)
	if !ok {
		t.Fatalf("OpenFile(%q) = %T, want *RemoteStream", name, f)
	}
	return rs
}

func TestStreamRead(t *testing.T) {
	fsys, _, store := newTestFS(t)
	store.PutFile("data.bin", []byte("abcdef"))

	rs := openStream(t, fsys, `\\fileserver\shared\data.bin`, ModeOpen, ReadAccess)
	defer rs.Close()

	if rs.Size() != 6 {
		t.Errorf("Size = %d, want 6", rs.Size())
	}

	got, err := io.ReadAll(rs)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "abcdef" {
		t.Errorf("content = %q", got)
	}

	// Past the window.
	if n, err := rs.Read(make([]byte, 4)); n != 0 || err != io.EOF {
		t.Errorf("Read past end = (%d, %v), want (0, io.EOF)", n, err)
	}
}

func TestStreamSeek(t *testing.T) {
	fsys, _, store := newTestFS(t)
	store.PutFile("data.bin", []byte("abcdef"))

	rs := openStream(t, fsys, `\\fileserver\shared\data.bin`, ModeOpen, ReadAccess)
	defer rs.Close()

	if pos, err := rs.Seek(2, io.SeekStart); err != nil || pos != 2 {
		t.Fatalf("Seek(2, Start) = (%d, %v)", pos, err)
	}
	buf := make([]byte, 2)
	if _, err := io.ReadFull(rs, buf); err != nil {
		t.Fatal(err)
	}
	if string(buf) != "cd" {
		t.Errorf("read after seek = %q, want cd", buf)
	}

	if pos, err := rs.Seek(-2, io.SeekEnd); err != nil || pos != 4 {
		t.Fatalf("Seek(-2, End) = (%d, %v)", pos, err)
	}
	if _, err := io.ReadFull(rs, buf); err != nil {
		t.Fatal(err)
	}
	if string(buf) != "ef" {
		t.Errorf("read after seek = %q, want ef", buf)
	}

	if _, err := rs.Seek(-1, io.SeekStart); !errors.Is(err, fs.ErrInvalid) {
		t.Errorf("negative seek error = %v, want fs.ErrInvalid", err)
	}
	if _, err := rs.Seek(0, 99); !errors.Is(err, fs.ErrInvalid) {
		t.Errorf("bad whence error = %v, want fs.ErrInvalid", err)
	}
}

func TestStreamWriteExtendsWindow(t *testing.T) {
	fsys, _, store := newTestFS(t)
	store.PutFile("data.bin", []byte("abc"))

	rs := openStream(t, fsys, `\\fileserver\shared\data.bin`, ModeOpen, ReadWriteAccess)
	defer rs.Close()

	if _, err := rs.Seek(0, io.SeekEnd); err != nil {
		t.Fatal(err)
	}
	if _, err := rs.Write([]byte("def")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if rs.Size() != 6 {
		t.Errorf("Size after write = %d, want 6", rs.Size())
	}

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	got, err := io.ReadAll(rs)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "abcdef" {
		t.Errorf("content = %q", got)
	}
}

func TestStreamAppendPosition(t *testing.T) {
	fsys, _, store := newTestFS(t)
	store.PutFile("log.txt", []byte("head"))

	rs := openStream(t, fsys, `\\fileserver\shared\log.txt`, ModeAppend, WriteAccess)
	defer rs.Close()

	if pos, err := rs.Seek(0, io.SeekCurrent); err != nil || pos != 4 {
		t.Errorf("position after append open = (%d, %v), want 4", pos, err)
	}
}

func TestStreamCloseIdempotent(t *testing.T) {
	fsys, dialer, store := newTestFS(t)
	store.PutFile("data.bin", []byte("x"))

	rs := openStream(t, fsys, `\\fileserver\shared\data.bin`, ModeOpen, ReadAccess)

	if err := rs.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := rs.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	if n := store.OpCount("close"); n != 1 {
		t.Errorf("close calls = %d, want 1", n)
	}
	if n := dialer.OpenSessions(); n != 0 {
		t.Errorf("open sessions = %d, want 0", n)
	}

	if _, err := rs.Read(make([]byte, 1)); !errors.Is(err, fs.ErrClosed) {
		t.Errorf("Read after Close error = %v, want fs.ErrClosed", err)
	}
	if _, err := rs.Write([]byte("x")); !errors.Is(err, fs.ErrClosed) {
		t.Errorf("Write after Close error = %v, want fs.ErrClosed", err)
	}
	if _, err := rs.Seek(0, io.SeekStart); !errors.Is(err, fs.ErrClosed) {
		t.Errorf("Seek after Close error = %v, want fs.ErrClosed", err)
	}
}

func TestStreamName(t *testing.T) {
	fsys, _, store := newTestFS(t)
	store.PutFile("named.txt", []byte("x"))

	name := `\\fileserver\shared\named.txt`
	rs := openStream(t, fsys, name, ModeOpen, ReadAccess)
	defer rs.Close()

	if rs.Name() != name {
		t.Errorf("Name = %q, want %q", rs.Name(), name)
	}
}
