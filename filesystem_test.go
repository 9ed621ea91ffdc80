package sharefs

import (
	"bytes"
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/spf13/afero"
)

func newTestFS(t *testing.T) (*FileSystem, *MockDialer, *MockStore) {
	t.Helper()
	dialer := NewMockDialer()
	store := dialer.AddShare("fileserver", "shared")
	fsys, err := New(&Config{
		Dialer: dialer,
		Local:  afero.NewMemMapFs(),
		Credentials: []CredentialConfig{
			{Path: `\\fileserver\shared`, Username: "jdoe", Password: "secret123"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { fsys.Close() })
	return fsys, dialer, store
}

func TestWriteReadRemote(t *testing.T) {
	fsys, dialer, _ := newTestFS(t)

	data := []byte("quarterly numbers")
	name := `\\fileserver\shared\docs\q3.txt`
	if err := fsys.WriteFile(name, data); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := fsys.ReadFile(name)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("ReadFile = %q, want %q", got, data)
	}

	if n := dialer.OpenSessions(); n != 0 {
		t.Errorf("open sessions after roundtrip = %d, want 0", n)
	}
}

func TestWriteReadRemoteChunked(t *testing.T) {
	dialer := NewMockDialer()
	store := dialer.AddShare("fileserver", "shared")
	fsys, err := New(&Config{
		Dialer:          dialer,
		MaxTransferUnit: 512,
		Credentials: []CredentialConfig{
			{Path: `\\fileserver\shared`, Username: "jdoe"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer fsys.Close()

	data := bytes.Repeat([]byte("0123456789abcdef"), 100) // 1600 bytes, 4 chunks
	name := `\\fileserver\shared\big.bin`
	if err := fsys.WriteFile(name, data); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if n := store.OpCount("write"); n != 4 {
		t.Errorf("write calls = %d, want 4", n)
	}

	got, err := fsys.ReadFile(name)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("roundtrip mismatch: %d bytes, want %d", len(got), len(data))
	}
}

func TestAppendFile(t *testing.T) {
	fsys, _, store := newTestFS(t)
	store.PutFile("log.txt", []byte("one\n"))

	if err := fsys.AppendFile(`\\fileserver\shared\log.txt`, []byte("two\n")); err != nil {
		t.Fatalf("AppendFile: %v", err)
	}

	got, err := fsys.ReadFile(`\\fileserver\shared\log.txt`)
	if err != nil {
		t.Fatal(err)
	}
	if want := "one\ntwo\n"; string(got) != want {
		t.Errorf("content = %q, want %q", got, want)
	}
}

func TestAppendFileMissing(t *testing.T) {
	fsys, _, _ := newTestFS(t)
	err := fsys.AppendFile(`\\fileserver\shared\absent.txt`, []byte("x"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("AppendFile error = %v, want fs.ErrNotExist", err)
	}
}

func TestCreateNewExisting(t *testing.T) {
	fsys, _, store := newTestFS(t)
	store.PutFile("taken.txt", []byte("x"))

	_, err := fsys.OpenFile(`\\fileserver\shared\taken.txt`, ModeCreateNew, WriteAccess, NoOption)
	if !errors.Is(err, fs.ErrExist) {
		t.Errorf("OpenFile(CreateNew) error = %v, want fs.ErrExist", err)
	}
}

func TestOpenWriteKeepsContent(t *testing.T) {
	fsys, _, store := newTestFS(t)
	store.PutFile("keep.txt", []byte("abcdef"))

	f, err := fsys.OpenWrite(`\\fileserver\shared\keep.txt`)
	if err != nil {
		t.Fatalf("OpenWrite: %v", err)
	}
	if _, err := f.Write([]byte("AB")); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	got, err := fsys.ReadFile(`\\fileserver\shared\keep.txt`)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "ABcdef" {
		t.Errorf("content = %q, want ABcdef", got)
	}
}

func TestExists(t *testing.T) {
	fsys, dialer, store := newTestFS(t)
	store.PutFile(`docs\report.txt`, []byte("hello"))
	store.PutDir(`docs\archive`)
	dialer.FailResolution("badhost")

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"remote file", `\\fileserver\shared\docs\report.txt`, true},
		{"remote file case", `\\FILESERVER\shared\DOCS\REPORT.TXT`, true},
		{"remote dir", `\\fileserver\shared\docs\archive`, true},
		{"share root", `\\fileserver\shared`, true},
		{"remote absent", `\\fileserver\shared\docs\absent.txt`, false},
		{"unresolvable host", `\\badhost\shared\file.txt`, false},
		{"no credential", `\\unknownserver\shared\file.txt`, false},
		{"bad share", `\\fileserver\nosuchshare\file.txt`, false},
		{"malformed", `\\fileserver`, false},
		{"local absent", `/tmp/nothing-here`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fsys.Exists(tt.path); got != tt.want {
				t.Errorf("Exists(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}

	if n := dialer.OpenSessions(); n != 0 {
		t.Errorf("open sessions = %d, want 0", n)
	}
}

func TestDirExists(t *testing.T) {
	fsys, _, store := newTestFS(t)
	store.PutFile(`docs\report.txt`, []byte("hello"))

	if !fsys.DirExists(`\\fileserver\shared\docs`) {
		t.Error("DirExists(docs) = false, want true")
	}
	if !fsys.DirExists(`\\fileserver\shared`) {
		t.Error("DirExists(share root) = false, want true")
	}
	if fsys.DirExists(`\\fileserver\shared\docs\report.txt`) {
		t.Error("DirExists(file) = true, want false")
	}
	if fsys.DirExists(`\\fileserver\shared\absent`) {
		t.Error("DirExists(absent) = true, want false")
	}
}

func TestDelete(t *testing.T) {
	fsys, dialer, store := newTestFS(t)
	store.PutFile(`docs\old.txt`, []byte("x"))

	name := `\\fileserver\shared\docs\old.txt`
	if err := fsys.Delete(name); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if fsys.Exists(name) {
		t.Error("file still exists after Delete")
	}
	if n := dialer.OpenSessions(); n != 0 {
		t.Errorf("open sessions = %d, want 0", n)
	}
}

func TestDeleteMissing(t *testing.T) {
	fsys, _, _ := newTestFS(t)
	err := fsys.Delete(`\\fileserver\shared\absent.txt`)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Delete error = %v, want fs.ErrNotExist", err)
	}
}

func TestDeleteRetryBudget(t *testing.T) {
	fsys, _, store := newTestFS(t)
	store.PutFile("busy.txt", []byte("x"))
	store.Script("create", STATUS_PENDING, STATUS_PENDING, STATUS_PENDING)

	err := fsys.Delete(`\\fileserver\shared\busy.txt`)
	if err == nil {
		t.Fatal("Delete succeeded, want pending exhaustion")
	}
	if n := store.OpCount("create"); n != deleteAttempts {
		t.Errorf("create attempts = %d, want %d", n, deleteAttempts)
	}
}

func TestOpenRetryPending(t *testing.T) {
	fsys, _, store := newTestFS(t)
	store.PutFile("slow.txt", []byte("eventually"))
	store.Script("create", STATUS_PENDING, STATUS_PENDING, STATUS_PENDING, STATUS_PENDING)

	got, err := fsys.ReadFile(`\\fileserver\shared\slow.txt`)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "eventually" {
		t.Errorf("content = %q", got)
	}
	if n := store.OpCount("create"); n != openAttempts {
		t.Errorf("create attempts = %d, want %d", n, openAttempts)
	}
}

func TestOpenRetryExhausted(t *testing.T) {
	fsys, dialer, store := newTestFS(t)
	store.PutFile("stuck.txt", []byte("x"))
	store.Script("create",
		STATUS_PENDING, STATUS_PENDING, STATUS_PENDING, STATUS_PENDING, STATUS_PENDING)

	_, err := fsys.ReadFile(`\\fileserver\shared\stuck.txt`)
	if err == nil {
		t.Fatal("ReadFile succeeded, want pending exhaustion")
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Status != STATUS_PENDING {
		t.Errorf("error = %v, want StatusError{STATUS_PENDING}", err)
	}
	if n := dialer.OpenSessions(); n != 0 {
		t.Errorf("open sessions = %d, want 0", n)
	}
}

func TestOpenReopensAfterNetworkNameDeleted(t *testing.T) {
	fsys, dialer, store := newTestFS(t)
	store.PutFile("racy.txt", []byte("survived"))
	store.Script("querystandard", STATUS_NETWORK_NAME_DELETED)

	got, err := fsys.ReadFile(`\\fileserver\shared\racy.txt`)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "survived" {
		t.Errorf("content = %q", got)
	}
	if n := store.OpCount("create"); n != 2 {
		t.Errorf("create calls = %d, want 2 (one per open cycle)", n)
	}
	if n := dialer.OpenSessions(); n != 0 {
		t.Errorf("open sessions = %d, want 0", n)
	}
}

func TestCopy(t *testing.T) {
	fsys, _, store := newTestFS(t)
	store.PutFile("src.txt", []byte("payload"))

	src := `\\fileserver\shared\src.txt`
	dst := `\\fileserver\shared\dst.txt`
	if err := fsys.Copy(src, dst, false); err != nil {
		t.Fatalf("Copy: %v", err)
	}

	got, err := fsys.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "payload" {
		t.Errorf("copied content = %q", got)
	}

	// Destination now exists; a second copy without overwrite fails.
	if err := fsys.Copy(src, dst, false); !errors.Is(err, fs.ErrExist) {
		t.Errorf("Copy without overwrite error = %v, want fs.ErrExist", err)
	}

	// With overwrite the destination is replaced.
	store.PutFile("src.txt", []byte("updated payload"))
	if err := fsys.Copy(src, dst, true); err != nil {
		t.Fatalf("Copy with overwrite: %v", err)
	}
	got, err = fsys.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "updated payload" {
		t.Errorf("overwritten content = %q", got)
	}
}

func TestCopyLocalToRemote(t *testing.T) {
	fsys, _, _ := newTestFS(t)
	if err := afero.WriteFile(fsys.local, "/tmp/in.txt", []byte("crossing over"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := fsys.Copy("/tmp/in.txt", `\\fileserver\shared\in.txt`, false); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	got, err := fsys.ReadFile(`\\fileserver\shared\in.txt`)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "crossing over" {
		t.Errorf("content = %q", got)
	}
}

func TestStat(t *testing.T) {
	fsys, _, store := newTestFS(t)
	store.PutFile(`docs\report.txt`, []byte("12345"))

	fi, err := fsys.Stat(`\\fileserver\shared\docs\report.txt`)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if fi.Name() != "report.txt" {
		t.Errorf("Name = %q", fi.Name())
	}
	if fi.Size() != 5 {
		t.Errorf("Size = %d, want 5", fi.Size())
	}
	if fi.IsDir() {
		t.Error("IsDir = true for a file")
	}

	di, err := fsys.Stat(`\\fileserver\shared\docs`)
	if err != nil {
		t.Fatalf("Stat dir: %v", err)
	}
	if !di.IsDir() {
		t.Error("IsDir = false for a directory")
	}
}

func TestStatMissing(t *testing.T) {
	fsys, _, _ := newTestFS(t)
	_, err := fsys.Stat(`\\fileserver\shared\absent.txt`)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Stat error = %v, want fs.ErrNotExist", err)
	}
}

func TestChtimes(t *testing.T) {
	fsys, _, store := newTestFS(t)
	store.PutFile("dated.txt", []byte("x"))

	mtime := time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)
	atime := time.Date(2021, 6, 2, 12, 0, 0, 0, time.UTC)
	if err := fsys.Chtimes(`\\fileserver\shared\dated.txt`, atime, mtime); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	times, err := fsys.GetTimes(`\\fileserver\shared\dated.txt`)
	if err != nil {
		t.Fatal(err)
	}
	if !times.LastWrite.Equal(mtime) {
		t.Errorf("LastWrite = %v, want %v", times.LastWrite, mtime)
	}
	if !times.LastAccess.Equal(atime) {
		t.Errorf("LastAccess = %v, want %v", times.LastAccess, atime)
	}
}

func TestAttributes(t *testing.T) {
	fsys, _, store := newTestFS(t)
	store.PutFile("locked.txt", []byte("x"))

	name := `\\fileserver\shared\locked.txt`
	if err := fsys.SetAttributes(name, FILE_ATTRIBUTE_READONLY); err != nil {
		t.Fatalf("SetAttributes: %v", err)
	}
	attrs, err := fsys.GetAttributes(name)
	if err != nil {
		t.Fatal(err)
	}
	if !attrs.IsReadOnly() {
		t.Errorf("attributes = %v, want read-only", attrs)
	}
}

func TestAccessControlNotSupported(t *testing.T) {
	fsys, _, _ := newTestFS(t)

	if err := fsys.GetAccessControl(`\\fileserver\shared\any.txt`); !errors.Is(err, ErrACLNotSupported) {
		t.Errorf("GetAccessControl error = %v, want ErrACLNotSupported", err)
	}
	if err := fsys.SetAccessControl("/local/any.txt"); !errors.Is(err, ErrACLNotSupported) {
		t.Errorf("SetAccessControl error = %v, want ErrACLNotSupported", err)
	}
}

func TestReadDir(t *testing.T) {
	fsys, _, store := newTestFS(t)
	store.PutFile(`docs\a.txt`, []byte("a"))
	store.PutFile(`docs\b.log`, []byte("bb"))
	store.PutDir(`docs\sub`)

	entries, err := fsys.ReadDir(`\\fileserver\shared\docs`)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}
	if entries[0].Name() != "a.txt" || entries[0].IsDir() {
		t.Errorf("entries[0] = %s dir=%v", entries[0].Name(), entries[0].IsDir())
	}
	if entries[2].Name() != "sub" || !entries[2].IsDir() {
		t.Errorf("entries[2] = %s dir=%v", entries[2].Name(), entries[2].IsDir())
	}

	fi, err := entries[1].Info()
	if err != nil {
		t.Fatal(err)
	}
	if fi.Size() != 2 {
		t.Errorf("b.log size = %d, want 2", fi.Size())
	}
}

func TestReadDirOfFile(t *testing.T) {
	fsys, _, store := newTestFS(t)
	store.PutFile("plain.txt", []byte("x"))

	_, err := fsys.ReadDir(`\\fileserver\shared\plain.txt`)
	if !errors.Is(err, ErrNotDirectory) {
		t.Errorf("ReadDir error = %v, want ErrNotDirectory", err)
	}
}

func TestListFiles(t *testing.T) {
	fsys, _, store := newTestFS(t)
	store.PutFile(`docs\a.txt`, nil)
	store.PutFile(`docs\b.log`, nil)
	store.PutFile(`docs\sub\c.txt`, nil)

	got, err := fsys.ListFiles(`\\fileserver\shared\docs`, "*.txt", true)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	want := []string{
		`\\fileserver\shared\docs\a.txt`,
		`\\fileserver\shared\docs\sub\c.txt`,
	}
	if len(got) != len(want) {
		t.Fatalf("ListFiles = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ListFiles[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	flat, err := fsys.ListFiles(`\\fileserver\shared\docs`, "", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(flat) != 2 {
		t.Errorf("non-recursive ListFiles = %v, want 2 entries", flat)
	}
}

func TestListDirectories(t *testing.T) {
	fsys, _, store := newTestFS(t)
	store.PutFile(`docs\a.txt`, nil)
	store.PutDir(`docs\sub`)
	store.PutDir(`docs\sub\deeper`)

	got, err := fsys.ListDirectories(`\\fileserver\shared\docs`, "*", true)
	if err != nil {
		t.Fatalf("ListDirectories: %v", err)
	}
	want := []string{
		`\\fileserver\shared\docs\sub`,
		`\\fileserver\shared\docs\sub\deeper`,
	}
	if len(got) != len(want) {
		t.Fatalf("ListDirectories = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ListDirectories[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestListLocal(t *testing.T) {
	fsys, _, _ := newTestFS(t)
	for _, name := range []string{"/data/x.txt", "/data/y.log", "/data/nest/z.txt"} {
		if err := afero.WriteFile(fsys.local, name, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := fsys.ListFiles("/data", "*.txt", true)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("ListFiles = %v, want 2 entries", got)
	}
}

func TestListShares(t *testing.T) {
	fsys, dialer, _ := newTestFS(t)
	dialer.AddShare("fileserver", "backup")

	shares, err := fsys.ListShares("fileserver")
	if err != nil {
		t.Fatalf("ListShares: %v", err)
	}
	if len(shares) != 2 {
		t.Errorf("shares = %v, want 2", shares)
	}
	if n := dialer.OpenSessions(); n != 0 {
		t.Errorf("open sessions = %d, want 0", n)
	}

	if _, err := fsys.ListShares("unknownserver"); !errors.Is(err, ErrNoCredential) {
		t.Errorf("ListShares(unknown) error = %v, want ErrNoCredential", err)
	}
}

func TestNoCredential(t *testing.T) {
	fsys, _, _ := newTestFS(t)
	_, err := fsys.Open(`\\unknownserver\shared\file.txt`)
	if !errors.Is(err, ErrNoCredential) {
		t.Errorf("Open error = %v, want ErrNoCredential", err)
	}
}

func TestLocalPassThrough(t *testing.T) {
	fsys, dialer, _ := newTestFS(t)

	name := "/work/notes.txt"
	if err := fsys.WriteFile(name, []byte("local bytes")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := fsys.ReadFile(name)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "local bytes" {
		t.Errorf("content = %q", got)
	}
	if !fsys.Exists(name) {
		t.Error("Exists = false after local write")
	}
	if err := fsys.Delete(name); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if fsys.Exists(name) {
		t.Error("Exists = true after local delete")
	}

	// Local work never dials.
	if dialer.Dials != 0 {
		t.Errorf("dials = %d, want 0", dialer.Dials)
	}
}

func TestClosedFileSystemRejectsRemote(t *testing.T) {
	fsys, _, store := newTestFS(t)
	store.PutFile("late.txt", []byte("x"))
	fsys.Close()

	_, err := fsys.ReadFile(`\\fileserver\shared\late.txt`)
	if err == nil {
		t.Error("ReadFile after Close succeeded")
	}
}

func TestAsync(t *testing.T) {
	fsys, _, store := newTestFS(t)
	store.PutFile("src.txt", []byte("async payload"))

	res := <-fsys.ReadFileAsync(`\\fileserver\shared\src.txt`)
	if res.Err != nil {
		t.Fatalf("ReadFileAsync: %v", res.Err)
	}
	if string(res.Data) != "async payload" {
		t.Errorf("data = %q", res.Data)
	}

	if err := <-fsys.WriteFileAsync(`\\fileserver\shared\out.txt`, []byte("written")); err != nil {
		t.Fatalf("WriteFileAsync: %v", err)
	}

	if err := <-fsys.CopyAsync(`\\fileserver\shared\src.txt`, `\\fileserver\shared\copy.txt`, false); err != nil {
		t.Fatalf("CopyAsync: %v", err)
	}
	if !fsys.Exists(`\\fileserver\shared\copy.txt`) {
		t.Error("copy destination missing")
	}
}
