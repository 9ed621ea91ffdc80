package sharefs

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/hirochachacha/go-smb2"
)

// smbStore implements RemoteStore over a mounted go-smb2 share. The
// protocol engine is consumed opaquely; this wrapper only translates
// between the handle/status contract and go-smb2's file-style API.
type smbStore struct {
	share *smb2.Share
}

func newSMBStore(share *smb2.Share) *smbStore {
	return &smbStore{share: share}
}

// smbHandle is the RemoteHandle produced by smbStore.
type smbHandle struct {
	file          *smb2.File
	path          string
	dir           bool
	deleteOnClose bool
	closed        bool
}

func (s *smbStore) CreateFile(name string, access AccessMask, share ShareMode, disp CreateDisposition, opts CreateOptions) (RemoteHandle, NTStatus) {
	flag, st := openFlags(access, disp, opts)
	if !st.IsSuccess() {
		return nil, st
	}

	f, err := s.share.OpenFile(name, flag, 0666)
	if err != nil {
		return nil, statusFromError(err)
	}

	return &smbHandle{
		file:          f,
		path:          name,
		dir:           opts&FILE_DIRECTORY_FILE != 0,
		deleteOnClose: opts&FILE_DELETE_ON_CLOSE != 0,
	}, STATUS_SUCCESS
}

func (s *smbStore) CloseFile(h RemoteHandle) NTStatus {
	hh, st := s.handle(h)
	if !st.IsSuccess() {
		return st
	}
	if hh.closed {
		return STATUS_SUCCESS
	}
	hh.closed = true

	err := hh.file.Close()
	if hh.deleteOnClose {
		// The engine exposes no delete-on-close bit on its open call;
		// honor the contract by removing the object after release.
		if rerr := s.share.Remove(hh.path); err == nil {
			err = rerr
		}
	}
	if err != nil {
		return statusFromError(err)
	}
	return STATUS_SUCCESS
}

func (s *smbStore) ReadFile(h RemoteHandle, p []byte, off int64) (int, NTStatus) {
	hh, st := s.handle(h)
	if !st.IsSuccess() {
		return 0, st
	}

	n, err := hh.file.ReadAt(p, off)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return n, STATUS_END_OF_FILE
		}
		return n, statusFromError(err)
	}
	return n, STATUS_SUCCESS
}

func (s *smbStore) WriteFile(h RemoteHandle, p []byte, off int64) (int, NTStatus) {
	hh, st := s.handle(h)
	if !st.IsSuccess() {
		return 0, st
	}

	n, err := hh.file.WriteAt(p, off)
	if err != nil {
		return n, statusFromError(err)
	}
	return n, STATUS_SUCCESS
}

func (s *smbStore) QueryBasicInformation(h RemoteHandle) (FileBasicInformation, NTStatus) {
	hh, st := s.handle(h)
	if !st.IsSuccess() {
		return FileBasicInformation{}, st
	}

	fi, err := hh.file.Stat()
	if err != nil {
		return FileBasicInformation{}, statusFromError(err)
	}

	info := FileBasicInformation{
		LastWriteTime: fi.ModTime(),
		Attributes:    modeToAttributes(fi.Mode()),
	}
	if st, ok := fi.Sys().(*smb2.FileStat); ok {
		info.CreationTime = st.CreationTime
		info.LastAccessTime = st.LastAccessTime
		info.ChangeTime = st.ChangeTime
		info.Attributes = FileAttributes(st.FileAttributes)
	}
	return info, STATUS_SUCCESS
}

func (s *smbStore) QueryStandardInformation(h RemoteHandle) (FileStandardInformation, NTStatus) {
	hh, st := s.handle(h)
	if !st.IsSuccess() {
		return FileStandardInformation{}, st
	}

	fi, err := hh.file.Stat()
	if err != nil {
		return FileStandardInformation{}, statusFromError(err)
	}

	info := FileStandardInformation{
		EndOfFile:      fi.Size(),
		AllocationSize: fi.Size(),
		Directory:      fi.IsDir(),
	}
	if st, ok := fi.Sys().(*smb2.FileStat); ok {
		info.AllocationSize = st.AllocationSize
	}
	return info, STATUS_SUCCESS
}

func (s *smbStore) SetBasicInformation(h RemoteHandle, info FileBasicInformation) NTStatus {
	hh, st := s.handle(h)
	if !st.IsSuccess() {
		return st
	}

	if !info.LastAccessTime.IsZero() || !info.LastWriteTime.IsZero() {
		atime, mtime := info.LastAccessTime, info.LastWriteTime
		if atime.IsZero() {
			atime = mtime
		}
		if mtime.IsZero() {
			mtime = atime
		}
		if err := s.share.Chtimes(hh.path, atime, mtime); err != nil {
			return statusFromError(err)
		}
	}

	if info.Attributes != 0 {
		// Only the read-only bit round-trips through the engine's
		// mode-based API.
		mode := attributesToMode(info.Attributes)
		if err := s.share.Chmod(hh.path, mode.Perm()); err != nil {
			return statusFromError(err)
		}
	}
	return STATUS_SUCCESS
}

func (s *smbStore) QueryDirectory(h RemoteHandle, pattern string) ([]DirectoryEntry, NTStatus) {
	hh, st := s.handle(h)
	if !st.IsSuccess() {
		return nil, st
	}
	if !hh.dir {
		return nil, STATUS_INVALID_PARAMETER
	}

	fis, err := hh.file.Readdir(-1)
	if err != nil {
		return nil, statusFromError(err)
	}

	var entries []DirectoryEntry
	for _, fi := range fis {
		name := fi.Name()
		if name == "." || name == ".." || !matchPattern(pattern, name) {
			continue
		}
		e := DirectoryEntry{
			Name:          name,
			Size:          fi.Size(),
			Attributes:    modeToAttributes(fi.Mode()),
			LastWriteTime: fi.ModTime(),
		}
		if st, ok := fi.Sys().(*smb2.FileStat); ok {
			e.Attributes = FileAttributes(st.FileAttributes)
			e.CreationTime = st.CreationTime
			e.LastAccessTime = st.LastAccessTime
		}
		entries = append(entries, e)
	}
	return entries, STATUS_SUCCESS
}

func (s *smbStore) handle(h RemoteHandle) (*smbHandle, NTStatus) {
	hh, ok := h.(*smbHandle)
	if !ok || hh == nil {
		return nil, STATUS_INVALID_PARAMETER
	}
	if hh.closed {
		return nil, STATUS_FILE_CLOSED
	}
	return hh, STATUS_SUCCESS
}

// openFlags translates the create contract to the engine's flag-based
// open call. Hint options (sequential, random, write-through) have no
// flag equivalent there and are dropped.
func openFlags(access AccessMask, disp CreateDisposition, opts CreateOptions) (int, NTStatus) {
	var flag int
	switch {
	case opts&FILE_DIRECTORY_FILE != 0:
		flag = os.O_RDONLY
	case access&GENERIC_ALL != 0:
		flag = os.O_RDWR
	case access&GENERIC_READ != 0 && access&GENERIC_WRITE != 0:
		flag = os.O_RDWR
	case access&GENERIC_WRITE != 0:
		flag = os.O_WRONLY
	default:
		flag = os.O_RDONLY
	}

	switch disp {
	case FILE_OPEN:
	case FILE_CREATE:
		flag |= os.O_CREATE | os.O_EXCL
	case FILE_OPEN_IF:
		flag |= os.O_CREATE
	case FILE_OVERWRITE:
		flag |= os.O_TRUNC
	case FILE_SUPERSEDE, FILE_OVERWRITE_IF:
		flag |= os.O_CREATE | os.O_TRUNC
	default:
		return 0, STATUS_INVALID_PARAMETER
	}
	return flag, STATUS_SUCCESS
}

// matchPattern matches a directory entry name against a query pattern,
// case-insensitively. "*" matches everything.
func matchPattern(pattern, name string) bool {
	if pattern == "" || pattern == "*" {
		return true
	}
	ok, err := path.Match(strings.ToLower(pattern), strings.ToLower(name))
	return err == nil && ok
}

// statusFromError maps engine errors onto protocol statuses.
func statusFromError(err error) NTStatus {
	switch {
	case err == nil:
		return STATUS_SUCCESS
	case errors.Is(err, fs.ErrNotExist):
		return STATUS_OBJECT_NAME_NOT_FOUND
	case errors.Is(err, fs.ErrExist):
		return STATUS_OBJECT_NAME_COLLISION
	case errors.Is(err, fs.ErrPermission):
		return STATUS_ACCESS_DENIED
	case errors.Is(err, fs.ErrClosed):
		return STATUS_FILE_CLOSED
	case errors.Is(err, fs.ErrInvalid):
		return STATUS_INVALID_PARAMETER
	default:
		return STATUS_UNSUCCESSFUL
	}
}

var _ RemoteStore = (*smbStore)(nil)
