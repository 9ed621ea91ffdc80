package sharefs

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// File is an open file, local or remote. Local files are the host
// filesystem's own; remote files are RemoteStreams.
type File interface {
	io.Reader
	io.Writer
	io.Seeker
	io.Closer
	Name() string
}

// FileSystem dispatches file and directory operations to the local
// filesystem or to remote shares based on the path alone.
type FileSystem struct {
	config *Config
	creds  CredentialStore
	dialer Dialer
	local  afero.Fs
	log    *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a FileSystem. A nil config is equivalent to the zero
// Config.
func New(config *Config) (*FileSystem, error) {
	if config == nil {
		config = &Config{}
	}
	config.setDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	creds, err := config.credentialStore()
	if err != nil {
		return nil, err
	}

	dialer := config.Dialer
	if dialer == nil {
		dialer = &SMBDialer{Timeout: config.DialTimeout}
	}
	local := config.Local
	if local == nil {
		local = afero.NewOsFs()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &FileSystem{
		config: config,
		creds:  creds,
		dialer: dialer,
		local:  local,
		log:    logger,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Close releases the filesystem. In-flight operations are not
// interrupted mid-call; new remote calls stop before they begin.
func (fsys *FileSystem) Close() error {
	fsys.cancel()
	return nil
}

// connect resolves the credential for sp, establishes a session with
// its host, and attaches to its share. The caller owns the returned
// Connection and must close it on every exit path.
func (fsys *FileSystem) connect(sp *SharePath) (*Connection, error) {
	cred, err := fsys.creds.Resolve(sp)
	if err != nil {
		return nil, err
	}

	sess, err := fsys.dialer.Dial(fsys.ctx, sp.Host, fsys.config.Transport, cred)
	if err != nil {
		return nil, err
	}

	store, err := sess.Attach(sp.Share)
	if err != nil {
		sess.Logoff()
		return nil, err
	}

	fsys.log.Debug("connected", "host", sp.Host, "share", sp.Share)
	return &Connection{
		host:  sp.Host,
		share: sp.Share,
		sess:  sess,
		store: store,
		log:   fsys.log,
	}, nil
}

// withRemoteHandle is the metadata accessor: it connects, opens a
// handle on sp with the pending-retry budget, runs fn, and releases the
// handle and connection on every exit path. When a concurrent deleter
// removes the share's network name between the open and fn, the whole
// cycle is reopened, up to openInfoIterations times.
func (fsys *FileSystem) withRemoteHandle(op string, sp *SharePath, access AccessMask, share ShareMode, opts CreateOptions, fn func(store RemoteStore, h RemoteHandle) NTStatus) error {
	last := STATUS_NETWORK_NAME_DELETED
	for iter := 0; iter < openInfoIterations; iter++ {
		conn, err := fsys.connect(sp)
		if err != nil {
			return wrapPathError(op, sp.Raw(), err)
		}

		h, st := retryPending(fsys.ctx, openAttempts, func() (RemoteHandle, NTStatus) {
			return conn.Store().CreateFile(sp.Path, access, share, FILE_OPEN, opts)
		})
		if !st.IsSuccess() {
			conn.Close()
			return wrapPathError(op, sp.Raw(), statusErr(st))
		}

		st = fn(conn.Store(), h)
		conn.Store().CloseFile(h)
		conn.Close()

		if st == STATUS_NETWORK_NAME_DELETED {
			last = st
			fsys.log.Debug("network name deleted mid-sequence, reopening",
				"op", op, "path", sp.Raw(), "iteration", iter+1)
			continue
		}
		if !st.IsSuccess() {
			return wrapPathError(op, sp.Raw(), statusErr(st))
		}
		return nil
	}
	return wrapPathError(op, sp.Raw(), statusErr(last))
}

// OpenFile opens name with the given mode, access, and option. This is
// the general funnel every read, write, append, and copy goes through.
func (fsys *FileSystem) OpenFile(name string, mode OpenMode, access Access, opt FileOption) (File, error) {
	sp, err := Classify(name)
	if err != nil {
		return nil, err
	}
	if sp == nil {
		return fsys.local.OpenFile(name, localFlag(mode, access), 0666)
	}
	return fsys.openRemote(name, sp, mode, access, opt)
}

// openRemote resolves a credential, connects, maps the open request to
// the remote create contract, opens the handle with the pending-retry
// budget, learns the object size, and builds the stream. The size fetch
// tolerates a concurrently deleted network name by reopening the whole
// sequence, up to openInfoIterations times.
func (fsys *FileSystem) openRemote(name string, sp *SharePath, mode OpenMode, access Access, opt FileOption) (*RemoteStream, error) {
	disp, err := mode.disposition()
	if err != nil {
		return nil, wrapPathError("open", name, err)
	}
	mask, shareMode := access.masks()
	opts := opt.createOptions()

	last := STATUS_NETWORK_NAME_DELETED
	for iter := 0; iter < openInfoIterations; iter++ {
		conn, err := fsys.connect(sp)
		if err != nil {
			return nil, wrapPathError("open", name, err)
		}

		handle, st := retryPending(fsys.ctx, openAttempts, func() (RemoteHandle, NTStatus) {
			return conn.Store().CreateFile(sp.Path, mask, shareMode, disp, opts)
		})
		if !st.IsSuccess() {
			conn.Close()
			if st.Transient() {
				fsys.log.Debug("open retry budget exhausted", "path", name, "attempts", openAttempts)
			}
			return nil, wrapPathError("open", name, statusErr(st))
		}

		info, st := retryPending(fsys.ctx, openAttempts, func() (FileStandardInformation, NTStatus) {
			return conn.Store().QueryStandardInformation(handle)
		})
		if st == STATUS_NETWORK_NAME_DELETED {
			last = st
			conn.Store().CloseFile(handle)
			conn.Close()
			fsys.log.Debug("network name deleted mid-open, reopening",
				"path", name, "iteration", iter+1)
			continue
		}
		if !st.IsSuccess() {
			conn.Store().CloseFile(handle)
			conn.Close()
			return nil, wrapPathError("open", name, statusErr(st))
		}

		stream := newRemoteStream(conn, handle, name, info.EndOfFile)
		if mode == ModeAppend {
			if _, err := stream.Seek(0, io.SeekEnd); err != nil {
				stream.Close()
				return nil, err
			}
		}
		return stream, nil
	}
	return nil, wrapPathError("open", name, statusErr(last))
}

// Open opens name for reading.
func (fsys *FileSystem) Open(name string) (File, error) {
	return fsys.OpenFile(name, ModeOpen, ReadAccess, NoOption)
}

// Create creates name, replacing any existing content.
func (fsys *FileSystem) Create(name string) (File, error) {
	return fsys.OpenFile(name, ModeCreate, ReadWriteAccess, NoOption)
}

// OpenRead opens name read-only.
func (fsys *FileSystem) OpenRead(name string) (File, error) {
	return fsys.OpenFile(name, ModeOpen, ReadAccess, NoOption)
}

// OpenWrite opens name for writing, creating it if absent. Existing
// content is kept.
func (fsys *FileSystem) OpenWrite(name string) (File, error) {
	return fsys.OpenFile(name, ModeOpenOrCreate, WriteAccess, NoOption)
}

// OpenAppend opens an existing name positioned at its end.
func (fsys *FileSystem) OpenAppend(name string) (File, error) {
	return fsys.OpenFile(name, ModeAppend, WriteAccess, NoOption)
}

// Exists reports whether name refers to an existing file or directory.
// It never returns an error: any failure during the check, including an
// unresolvable host or a missing credential, reads as absence.
func (fsys *FileSystem) Exists(name string) bool {
	_, ok := fsys.lookup(name, false)
	return ok
}

// DirExists reports whether name refers to an existing directory,
// under the same no-error policy as Exists.
func (fsys *FileSystem) DirExists(name string) bool {
	e, ok := fsys.lookup(name, true)
	return ok && (e.IsDir() || e.Name == "")
}

// lookup locates name; found objects other than share roots come back
// as their parent's directory entry.
func (fsys *FileSystem) lookup(name string, wantDir bool) (DirectoryEntry, bool) {
	sp, err := Classify(name)
	if err != nil {
		return DirectoryEntry{}, false
	}

	if sp == nil {
		fi, err := fsys.local.Stat(name)
		if err != nil {
			return DirectoryEntry{}, false
		}
		if wantDir && !fi.IsDir() {
			return DirectoryEntry{}, false
		}
		return DirectoryEntry{
			Name:          fi.Name(),
			Size:          fi.Size(),
			Attributes:    modeToAttributes(fi.Mode()),
			LastWriteTime: fi.ModTime(),
		}, true
	}

	conn, err := fsys.connect(sp)
	if err != nil {
		return DirectoryEntry{}, false
	}
	defer conn.Close()

	parent := sp.Parent()
	h, st := conn.Store().CreateFile(parent.Path, GENERIC_READ, FILE_SHARE_READ, FILE_OPEN, FILE_DIRECTORY_FILE)
	if !st.IsSuccess() {
		return DirectoryEntry{}, false
	}
	defer conn.Store().CloseFile(h)

	pattern := sp.Base()
	if pattern == "" {
		pattern = "*"
	}
	entries, st := conn.Store().QueryDirectory(h, pattern)
	if !st.IsSuccess() {
		return DirectoryEntry{}, false
	}

	if sp.IsShareRoot() {
		// The share root itself: opening its directory was the check.
		return DirectoryEntry{Attributes: FILE_ATTRIBUTE_DIRECTORY}, true
	}
	for _, e := range entries {
		if strings.EqualFold(e.Name, sp.Base()) {
			return e, true
		}
	}
	return DirectoryEntry{}, false
}

// Delete removes the object at name. On remote paths the object is
// opened with delete access and a delete-on-close option, then the
// handle is closed immediately, causing the remote side to remove it.
func (fsys *FileSystem) Delete(name string) error {
	sp, err := Classify(name)
	if err != nil {
		return err
	}
	if sp == nil {
		return fsys.local.Remove(name)
	}

	conn, err := fsys.connect(sp)
	if err != nil {
		return wrapPathError("delete", name, err)
	}
	defer conn.Close()

	h, st := retryPending(fsys.ctx, deleteAttempts, func() (RemoteHandle, NTStatus) {
		return conn.Store().CreateFile(sp.Path, DELETE, FILE_SHARE_DELETE, FILE_OPEN, FILE_DELETE_ON_CLOSE)
	})
	if !st.IsSuccess() {
		return wrapPathError("delete", name, statusErr(st))
	}

	if st := conn.Store().CloseFile(h); !st.IsSuccess() {
		return wrapPathError("delete", name, statusErr(st))
	}
	return nil
}

// ReadFile reads the whole of name, in chunks bounded by the
// configured transfer unit.
func (fsys *FileSystem) ReadFile(name string) ([]byte, error) {
	sp, err := Classify(name)
	if err != nil {
		return nil, err
	}
	if sp == nil {
		return afero.ReadFile(fsys.local, name)
	}

	f, err := fsys.OpenFile(name, ModeOpen, ReadAccess, SequentialScan)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []byte
	buf := make([]byte, fsys.config.MaxTransferUnit)
	for {
		n, err := f.Read(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// WriteFile writes data to name, creating or replacing it, in chunks
// bounded by the configured transfer unit.
func (fsys *FileSystem) WriteFile(name string, data []byte) error {
	sp, err := Classify(name)
	if err != nil {
		return err
	}
	if sp == nil {
		return afero.WriteFile(fsys.local, name, data, 0666)
	}
	return fsys.writeThrough(name, ModeCreate, data)
}

// AppendFile appends data to the existing file at name.
func (fsys *FileSystem) AppendFile(name string, data []byte) error {
	sp, err := Classify(name)
	if err != nil {
		return err
	}
	if sp == nil {
		f, err := fsys.local.OpenFile(name, localFlag(ModeAppend, WriteAccess), 0666)
		if err != nil {
			return err
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	return fsys.writeThrough(name, ModeAppend, data)
}

func (fsys *FileSystem) writeThrough(name string, mode OpenMode, data []byte) error {
	f, err := fsys.OpenFile(name, mode, WriteAccess, SequentialScan)
	if err != nil {
		return err
	}

	mtu := fsys.config.MaxTransferUnit
	for len(data) > 0 {
		chunk := data
		if len(chunk) > mtu {
			chunk = chunk[:mtu]
		}
		if _, err := f.Write(chunk); err != nil {
			f.Close()
			return err
		}
		data = data[len(chunk):]
	}
	return f.Close()
}

// Copy streams src to dst in chunks bounded by the configured transfer
// unit. With overwrite set, an existing destination is deleted first;
// without it, an existing destination fails the copy.
func (fsys *FileSystem) Copy(src, dst string, overwrite bool) error {
	if overwrite && fsys.Exists(dst) {
		if err := fsys.Delete(dst); err != nil {
			return err
		}
	}

	in, err := fsys.OpenFile(src, ModeOpen, ReadAccess, SequentialScan)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := fsys.OpenFile(dst, ModeCreateNew, WriteAccess, SequentialScan)
	if err != nil {
		return err
	}

	buf := make([]byte, fsys.config.MaxTransferUnit)
	if _, err := io.CopyBuffer(out, in, buf); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Stat returns file information for name.
func (fsys *FileSystem) Stat(name string) (fs.FileInfo, error) {
	sp, err := Classify(name)
	if err != nil {
		return nil, err
	}
	if sp == nil {
		return fsys.local.Stat(name)
	}

	var basic FileBasicInformation
	var std FileStandardInformation
	err = fsys.withRemoteHandle("stat", sp, GENERIC_READ|FILE_READ_ATTRIBUTES, FILE_SHARE_READ, 0,
		func(store RemoteStore, h RemoteHandle) NTStatus {
			var st NTStatus
			if basic, st = store.QueryBasicInformation(h); !st.IsSuccess() {
				return st
			}
			std, st = retryPending(fsys.ctx, openAttempts, func() (FileStandardInformation, NTStatus) {
				return store.QueryStandardInformation(h)
			})
			return st
		})
	if err != nil {
		return nil, err
	}

	name = sp.Base()
	if name == "" {
		name = sp.Share
	}
	return &remoteFileInfo{
		name:    name,
		size:    std.EndOfFile,
		attrs:   basic.Attributes,
		modTime: basic.LastWriteTime,
	}, nil
}

// GetTimes returns the timestamps of name. On local paths only the
// modification time is portably available.
func (fsys *FileSystem) GetTimes(name string) (FileTimes, error) {
	sp, err := Classify(name)
	if err != nil {
		return FileTimes{}, err
	}
	if sp == nil {
		fi, err := fsys.local.Stat(name)
		if err != nil {
			return FileTimes{}, err
		}
		return FileTimes{LastWrite: fi.ModTime()}, nil
	}

	var basic FileBasicInformation
	err = fsys.withRemoteHandle("gettimes", sp, FILE_READ_ATTRIBUTES|GENERIC_READ, FILE_SHARE_READ, 0,
		func(store RemoteStore, h RemoteHandle) NTStatus {
			var st NTStatus
			basic, st = store.QueryBasicInformation(h)
			return st
		})
	if err != nil {
		return FileTimes{}, err
	}
	return FileTimes{
		Creation:   basic.CreationTime,
		LastAccess: basic.LastAccessTime,
		LastWrite:  basic.LastWriteTime,
	}, nil
}

// Chtimes sets the access and modification times of name. Times are
// converted to UTC before transmission to remote stores.
func (fsys *FileSystem) Chtimes(name string, atime, mtime time.Time) error {
	sp, err := Classify(name)
	if err != nil {
		return err
	}
	if sp == nil {
		return fsys.local.Chtimes(name, atime, mtime)
	}

	return fsys.withRemoteHandle("chtimes", sp, FILE_WRITE_ATTRIBUTES, FILE_SHARE_READ|FILE_SHARE_WRITE, 0,
		func(store RemoteStore, h RemoteHandle) NTStatus {
			return store.SetBasicInformation(h, FileBasicInformation{
				LastAccessTime: atime.UTC(),
				LastWriteTime:  mtime.UTC(),
			})
		})
}

// GetAttributes returns the attribute word of name. Local modes are
// mapped onto attributes best-effort.
func (fsys *FileSystem) GetAttributes(name string) (FileAttributes, error) {
	sp, err := Classify(name)
	if err != nil {
		return 0, err
	}
	if sp == nil {
		fi, err := fsys.local.Stat(name)
		if err != nil {
			return 0, err
		}
		return modeToAttributes(fi.Mode()), nil
	}

	var basic FileBasicInformation
	err = fsys.withRemoteHandle("getattributes", sp, FILE_READ_ATTRIBUTES|GENERIC_READ, FILE_SHARE_READ, 0,
		func(store RemoteStore, h RemoteHandle) NTStatus {
			var st NTStatus
			basic, st = store.QueryBasicInformation(h)
			return st
		})
	if err != nil {
		return 0, err
	}
	return basic.Attributes, nil
}

// SetAttributes applies the attribute word to name.
func (fsys *FileSystem) SetAttributes(name string, attrs FileAttributes) error {
	sp, err := Classify(name)
	if err != nil {
		return err
	}
	if sp == nil {
		return fsys.local.Chmod(name, attributesToMode(attrs).Perm())
	}

	return fsys.withRemoteHandle("setattributes", sp, FILE_WRITE_ATTRIBUTES, FILE_SHARE_READ|FILE_SHARE_WRITE, 0,
		func(store RemoteStore, h RemoteHandle) NTStatus {
			return store.SetBasicInformation(h, FileBasicInformation{Attributes: attrs})
		})
}

// GetAccessControl is unsupported: ACLs are not translated between the
// local and remote worlds.
func (fsys *FileSystem) GetAccessControl(name string) error {
	return wrapPathError("getaccesscontrol", name, ErrACLNotSupported)
}

// SetAccessControl is unsupported, like GetAccessControl.
func (fsys *FileSystem) SetAccessControl(name string) error {
	return wrapPathError("setaccesscontrol", name, ErrACLNotSupported)
}

// ReadDir lists the entries of the directory at name, in the order the
// backing store returns them.
func (fsys *FileSystem) ReadDir(name string) ([]fs.DirEntry, error) {
	sp, err := Classify(name)
	if err != nil {
		return nil, err
	}
	if sp == nil {
		fis, err := afero.ReadDir(fsys.local, name)
		if err != nil {
			return nil, err
		}
		entries := make([]fs.DirEntry, 0, len(fis))
		for _, fi := range fis {
			entries = append(entries, fs.FileInfoToDirEntry(fi))
		}
		return entries, nil
	}

	raw, err := fsys.remoteEntries(sp, "*")
	if err != nil {
		return nil, err
	}
	entries := make([]fs.DirEntry, 0, len(raw))
	for _, e := range raw {
		entries = append(entries, &remoteDirEntry{info: remoteFileInfo{
			name:    e.Name,
			size:    e.Size,
			attrs:   e.Attributes,
			modTime: e.LastWriteTime,
		}})
	}
	return entries, nil
}

// ListFiles returns the paths of files under name matching pattern,
// descending into subdirectories when recursive is set.
func (fsys *FileSystem) ListFiles(name, pattern string, recursive bool) ([]string, error) {
	return fsys.list(name, pattern, recursive, false)
}

// ListDirectories returns the paths of directories under name matching
// pattern, descending when recursive is set.
func (fsys *FileSystem) ListDirectories(name, pattern string, recursive bool) ([]string, error) {
	return fsys.list(name, pattern, recursive, true)
}

func (fsys *FileSystem) list(name, pattern string, recursive, wantDirs bool) ([]string, error) {
	sp, err := Classify(name)
	if err != nil {
		return nil, err
	}
	if pattern == "" {
		pattern = "*"
	}

	var out []string
	if sp == nil {
		err = fsys.listLocal(name, pattern, recursive, wantDirs, &out)
	} else {
		err = fsys.listRemote(sp, pattern, recursive, wantDirs, &out)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (fsys *FileSystem) listLocal(dir, pattern string, recursive, wantDirs bool, out *[]string) error {
	fis, err := afero.ReadDir(fsys.local, dir)
	if err != nil {
		return err
	}
	for _, fi := range fis {
		child := filepath.Join(dir, fi.Name())
		if fi.IsDir() == wantDirs && matchPattern(pattern, fi.Name()) {
			*out = append(*out, child)
		}
		if fi.IsDir() && recursive {
			if err := fsys.listLocal(child, pattern, recursive, wantDirs, out); err != nil {
				return err
			}
		}
	}
	return nil
}

func (fsys *FileSystem) listRemote(sp *SharePath, pattern string, recursive, wantDirs bool, out *[]string) error {
	entries, err := fsys.remoteEntries(sp, "*")
	if err != nil {
		return err
	}
	for _, e := range entries {
		child := sp.Join(e.Name)
		if e.IsDir() == wantDirs && matchPattern(pattern, e.Name) {
			*out = append(*out, child.String())
		}
		if e.IsDir() && recursive {
			if err := fsys.listRemote(child, pattern, recursive, wantDirs, out); err != nil {
				return err
			}
		}
	}
	return nil
}

// remoteEntries queries the directory at sp through the metadata
// accessor.
func (fsys *FileSystem) remoteEntries(sp *SharePath, pattern string) ([]DirectoryEntry, error) {
	var entries []DirectoryEntry
	err := fsys.withRemoteHandle("readdir", sp, GENERIC_READ, FILE_SHARE_READ, FILE_DIRECTORY_FILE,
		func(store RemoteStore, h RemoteHandle) NTStatus {
			var st NTStatus
			entries, st = store.QueryDirectory(h, pattern)
			return st
		})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ListShares enumerates the share names exposed by host, using the
// first credential registered for that host.
func (fsys *FileSystem) ListShares(host string) ([]string, error) {
	var cred *Credential
	for _, c := range fsys.creds.Credentials() {
		if c.Root != nil && strings.EqualFold(c.Root.Host, host) {
			cred = c
			break
		}
	}
	if cred == nil {
		return nil, wrapPathError("listshares", host, ErrNoCredential)
	}

	sess, err := fsys.dialer.Dial(fsys.ctx, host, fsys.config.Transport, cred)
	if err != nil {
		return nil, wrapPathError("listshares", host, err)
	}
	defer sess.Logoff()

	return sess.ListShares()
}

// FileTimes carries the timestamps of an object.
type FileTimes struct {
	Creation   time.Time
	LastAccess time.Time
	LastWrite  time.Time
}

// remoteFileInfo implements fs.FileInfo for remote objects.
type remoteFileInfo struct {
	name    string
	size    int64
	attrs   FileAttributes
	modTime time.Time
}

func (fi *remoteFileInfo) Name() string       { return fi.name }
func (fi *remoteFileInfo) Size() int64        { return fi.size }
func (fi *remoteFileInfo) Mode() fs.FileMode  { return attributesToMode(fi.attrs) }
func (fi *remoteFileInfo) ModTime() time.Time { return fi.modTime }
func (fi *remoteFileInfo) IsDir() bool        { return fi.attrs.IsDirectory() }
func (fi *remoteFileInfo) Sys() any           { return fi.attrs }

// remoteDirEntry implements fs.DirEntry for remote directory listings.
type remoteDirEntry struct {
	info remoteFileInfo
}

func (de *remoteDirEntry) Name() string               { return de.info.name }
func (de *remoteDirEntry) IsDir() bool                { return de.info.IsDir() }
func (de *remoteDirEntry) Type() fs.FileMode          { return de.info.Mode().Type() }
func (de *remoteDirEntry) Info() (fs.FileInfo, error) { return &de.info, nil }
