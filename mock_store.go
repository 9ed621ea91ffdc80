package sharefs

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MockStore is an in-memory RemoteStore for tests. It keeps a flat map
// of backslash-separated paths, enforces the create dispositions, and
// can be scripted to answer the next calls of an operation with fixed
// statuses.
type MockStore struct {
	mu      sync.Mutex
	files   map[string]*mockFile
	scripts map[string][]NTStatus

	// Ops records every store call as "op path", in call order.
	Ops []string
}

type mockFile struct {
	data       []byte
	attrs      FileAttributes
	creation   time.Time
	lastAccess time.Time
	lastWrite  time.Time
}

type mockHandle struct {
	key           string
	file          *mockFile
	dir           bool
	deleteOnClose bool
	closed        bool
}

// NewMockStore returns an empty store. The share root exists
// implicitly.
func NewMockStore() *MockStore {
	return &MockStore{
		files:   make(map[string]*mockFile),
		scripts: make(map[string][]NTStatus),
	}
}

// PutFile seeds a file at path, creating missing parents.
func (m *MockStore) PutFile(path string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := mockKey(path)
	m.putParents(key)
	m.files[key] = &mockFile{
		data:      append([]byte(nil), data...),
		attrs:     FILE_ATTRIBUTE_NORMAL,
		creation:  time.Now(),
		lastWrite: time.Now(),
	}
}

// PutDir seeds a directory at path, creating missing parents.
func (m *MockStore) PutDir(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := mockKey(path)
	m.putParents(key)
	m.files[key] = &mockFile{attrs: FILE_ATTRIBUTE_DIRECTORY}
}

// Has reports whether path currently exists in the store.
func (m *MockStore) Has(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[mockKey(path)]
	return ok
}

// Script queues statuses for the named operation ("create", "read",
// "write", "querystandard", ...). Each call of that operation consumes
// one queued status and, unless it is STATUS_SUCCESS, returns it
// without touching the store.
func (m *MockStore) Script(op string, statuses ...NTStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts[op] = append(m.scripts[op], statuses...)
}

// OpCount returns how many times the named operation ran.
func (m *MockStore) OpCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, rec := range m.Ops {
		if rec == op || strings.HasPrefix(rec, op+" ") {
			n++
		}
	}
	return n
}

func (m *MockStore) record(op, path string) {
	if path == "" {
		m.Ops = append(m.Ops, op)
		return
	}
	m.Ops = append(m.Ops, op+" "+path)
}

// scripted pops the next queued status for op. ok is false when the
// queue is empty or the popped status asks for normal processing.
func (m *MockStore) scripted(op string) (NTStatus, bool) {
	q := m.scripts[op]
	if len(q) == 0 {
		return STATUS_SUCCESS, false
	}
	st := q[0]
	m.scripts[op] = q[1:]
	if st == STATUS_SUCCESS {
		return STATUS_SUCCESS, false
	}
	return st, true
}

func (m *MockStore) CreateFile(name string, access AccessMask, share ShareMode, disp CreateDisposition, opts CreateOptions) (RemoteHandle, NTStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("create", name)
	if st, ok := m.scripted("create"); ok {
		return nil, st
	}

	key := mockKey(name)
	if key != "" {
		parent := mockParent(key)
		if parent != "" {
			p, ok := m.files[parent]
			if !ok {
				return nil, STATUS_OBJECT_PATH_NOT_FOUND
			}
			if !p.attrs.IsDirectory() {
				return nil, STATUS_NOT_A_DIRECTORY
			}
		}
	}

	f, exists := m.files[key]
	isRoot := key == ""
	if isRoot {
		exists = true
		f = &mockFile{attrs: FILE_ATTRIBUTE_DIRECTORY}
	}

	if exists && f.attrs.IsDirectory() && opts&FILE_NON_DIRECTORY_FILE != 0 {
		return nil, STATUS_FILE_IS_A_DIRECTORY
	}
	if opts&FILE_DIRECTORY_FILE != 0 {
		if !exists {
			return nil, STATUS_OBJECT_NAME_NOT_FOUND
		}
		if !f.attrs.IsDirectory() {
			return nil, STATUS_NOT_A_DIRECTORY
		}
	}

	switch disp {
	case FILE_OPEN:
		if !exists {
			return nil, STATUS_OBJECT_NAME_NOT_FOUND
		}
	case FILE_CREATE:
		if exists {
			return nil, STATUS_OBJECT_NAME_COLLISION
		}
		f = m.create(key)
	case FILE_OPEN_IF:
		if !exists {
			f = m.create(key)
		}
	case FILE_OVERWRITE:
		if !exists {
			return nil, STATUS_OBJECT_NAME_NOT_FOUND
		}
		f.data = nil
	case FILE_SUPERSEDE, FILE_OVERWRITE_IF:
		if exists && !isRoot {
			f.data = nil
		} else if !exists {
			f = m.create(key)
		}
	default:
		return nil, STATUS_INVALID_PARAMETER
	}

	return &mockHandle{
		key:           key,
		file:          f,
		dir:           f.attrs.IsDirectory(),
		deleteOnClose: opts&FILE_DELETE_ON_CLOSE != 0,
	}, STATUS_SUCCESS
}

func (m *MockStore) create(key string) *mockFile {
	f := &mockFile{
		attrs:     FILE_ATTRIBUTE_NORMAL,
		creation:  time.Now(),
		lastWrite: time.Now(),
	}
	m.files[key] = f
	return f
}

func (m *MockStore) CloseFile(h RemoteHandle) NTStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	hh, ok := h.(*mockHandle)
	if !ok || hh == nil {
		return STATUS_INVALID_PARAMETER
	}
	m.record("close", hh.key)
	if st, ok := m.scripted("close"); ok {
		return st
	}
	if hh.closed {
		return STATUS_SUCCESS
	}
	hh.closed = true

	if hh.deleteOnClose {
		if hh.dir && m.hasChildren(hh.key) {
			return STATUS_DIRECTORY_NOT_EMPTY
		}
		delete(m.files, hh.key)
	}
	return STATUS_SUCCESS
}

func (m *MockStore) ReadFile(h RemoteHandle, p []byte, off int64) (int, NTStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hh, st := m.handle(h, "read")
	if !st.IsSuccess() {
		return 0, st
	}
	if st, ok := m.scripted("read"); ok {
		return 0, st
	}

	if off >= int64(len(hh.file.data)) {
		return 0, STATUS_END_OF_FILE
	}
	n := copy(p, hh.file.data[off:])
	return n, STATUS_SUCCESS
}

func (m *MockStore) WriteFile(h RemoteHandle, p []byte, off int64) (int, NTStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hh, st := m.handle(h, "write")
	if !st.IsSuccess() {
		return 0, st
	}
	if st, ok := m.scripted("write"); ok {
		return 0, st
	}

	end := off + int64(len(p))
	if end > int64(len(hh.file.data)) {
		grown := make([]byte, end)
		copy(grown, hh.file.data)
		hh.file.data = grown
	}
	copy(hh.file.data[off:], p)
	hh.file.lastWrite = time.Now()
	return len(p), STATUS_SUCCESS
}

func (m *MockStore) QueryBasicInformation(h RemoteHandle) (FileBasicInformation, NTStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hh, st := m.handle(h, "querybasic")
	if !st.IsSuccess() {
		return FileBasicInformation{}, st
	}
	if st, ok := m.scripted("querybasic"); ok {
		return FileBasicInformation{}, st
	}

	return FileBasicInformation{
		CreationTime:   hh.file.creation,
		LastAccessTime: hh.file.lastAccess,
		LastWriteTime:  hh.file.lastWrite,
		Attributes:     hh.file.attrs,
	}, STATUS_SUCCESS
}

func (m *MockStore) QueryStandardInformation(h RemoteHandle) (FileStandardInformation, NTStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hh, st := m.handle(h, "querystandard")
	if !st.IsSuccess() {
		return FileStandardInformation{}, st
	}
	if st, ok := m.scripted("querystandard"); ok {
		return FileStandardInformation{}, st
	}

	return FileStandardInformation{
		AllocationSize: int64(len(hh.file.data)),
		EndOfFile:      int64(len(hh.file.data)),
		Directory:      hh.dir,
	}, STATUS_SUCCESS
}

func (m *MockStore) SetBasicInformation(h RemoteHandle, info FileBasicInformation) NTStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	hh, st := m.handle(h, "setbasic")
	if !st.IsSuccess() {
		return st
	}
	if st, ok := m.scripted("setbasic"); ok {
		return st
	}

	if !info.CreationTime.IsZero() {
		hh.file.creation = info.CreationTime
	}
	if !info.LastAccessTime.IsZero() {
		hh.file.lastAccess = info.LastAccessTime
	}
	if !info.LastWriteTime.IsZero() {
		hh.file.lastWrite = info.LastWriteTime
	}
	if info.Attributes != 0 {
		hh.file.attrs = info.Attributes
	}
	return STATUS_SUCCESS
}

func (m *MockStore) QueryDirectory(h RemoteHandle, pattern string) ([]DirectoryEntry, NTStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hh, st := m.handle(h, "querydirectory")
	if !st.IsSuccess() {
		return nil, st
	}
	if st, ok := m.scripted("querydirectory"); ok {
		return nil, st
	}
	if !hh.dir {
		return nil, STATUS_INVALID_PARAMETER
	}

	prefix := hh.key
	if prefix != "" {
		prefix += `\`
	}
	var entries []DirectoryEntry
	for key, f := range m.files {
		if !strings.HasPrefix(key, prefix) || key == hh.key {
			continue
		}
		rest := key[len(prefix):]
		if rest == "" || strings.Contains(rest, `\`) {
			continue
		}
		if !matchPattern(pattern, rest) {
			continue
		}
		entries = append(entries, DirectoryEntry{
			Name:           rest,
			Size:           int64(len(f.data)),
			Attributes:     f.attrs,
			CreationTime:   f.creation,
			LastWriteTime:  f.lastWrite,
			LastAccessTime: f.lastAccess,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, STATUS_SUCCESS
}

func (m *MockStore) handle(h RemoteHandle, op string) (*mockHandle, NTStatus) {
	hh, ok := h.(*mockHandle)
	if !ok || hh == nil {
		return nil, STATUS_INVALID_PARAMETER
	}
	m.record(op, hh.key)
	if hh.closed {
		return nil, STATUS_FILE_CLOSED
	}
	return hh, STATUS_SUCCESS
}

func (m *MockStore) hasChildren(key string) bool {
	prefix := key
	if prefix != "" {
		prefix += `\`
	}
	for k := range m.files {
		if k != key && strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

func (m *MockStore) putParents(key string) {
	for parent := mockParent(key); parent != ""; parent = mockParent(parent) {
		if _, ok := m.files[parent]; !ok {
			m.files[parent] = &mockFile{attrs: FILE_ATTRIBUTE_DIRECTORY}
		}
	}
}

func mockKey(path string) string {
	return strings.ToLower(strings.Trim(strings.ReplaceAll(path, "/", `\`), `\`))
}

func mockParent(key string) string {
	i := strings.LastIndexByte(key, '\\')
	if i < 0 {
		return ""
	}
	return key[:i]
}

var _ RemoteStore = (*MockStore)(nil)

// MockDialer is a Dialer over a set of MockStores keyed by host and
// share. It counts dials and logoffs so tests can assert that every
// connection is released.
type MockDialer struct {
	mu        sync.Mutex
	stores    map[string]*MockStore
	shares    map[string][]string
	failHosts map[string]bool

	Dials   int
	Logoffs int
}

func NewMockDialer() *MockDialer {
	return &MockDialer{
		stores:    make(map[string]*MockStore),
		shares:    make(map[string][]string),
		failHosts: make(map[string]bool),
	}
}

// AddShare registers an empty share and returns its backing store.
func (d *MockDialer) AddShare(host, share string) *MockStore {
	d.mu.Lock()
	defer d.mu.Unlock()
	store := NewMockStore()
	host = strings.ToLower(host)
	d.stores[host+"/"+strings.ToLower(share)] = store
	d.shares[host] = append(d.shares[host], share)
	return store
}

// FailResolution makes every dial to host fail as a name resolution
// error.
func (d *MockDialer) FailResolution(host string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failHosts[strings.ToLower(host)] = true
}

// OpenSessions returns the number of sessions dialed but not yet
// logged off.
func (d *MockDialer) OpenSessions() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Dials - d.Logoffs
}

func (d *MockDialer) Dial(ctx context.Context, host string, transport Transport, cred *Credential) (Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	host = strings.ToLower(host)
	if d.failHosts[host] {
		return nil, fmt.Errorf("%w: lookup %s: no such host", ErrHostResolution, host)
	}
	if len(d.shares[host]) == 0 {
		return nil, fmt.Errorf("%w: dial %s: connection refused", ErrHostUnreachable, host)
	}

	d.Dials++
	return &mockSession{dialer: d, host: host}, nil
}

type mockSession struct {
	dialer *MockDialer
	host   string
}

func (s *mockSession) Attach(share string) (RemoteStore, error) {
	s.dialer.mu.Lock()
	defer s.dialer.mu.Unlock()
	store, ok := s.dialer.stores[s.host+"/"+strings.ToLower(share)]
	if !ok {
		return nil, fmt.Errorf(`%w: \\%s\%s: bad network name`, ErrShareAttach, s.host, share)
	}
	return store, nil
}

func (s *mockSession) ListShares() ([]string, error) {
	s.dialer.mu.Lock()
	defer s.dialer.mu.Unlock()
	return append([]string(nil), s.dialer.shares[s.host]...), nil
}

func (s *mockSession) Logoff() error {
	s.dialer.mu.Lock()
	defer s.dialer.mu.Unlock()
	s.dialer.Logoffs++
	return nil
}

var _ Dialer = (*MockDialer)(nil)
