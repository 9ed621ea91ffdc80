package sharefs

import (
	"fmt"
	"sync"
)

// Credential is an identity bound to a path scope. The core borrows a
// credential for the duration of one operation or one open stream; it
// never stores or provisions them.
type Credential struct {
	// Domain is the authentication domain or realm. Optional.
	Domain string

	// Username is the principal to authenticate as.
	Username string

	// Password is the shared secret.
	Password string

	// Root is the share path prefix this credential applies to.
	Root *SharePath
}

// NewCredential builds a credential scoped to the given remote path
// prefix, supplied in UNC or URL form.
func NewCredential(scope, domain, username, password string) (*Credential, error) {
	sp, err := Classify(scope)
	if err != nil {
		return nil, err
	}
	if sp == nil {
		return nil, fmt.Errorf("credential scope %q: %w", scope, ErrInvalidSharePath)
	}
	if username == "" {
		return nil, fmt.Errorf("credential scope %q: username is required", scope)
	}
	return &Credential{
		Domain:   domain,
		Username: username,
		Password: password,
		Root:     sp,
	}, nil
}

// CredentialStore resolves a remote path to the credential to use for
// it. Implementations own credential lifetimes; the filesystem only
// borrows references.
type CredentialStore interface {
	// Resolve returns the credential covering sp. A path with no
	// matching credential is a caller error, reported as
	// ErrNoCredential; resolution never defaults to anonymous access.
	Resolve(sp *SharePath) (*Credential, error)

	// Credentials returns all registered credentials.
	Credentials() []*Credential
}

// StaticCredentialStore is a CredentialStore over a fixed, caller
// supplied set. Resolution picks the first registered credential whose
// scope contains the target path.
type StaticCredentialStore struct {
	mu    sync.RWMutex
	creds []*Credential
}

// NewStaticCredentialStore creates an empty store.
func NewStaticCredentialStore() *StaticCredentialStore {
	return &StaticCredentialStore{}
}

// Add registers a credential. Registration order decides precedence
// when scopes overlap.
func (s *StaticCredentialStore) Add(cred *Credential) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = append(s.creds, cred)
}

// Resolve returns the first credential whose scope contains sp.
func (s *StaticCredentialStore) Resolve(sp *SharePath) (*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.creds {
		if sp.Under(c.Root) {
			return c, nil
		}
	}
	return nil, wrapPathError("resolve", sp.Raw(), ErrNoCredential)
}

// Credentials returns a snapshot of the registered credentials.
func (s *StaticCredentialStore) Credentials() []*Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Credential, len(s.creds))
	copy(out, s.creds)
	return out
}
