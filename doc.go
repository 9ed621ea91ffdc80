// Package sharefs provides transparent access to local paths and remote
// SMB network shares through a single filesystem API.
//
// # Overview
//
// Application code hands sharefs an ordinary path string. Paths in UNC
// form (\\host\share\dir\file) or URL form (smb://host/share/dir/file)
// are dispatched to the named share over SMB; every other path is
// delegated verbatim to the local filesystem. Callers never need to
// know which kind of path they hold.
//
// Remote access is stateful: each operation resolves a credential for
// the target path, establishes a session with the host, attaches to the
// share, opens a handle, performs the work, and tears everything down
// again. sharefs owns that whole lifecycle, including bounded retries
// for transient protocol statuses, so the caller sees plain file
// semantics and plain errors.
//
// # Basic Usage
//
//	fsys, err := sharefs.New(&sharefs.Config{
//	    Credentials: []sharefs.CredentialConfig{{
//	        Path:     `\\fileserver\shared`,
//	        Domain:   "CORP",
//	        Username: "jdoe",
//	        Password: "secret123",
//	    }},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer fsys.Close()
//
//	data, err := fsys.ReadFile(`\\fileserver\shared\reports\q3.csv`)
//	local, err := fsys.ReadFile("/tmp/scratch.csv") // same API, local disk
//
// # Credentials
//
// Remote paths require a registered credential whose scope is a prefix
// of the target path. Resolution failure is surfaced as an error; there
// is no silent fallback to anonymous access.
//
// # Connections
//
// Every operation (or open stream) manages its own connection: one
// session, one tree connect, released when the operation completes or
// the stream is closed. Connections are never pooled or shared between
// concurrent callers; conflict detection between concurrent writers is
// left to the share-access flags requested at open time.
//
// Access control lists are not translated between the two worlds;
// GetAccessControl and SetAccessControl always fail with
// ErrACLNotSupported.
package sharefs
