package sharefs

import (
	"net/url"
	"strings"
)

// SharePath is the parsed form of a remote share path. It is produced
// by Classify and lives only for the duration of the operation that
// created it.
type SharePath struct {
	// Host is the server name or address. Host comparison is always
	// case-insensitive.
	Host string

	// Share is the name of the share on Host.
	Share string

	// Path is the share-relative path using backslash separators, with
	// no leading separator. Empty for the share root.
	Path string

	// raw preserves the literal form the caller supplied.
	raw string
}

// Classify determines whether p refers to a remote share.
//
// Two remote syntaxes are accepted:
//   - UNC form:  \\host\share\dir\file
//   - URL form:  smb://host/share/dir/file
//
// Any other string is a local path and yields (nil, nil). A
// remote-looking path with no share segment (for example `\\host` or
// `smb://host`) is malformed and yields ErrInvalidSharePath.
func Classify(p string) (*SharePath, error) {
	switch {
	case strings.HasPrefix(p, `\\`):
		return parseUNC(p)
	case strings.HasPrefix(strings.ToLower(p), "smb://"):
		return parseURL(p)
	}
	return nil, nil
}

// parseUNC parses \\host\share[\relative\path].
func parseUNC(p string) (*SharePath, error) {
	trimmed := strings.Trim(p[2:], `\`)
	if trimmed == "" {
		return nil, wrapPathError("classify", p, ErrInvalidSharePath)
	}

	parts := strings.SplitN(trimmed, `\`, 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return nil, wrapPathError("classify", p, ErrInvalidSharePath)
	}

	sp := &SharePath{
		Host:  parts[0],
		Share: parts[1],
		raw:   p,
	}
	if len(parts) == 3 {
		sp.Path = cleanRelative(parts[2])
	}
	return sp, nil
}

// parseURL parses smb://host/share[/relative/path].
func parseURL(p string) (*SharePath, error) {
	u, err := url.Parse(p)
	if err != nil {
		return nil, wrapPathError("classify", p, ErrInvalidSharePath)
	}

	host := u.Hostname()
	segments := strings.Trim(u.Path, "/")
	if host == "" || segments == "" {
		return nil, wrapPathError("classify", p, ErrInvalidSharePath)
	}

	parts := strings.SplitN(segments, "/", 2)
	sp := &SharePath{
		Host:  host,
		Share: parts[0],
		raw:   p,
	}
	if len(parts) == 2 {
		sp.Path = cleanRelative(strings.ReplaceAll(parts[1], "/", `\`))
	}
	return sp, nil
}

// cleanRelative normalizes a share-relative path to backslash
// separators with no leading, trailing, or doubled separators.
func cleanRelative(p string) string {
	p = strings.ReplaceAll(p, "/", `\`)
	segs := strings.Split(p, `\`)
	out := segs[:0]
	for _, s := range segs {
		if s != "" && s != "." {
			out = append(out, s)
		}
	}
	return strings.Join(out, `\`)
}

// String returns the canonical UNC form of the path.
func (sp *SharePath) String() string {
	s := `\\` + sp.Host + `\` + sp.Share
	if sp.Path != "" {
		s += `\` + sp.Path
	}
	return s
}

// Raw returns the literal path the caller supplied.
func (sp *SharePath) Raw() string {
	if sp.raw != "" {
		return sp.raw
	}
	return sp.String()
}

// IsShareRoot reports whether the path refers to the share itself
// rather than an object within it.
func (sp *SharePath) IsShareRoot() bool {
	return sp.Path == ""
}

// Base returns the final segment of the share-relative path, or ""
// for the share root.
func (sp *SharePath) Base() string {
	if sp.Path == "" {
		return ""
	}
	if i := strings.LastIndexByte(sp.Path, '\\'); i >= 0 {
		return sp.Path[i+1:]
	}
	return sp.Path
}

// Parent returns the path of the containing directory. The parent of
// anything directly under the share root, and of the root itself, is
// the share root.
func (sp *SharePath) Parent() *SharePath {
	parent := &SharePath{Host: sp.Host, Share: sp.Share}
	if i := strings.LastIndexByte(sp.Path, '\\'); i >= 0 {
		parent.Path = sp.Path[:i]
	}
	return parent
}

// Join returns a new SharePath with name appended as a path segment.
func (sp *SharePath) Join(name string) *SharePath {
	child := &SharePath{Host: sp.Host, Share: sp.Share, Path: name}
	if sp.Path != "" {
		child.Path = sp.Path + `\` + name
	}
	return child
}

// Under reports whether sp is equal to or contained within prefix.
// Hosts and shares compare case-insensitively, as do path segments,
// matching the case-insensitivity of the remote side.
func (sp *SharePath) Under(prefix *SharePath) bool {
	if prefix == nil {
		return false
	}
	if !strings.EqualFold(sp.Host, prefix.Host) || !strings.EqualFold(sp.Share, prefix.Share) {
		return false
	}
	if prefix.Path == "" {
		return true
	}
	p, pre := strings.ToLower(sp.Path), strings.ToLower(prefix.Path)
	return p == pre || strings.HasPrefix(p, pre+`\`)
}
