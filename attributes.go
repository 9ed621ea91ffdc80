package sharefs

import (
	"io/fs"
	"strings"
)

// File attribute flags as defined in MS-FSCC.
const (
	FILE_ATTRIBUTE_READONLY      FileAttributes = 0x00000001
	FILE_ATTRIBUTE_HIDDEN        FileAttributes = 0x00000002
	FILE_ATTRIBUTE_SYSTEM        FileAttributes = 0x00000004
	FILE_ATTRIBUTE_DIRECTORY     FileAttributes = 0x00000010
	FILE_ATTRIBUTE_ARCHIVE       FileAttributes = 0x00000020
	FILE_ATTRIBUTE_NORMAL        FileAttributes = 0x00000080
	FILE_ATTRIBUTE_TEMPORARY     FileAttributes = 0x00000100
	FILE_ATTRIBUTE_SPARSE_FILE   FileAttributes = 0x00000200
	FILE_ATTRIBUTE_REPARSE_POINT FileAttributes = 0x00000400
	FILE_ATTRIBUTE_COMPRESSED    FileAttributes = 0x00000800
	FILE_ATTRIBUTE_OFFLINE       FileAttributes = 0x00001000
	FILE_ATTRIBUTE_ENCRYPTED     FileAttributes = 0x00004000
)

// FileAttributes is the attribute word carried by remote objects.
type FileAttributes uint32

// Has returns true if all flags in mask are set.
func (a FileAttributes) Has(mask FileAttributes) bool {
	return a&mask == mask
}

// With returns a copy of a with mask set.
func (a FileAttributes) With(mask FileAttributes) FileAttributes {
	return a | mask
}

// Without returns a copy of a with mask cleared.
func (a FileAttributes) Without(mask FileAttributes) FileAttributes {
	return a &^ mask
}

// IsDirectory returns true if the directory attribute is set.
func (a FileAttributes) IsDirectory() bool {
	return a.Has(FILE_ATTRIBUTE_DIRECTORY)
}

// IsReadOnly returns true if the read-only attribute is set.
func (a FileAttributes) IsReadOnly() bool {
	return a.Has(FILE_ATTRIBUTE_READONLY)
}

// IsHidden returns true if the hidden attribute is set.
func (a FileAttributes) IsHidden() bool {
	return a.Has(FILE_ATTRIBUTE_HIDDEN)
}

// String returns a human-readable list of the set attributes.
func (a FileAttributes) String() string {
	names := []struct {
		mask FileAttributes
		name string
	}{
		{FILE_ATTRIBUTE_READONLY, "ReadOnly"},
		{FILE_ATTRIBUTE_HIDDEN, "Hidden"},
		{FILE_ATTRIBUTE_SYSTEM, "System"},
		{FILE_ATTRIBUTE_DIRECTORY, "Directory"},
		{FILE_ATTRIBUTE_ARCHIVE, "Archive"},
		{FILE_ATTRIBUTE_TEMPORARY, "Temporary"},
		{FILE_ATTRIBUTE_SPARSE_FILE, "Sparse"},
		{FILE_ATTRIBUTE_REPARSE_POINT, "ReparsePoint"},
		{FILE_ATTRIBUTE_COMPRESSED, "Compressed"},
		{FILE_ATTRIBUTE_OFFLINE, "Offline"},
		{FILE_ATTRIBUTE_ENCRYPTED, "Encrypted"},
	}

	var set []string
	for _, n := range names {
		if a.Has(n.mask) {
			set = append(set, n.name)
		}
	}
	if len(set) == 0 {
		return "Normal"
	}
	return strings.Join(set, ", ")
}

// attributesToMode converts remote attributes to a Unix file mode.
// Best effort; the two permission models do not line up.
func attributesToMode(attrs FileAttributes) fs.FileMode {
	mode := fs.FileMode(0666)
	if attrs.IsReadOnly() {
		mode = 0444
	}

	if attrs.IsDirectory() {
		if attrs.IsReadOnly() {
			mode = fs.ModeDir | 0555
		} else {
			mode = fs.ModeDir | 0777
		}
	}

	if attrs.Has(FILE_ATTRIBUTE_REPARSE_POINT) {
		mode |= fs.ModeSymlink
	}

	return mode
}

// modeToAttributes converts a Unix file mode to remote attributes.
// Best effort; the inverse of attributesToMode.
func modeToAttributes(mode fs.FileMode) FileAttributes {
	var attrs FileAttributes

	if mode&0222 == 0 {
		attrs = attrs.With(FILE_ATTRIBUTE_READONLY)
	}
	if mode.IsDir() {
		attrs = attrs.With(FILE_ATTRIBUTE_DIRECTORY)
	}
	if mode&fs.ModeSymlink != 0 {
		attrs = attrs.With(FILE_ATTRIBUTE_REPARSE_POINT)
	}
	if mode.IsRegular() {
		attrs = attrs.With(FILE_ATTRIBUTE_ARCHIVE)
	}
	if attrs == 0 {
		attrs = FILE_ATTRIBUTE_NORMAL
	}

	return attrs
}
