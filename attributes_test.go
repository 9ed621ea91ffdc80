package sharefs

import (
	"io/fs"
	"testing"
)

func TestFileAttributesBits(t *testing.T) {
	a := FILE_ATTRIBUTE_READONLY.With(FILE_ATTRIBUTE_HIDDEN)
	if !a.Has(FILE_ATTRIBUTE_READONLY) || !a.Has(FILE_ATTRIBUTE_HIDDEN) {
		t.Errorf("With lost a bit: %v", a)
	}
	if a.Has(FILE_ATTRIBUTE_DIRECTORY) {
		t.Error("Has reported an unset bit")
	}
	if a.Without(FILE_ATTRIBUTE_HIDDEN).IsHidden() {
		t.Error("Without left the bit set")
	}
}

func TestFileAttributesString(t *testing.T) {
	tests := []struct {
		attrs FileAttributes
		want  string
	}{
		{0, "Normal"},
		{FILE_ATTRIBUTE_READONLY, "ReadOnly"},
		{FILE_ATTRIBUTE_DIRECTORY | FILE_ATTRIBUTE_HIDDEN, "Hidden, Directory"},
	}
	for _, tt := range tests {
		if got := tt.attrs.String(); got != tt.want {
			t.Errorf("String(%#x) = %q, want %q", uint32(tt.attrs), got, tt.want)
		}
	}
}

func TestAttributesToMode(t *testing.T) {
	tests := []struct {
		attrs FileAttributes
		want  fs.FileMode
	}{
		{FILE_ATTRIBUTE_NORMAL, 0666},
		{FILE_ATTRIBUTE_READONLY, 0444},
		{FILE_ATTRIBUTE_DIRECTORY, fs.ModeDir | 0777},
		{FILE_ATTRIBUTE_DIRECTORY | FILE_ATTRIBUTE_READONLY, fs.ModeDir | 0555},
	}
	for _, tt := range tests {
		if got := attributesToMode(tt.attrs); got != tt.want {
			t.Errorf("attributesToMode(%v) = %v, want %v", tt.attrs, got, tt.want)
		}
	}
}

func TestModeToAttributes(t *testing.T) {
	tests := []struct {
		mode fs.FileMode
		want FileAttributes
	}{
		{0666, FILE_ATTRIBUTE_ARCHIVE},
		{0444, FILE_ATTRIBUTE_READONLY | FILE_ATTRIBUTE_ARCHIVE},
		{fs.ModeDir | 0777, FILE_ATTRIBUTE_DIRECTORY},
		{fs.ModeSymlink | 0777, FILE_ATTRIBUTE_REPARSE_POINT},
	}
	for _, tt := range tests {
		if got := modeToAttributes(tt.mode); got != tt.want {
			t.Errorf("modeToAttributes(%v) = %v, want %v", tt.mode, got, tt.want)
		}
	}
}
