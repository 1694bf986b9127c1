package verifier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathGuard_Resolve(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o750))
	outside := t.TempDir()

	link := filepath.Join(root, "escape")
	symlinks := os.Symlink(outside, link) == nil

	guard := NewPathGuard(root)
	assert.Equal(t, root, guard.Root())

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{name: "relative", path: "doc.pdf", want: filepath.Join(root, "doc.pdf")},
		{name: "nested", path: "sub/doc.pdf", want: filepath.Join(root, "sub", "doc.pdf")},
		{name: "absolute inside", path: filepath.Join(root, "doc.pdf"), want: filepath.Join(root, "doc.pdf")},
		{name: "dot dot", path: "../doc.pdf", wantErr: true},
		{name: "absolute outside", path: filepath.Join(outside, "doc.pdf"), wantErr: true},
		{name: "prefix sibling", path: root + "-other/doc.pdf", wantErr: true},
		{name: "empty", path: "", wantErr: true},
		{name: "null bytes stripped", path: "doc\x00.pdf", want: filepath.Join(root, "doc.pdf")},
	}
	if symlinks {
		tests = append(tests, struct {
			name    string
			path    string
			want    string
			wantErr bool
		}{name: "symlink escape", path: "escape", wantErr: true})
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := guard.Resolve(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPathGuard_NoRoot(t *testing.T) {
	got, err := NewPathGuard("").Resolve("/tmp/x.pdf")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.pdf", got)
}
