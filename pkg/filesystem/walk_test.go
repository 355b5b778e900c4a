package filesystem

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func TestWalk_IgnoreDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"node_modules/lib.js": "x",
		"vendor/dep.go":       "x",
		".git/HEAD":           "x",
		"keep.txt":            "x",
	})

	var visited []string
	err := Walk(tmpDir, WalkOptions{}, func(path string, info os.FileInfo) error {
		rel, _ := filepath.Rel(tmpDir, path)
		visited = append(visited, rel)
		return nil
	})
	require.NoError(t, err)

	for _, v := range visited {
		if strings.Contains(v, "node_modules") || strings.Contains(v, "vendor") || strings.Contains(v, ".git") {
			t.Errorf("Walk() visited ignored directory: %s", v)
		}
	}
	assert.Contains(t, visited, "keep.txt")
}

func TestWalk_IgnorePatterns(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"app.js":     "x",
		"app.min.js": "x",
	})

	var names []string
	err := Walk(tmpDir, WalkOptions{IgnorePatterns: []string{"*.min.js"}}, func(path string, info os.FileInfo) error {
		if !info.IsDir() {
			names = append(names, info.Name())
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"app.js"}, names)
}

func TestDiscover(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"b/main.go":         "package main",
		"a/util.py":         "x = 1",
		"README.md":         "# readme",
		"generated/skip.go": "package gen",
		"node_modules/m.js": "x",
		"web/app.min.js":    "x",
		"api/user.pb.go":    "package api",
	})

	files, err := Discover(tmpDir, DiscoverOptions{
		Accept:  func(p string) bool { return !strings.HasSuffix(p, ".md") },
		Exclude: []string{"generated"},
	})
	require.NoError(t, err)

	var rel []string
	for _, f := range files {
		r, _ := filepath.Rel(tmpDir, f)
		rel = append(rel, filepath.ToSlash(r))
	}
	assert.Equal(t, []string{"a/util.py", "b/main.go"}, rel)
}

func TestDiscover_InvalidRoot(t *testing.T) {
	_, err := Discover("/nonexistent/path/that/does/not/exist", DiscoverOptions{})
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	_, err = Discover(file, DiscoverOptions{})
	assert.Error(t, err)
}
