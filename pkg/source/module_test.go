package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectModule_Success(t *testing.T) {
	tmpDir := t.TempDir()

	goMod := `module github.com/test/example

go 1.21
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "go.mod"), []byte(goMod), 0644))

	info, err := DetectModule(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "github.com/test/example", info.Path)
	assert.Equal(t, "1.21", info.GoVersion)
}

func TestDetectModule_NotFound(t *testing.T) {
	_, err := DetectModule(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "go.mod not found")
}

func TestDetectModule_InvalidSyntax(t *testing.T) {
	tmpDir := t.TempDir()

	invalidGoMod := `this is not valid go.mod syntax
module
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "go.mod"), []byte(invalidGoMod), 0644))

	_, err := DetectModule(tmpDir)
	assert.Error(t, err)
}

func TestModuleID(t *testing.T) {
	root := filepath.Join("/repo")

	tests := []struct {
		path string
		want string
	}{
		{filepath.Join("/repo", "pkg", "store", "db.go"), "pkg/store/db"},
		{filepath.Join("/repo", "app", "models.py"), "app/models"},
		{filepath.Join("/repo", "web", "types.d.ts"), "web/types"},
		{filepath.Join("/repo", "main.rs"), "main"},
		{filepath.Join("/elsewhere", "x.go"), "/elsewhere/x"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ModuleID(root, tt.path))
		})
	}
}

func TestLanguageFor(t *testing.T) {
	tests := []struct {
		path string
		want Language
	}{
		{"main.go", LangGo},
		{"app/views.py", LangPython},
		{"web/App.jsx", LangJavaScript},
		{"web/app.TS", LangTypeScript},
		{"web/types.d.ts", LangUnknown},
		{"Main.java", LangJava},
		{"Program.cs", LangCSharp},
		{"lib.rs", LangRust},
		{"util.h", LangC},
		{"engine.hpp", LangCPP},
		{"build.gradle.kts", LangKotlin},
		{"App.swift", LangSwift},
		{"index.php", LangPHP},
		{"README.md", LangUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, LanguageFor(tt.path))
		})
	}
}

func TestDependencyName(t *testing.T) {
	tests := []struct {
		lang Language
		typ  string
		want string
	}{
		{LangGo, "*Repository", "Repository"},
		{LangGo, "[]string", ""},
		{LangGo, "map[string]int", ""},
		{LangGo, "context.Context", "context.Context"},
		{LangPython, "Optional[Clock]", ""},
		{LangPython, "OrderRepository", "OrderRepository"},
		{LangTypeScript, "Promise<User>", ""},
		{LangTypeScript, "UserRepository", "UserRepository"},
		{LangJava, "List<Order>", ""},
		{LangJava, "OrderRepository", "OrderRepository"},
		{LangRust, "&str", ""},
		{LangRust, "Arc<Store>", "Arc"},
		{LangKotlin, "Database?", "Database"},
		{LangCPP, "const Config&", "Config"},
	}

	for _, tt := range tests {
		t.Run(string(tt.lang)+"/"+tt.typ, func(t *testing.T) {
			assert.Equal(t, tt.want, dependencyName(tt.lang, tt.typ))
		})
	}
}
