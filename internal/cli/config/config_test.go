package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tejusoni55/sargenjs/internal/generator"
)

func TestLoad(t *testing.T) {
	// No config file: defaults apply
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("expected no error loading defaults, got %v", err)
	}

	if cfg.PackageManager != "npm" {
		t.Errorf("expected default package manager 'npm', got %s", cfg.PackageManager)
	}

	if cfg.Commands.Timeout != 5*time.Minute {
		t.Errorf("expected default timeout 5m, got %s", cfg.Commands.Timeout)
	}

	if cfg.GeneratorLayout() != generator.DefaultLayout() {
		t.Errorf("expected default layout, got %+v", cfg.GeneratorLayout())
	}
}

func TestLoadWithConfigFile(t *testing.T) {
	tmpDir := t.TempDir()

	configContent := `
project_name: shop
package_manager: pnpm
database:
  dialect: sqlite
layout:
  src_dir: app
  routes_index: app/routes/index.js
  migrations_dir: db/migrations
commands:
  timeout: 90s
`
	if err := os.WriteFile(filepath.Join(tmpDir, FileName), []byte(configContent), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("expected no error loading config, got %v", err)
	}

	if cfg.ProjectName != "shop" {
		t.Errorf("expected project name 'shop', got %s", cfg.ProjectName)
	}
	if cfg.PackageManager != "pnpm" {
		t.Errorf("expected package manager 'pnpm', got %s", cfg.PackageManager)
	}
	if cfg.Database.Dialect != "sqlite" {
		t.Errorf("expected dialect 'sqlite', got %s", cfg.Database.Dialect)
	}
	if cfg.Commands.Timeout != 90*time.Second {
		t.Errorf("expected timeout 90s, got %s", cfg.Commands.Timeout)
	}
	if cfg.Root != tmpDir {
		t.Errorf("expected root %s, got %s", tmpDir, cfg.Root)
	}

	layout := cfg.GeneratorLayout()
	if layout.SrcDir != "app" || layout.MigrationsDir != "db/migrations" {
		t.Errorf("unexpected layout %+v", layout)
	}
	// unset keys keep their defaults
	if layout.RouteAnchor != "module.exports = router;" {
		t.Errorf("expected default route anchor, got %q", layout.RouteAnchor)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SARGEN_PACKAGE_MANAGER", "yarn")
	t.Setenv("SARGEN_LAYOUT_SRC_DIR", "server")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.PackageManager != "yarn" {
		t.Errorf("expected env override 'yarn', got %s", cfg.PackageManager)
	}
	if cfg.Layout.SrcDir != "server" {
		t.Errorf("expected env override 'server', got %s", cfg.Layout.SrcDir)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown package manager", "package_manager: bun\n", "package_manager"},
		{"absolute src dir", "layout:\n  src_dir: /etc\n", "layout.src_dir"},
		{"escaping migrations dir", "layout:\n  migrations_dir: ../migrations\n", "layout.migrations_dir"},
		{"empty anchor", "layout:\n  route_anchor: \"  \"\n", "layout.route_anchor"},
		{"zero timeout", "commands:\n  timeout: 0s\n", "commands.timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}

			_, err := Load(dir)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %s, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("layout: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(dir); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "src", "routes")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	if _, err := FindProjectRoot(nested); !errors.Is(err, ErrNotInProject) {
		t.Errorf("expected ErrNotInProject, got %v", err)
	}

	if err := os.WriteFile(filepath.Join(root, FileName), []byte("project_name: shop\n"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := FindProjectRoot(nested)
	if err != nil {
		t.Fatalf("expected root to be found, got %v", err)
	}
	if got != root {
		t.Errorf("expected %s, got %s", root, got)
	}

	if !InProject(root) || InProject(nested) {
		t.Error("InProject should only match the root")
	}

	cfg, err := LoadProject(nested)
	if err != nil {
		t.Fatalf("LoadProject failed: %v", err)
	}
	if cfg.ProjectName != "shop" {
		t.Errorf("expected project name 'shop', got %s", cfg.ProjectName)
	}
}
