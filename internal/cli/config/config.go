package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tejusoni55/sargenjs/internal/generator"
	"github.com/tejusoni55/sargenjs/internal/project"
)

// FileName is the project config file written by `sargen new`
const FileName = "sargen.yaml"

// ErrNotInProject is returned when no sargen.yaml is found walking up
var ErrNotInProject = errors.New("not in a sargen project (no sargen.yaml found)")

// Config represents the sargen project configuration
type Config struct {
	ProjectName    string         `mapstructure:"project_name"`
	PackageManager string         `mapstructure:"package_manager"`
	Database       DatabaseConfig `mapstructure:"database"`
	Layout         LayoutConfig   `mapstructure:"layout"`
	Commands       CommandsConfig `mapstructure:"commands"`

	// Root is the directory the config was loaded from
	Root string `mapstructure:"-"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Dialect string `mapstructure:"dialect"`
}

// LayoutConfig locates generated files and anchors inside the project
type LayoutConfig struct {
	SrcDir           string `mapstructure:"src_dir"`
	RoutesIndex      string `mapstructure:"routes_index"`
	RouteAnchor      string `mapstructure:"route_anchor"`
	AppFile          string `mapstructure:"app_file"`
	MiddlewareAnchor string `mapstructure:"middleware_anchor"`
	MigrationsDir    string `mapstructure:"migrations_dir"`
}

// CommandsConfig controls external commands
type CommandsConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// Load loads sargen.yaml from dir. A missing file yields the defaults.
// SARGEN_* environment variables override file values, e.g.
// SARGEN_PACKAGE_MANAGER or SARGEN_LAYOUT_SRC_DIR.
func Load(dir string) (*Config, error) {
	v := viper.New()

	layout := generator.DefaultLayout()
	v.SetDefault("package_manager", project.DefaultPackageManager)
	v.SetDefault("database.dialect", "postgres")
	v.SetDefault("layout.src_dir", layout.SrcDir)
	v.SetDefault("layout.routes_index", layout.RoutesIndex)
	v.SetDefault("layout.route_anchor", layout.RouteAnchor)
	v.SetDefault("layout.app_file", layout.AppFile)
	v.SetDefault("layout.middleware_anchor", layout.MiddlewareAnchor)
	v.SetDefault("layout.migrations_dir", layout.MigrationsDir)
	v.SetDefault("commands.timeout", 5*time.Minute)
	v.SetDefault("project_name", "")

	v.SetConfigName("sargen")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix("SARGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.Root = dir

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadProject finds the project root from start and loads its config
func LoadProject(start string) (*Config, error) {
	root, err := FindProjectRoot(start)
	if err != nil {
		return nil, err
	}
	return Load(root)
}

// GeneratorLayout converts the layout section for the generator
func (c *Config) GeneratorLayout() generator.Layout {
	return generator.Layout{
		SrcDir:           c.Layout.SrcDir,
		RoutesIndex:      c.Layout.RoutesIndex,
		RouteAnchor:      c.Layout.RouteAnchor,
		AppFile:          c.Layout.AppFile,
		MiddlewareAnchor: c.Layout.MiddlewareAnchor,
		MigrationsDir:    c.Layout.MigrationsDir,
	}
}

// InProject checks if dir contains a sargen.yaml
func InProject(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, FileName))
	return err == nil
}

// FindProjectRoot walks up from start looking for sargen.yaml
func FindProjectRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}

	for {
		if InProject(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotInProject
		}
		dir = parent
	}
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	valid := false
	for _, pm := range project.PackageManagers {
		if cfg.PackageManager == pm {
			valid = true
		}
	}
	if !valid {
		return fmt.Errorf("package_manager must be one of %s, got: %s",
			strings.Join(project.PackageManagers, ", "), cfg.PackageManager)
	}

	paths := map[string]string{
		"layout.src_dir":        cfg.Layout.SrcDir,
		"layout.routes_index":   cfg.Layout.RoutesIndex,
		"layout.app_file":       cfg.Layout.AppFile,
		"layout.migrations_dir": cfg.Layout.MigrationsDir,
	}
	for key, p := range paths {
		clean := filepath.Clean(p)
		if p == "" || filepath.IsAbs(p) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
			return fmt.Errorf("%s must be a relative path inside the project, got: %q", key, p)
		}
	}

	if strings.TrimSpace(cfg.Layout.RouteAnchor) == "" {
		return fmt.Errorf("layout.route_anchor must not be empty")
	}
	if strings.TrimSpace(cfg.Layout.MiddlewareAnchor) == "" {
		return fmt.Errorf("layout.middleware_anchor must not be empty")
	}
	if cfg.Commands.Timeout <= 0 {
		return fmt.Errorf("commands.timeout must be positive, got: %s", cfg.Commands.Timeout)
	}
	return nil
}
