// Package dbcheck verifies that a generated project's database is reachable.
// It only connects and pings; it never runs migrations.
package dbcheck

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/tejusoni55/sargenjs/internal/logging"
)

const defaultTimeout = 5 * time.Second

var (
	// ErrNoDatabaseURL means neither .env nor the environment sets DATABASE_URL
	ErrNoDatabaseURL = errors.New("DATABASE_URL is not set")
	// ErrUnsupported means the URL scheme cannot be checked by doctor
	ErrUnsupported = errors.New("database is not supported by doctor")
)

// Env is the database configuration of a project
type Env struct {
	DatabaseURL string
	Dialect     string
	// Source is the .env path the values came from, empty for the process environment
	Source string
}

// LoadEnv reads DATABASE_URL and DB_DIALECT from root/.env, falling back to
// the process environment for anything the file does not set
func LoadEnv(root string) (Env, error) {
	var env Env
	path := filepath.Join(root, ".env")

	values, err := gotenv.Read(path)
	switch {
	case err == nil:
		env.Source = path
	case errors.Is(err, os.ErrNotExist):
		values = gotenv.Env{}
	default:
		return env, fmt.Errorf("read %s: %w", path, err)
	}

	env.DatabaseURL = lookup(values, "DATABASE_URL")
	env.Dialect = lookup(values, "DB_DIALECT")
	if env.DatabaseURL == "" {
		return env, ErrNoDatabaseURL
	}
	return env, nil
}

func lookup(values gotenv.Env, key string) string {
	if v := values[key]; v != "" {
		return v
	}
	return os.Getenv(key)
}

// Target is a parsed connection URL
type Target struct {
	Dialect string
	Driver  string
	DSN     string
}

// ParseURL maps a Sequelize connection URL to a database/sql driver and DSN.
// Relative sqlite paths are resolved against root.
func ParseURL(raw, root string) (Target, error) {
	scheme, rest, ok := strings.Cut(raw, ":")
	if !ok {
		return Target{}, fmt.Errorf("invalid database URL %q", raw)
	}

	switch strings.ToLower(scheme) {
	case "postgres", "postgresql":
		if _, err := url.Parse(raw); err != nil {
			return Target{}, fmt.Errorf("invalid database URL: %w", err)
		}
		return Target{Dialect: "postgres", Driver: "pgx", DSN: raw}, nil

	case "sqlite", "sqlite3":
		path := strings.TrimPrefix(rest, "//")
		if path == "" || path == ":memory:" {
			return Target{Dialect: "sqlite", Driver: "sqlite3", DSN: ":memory:"}, nil
		}
		if !filepath.IsAbs(path) && root != "" {
			path = filepath.Join(root, path)
		}
		// mode=rw refuses to create a missing file
		return Target{Dialect: "sqlite", Driver: "sqlite3", DSN: "file:" + path + "?mode=rw"}, nil

	case "mysql", "mariadb":
		return Target{Dialect: "mysql"}, fmt.Errorf("%s: %w", scheme, ErrUnsupported)

	default:
		return Target{}, fmt.Errorf("%s: %w", scheme, ErrUnsupported)
	}
}

// Opener opens a database handle
type Opener func(driver, dsn string) (*sql.DB, error)

// Checker pings databases
type Checker struct {
	open    Opener
	timeout time.Duration
	logger  *zap.Logger
}

// NewChecker creates a checker. A nil open uses sql.Open.
func NewChecker(open Opener, logger *zap.Logger) *Checker {
	if open == nil {
		open = sql.Open
	}
	return &Checker{open: open, timeout: defaultTimeout, logger: logging.OrNop(logger)}
}

// Ping connects to the database at rawURL and pings it
func (c *Checker) Ping(ctx context.Context, rawURL string) error {
	target, err := ParseURL(rawURL, "")
	if err != nil {
		return err
	}
	return c.PingTarget(ctx, target)
}

// PingTarget pings an already parsed target
func (c *Checker) PingTarget(ctx context.Context, target Target) error {
	db, err := c.open(target.Driver, target.DSN)
	if err != nil {
		return fmt.Errorf("open %s database: %w", target.Dialect, err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping %s database: %w", target.Dialect, err)
	}
	c.logger.Debug("database reachable",
		zap.String("dialect", target.Dialect),
		zap.Duration("latency", time.Since(start)))
	return nil
}

// CheckProject loads root/.env and pings the configured database
func (c *Checker) CheckProject(ctx context.Context, root string) (Target, error) {
	env, err := LoadEnv(root)
	if err != nil {
		return Target{}, err
	}
	target, err := ParseURL(env.DatabaseURL, root)
	if err != nil {
		return target, err
	}
	return target, c.PingTarget(ctx, target)
}
