package project

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

type composeFile struct {
	Services map[string]composeService `yaml:"services"`
	Volumes  map[string]struct{}       `yaml:"volumes,omitempty"`
}

type composeService struct {
	Build       string            `yaml:"build,omitempty"`
	Image       string            `yaml:"image,omitempty"`
	Ports       []string          `yaml:"ports,omitempty"`
	EnvFile     []string          `yaml:"env_file,omitempty"`
	Environment map[string]string `yaml:"environment,omitempty"`
	DependsOn   []string          `yaml:"depends_on,omitempty"`
	Volumes     []string          `yaml:"volumes,omitempty"`
}

// composeYAML renders docker-compose.yml with an app service and, for
// server databases, a db service with a named volume
func composeYAML(opts Options) (string, error) {
	dbName := databaseName(opts.Name)
	app := composeService{
		Build:   ".",
		Ports:   []string{fmt.Sprintf("%d:%d", opts.Port, opts.Port)},
		EnvFile: []string{".env"},
		Environment: map[string]string{
			"NODE_ENV": "production",
		},
	}
	file := composeFile{Services: map[string]composeService{"app": app}}

	if opts.Database.HasService() {
		info := databaseTable[opts.Database]
		app.DependsOn = []string{"db"}
		app.Environment["DATABASE_URL"] = strings.Replace(opts.Database.URL(dbName), "@localhost:", "@db:", 1)

		db := composeService{
			Image:   info.image,
			Ports:   []string{fmt.Sprintf("%d:%d", info.port, info.port)},
			Volumes: []string{"db-data:" + dataDir(opts.Database)},
		}
		switch opts.Database {
		case Postgres:
			db.Environment = map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_DB":       dbName,
			}
		case MySQL:
			db.Environment = map[string]string{
				"MYSQL_ROOT_PASSWORD": "root",
				"MYSQL_DATABASE":      dbName,
			}
		case SQLite:
		}

		file.Services["app"] = app
		file.Services["db"] = db
		file.Volumes = map[string]struct{}{"db-data": {}}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return "", fmt.Errorf("encode docker-compose.yml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode docker-compose.yml: %w", err)
	}
	return buf.String(), nil
}

func dataDir(db Database) string {
	switch db {
	case Postgres:
		return "/var/lib/postgresql/data"
	case MySQL:
		return "/var/lib/mysql"
	default:
		return ""
	}
}
