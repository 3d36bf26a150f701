package ptcorm

import (
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/FxRayHughes/ptcorm/dialect"
	"github.com/FxRayHughes/ptcorm/dsconfig"
	"github.com/FxRayHughes/ptcorm/log"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DataSource is a bounded connection pool bound to one dialect (spec
// §5, §6). It is the handle NewMapper registers descriptors against.
type DataSource struct {
	db      *sql.DB
	dialect dialect.Dialect
	logger  log.Interface
}

// Open resolves src into a live DataSource, per spec §6.
//
//   - a string is treated as a "<name>.db" SQLite file resolved under
//     dataDir, forcing the sqlite dialect (spec §6's filesystem
//     fallback);
//   - a dsconfig.Source or *dsconfig.Source is used as given; if
//     Enable is false, it falls back to the same local-SQLite-file
//     behavior, using Database (or "data" if empty) as the file stem.
func Open(dataDir string, src any) (*DataSource, error) {
	switch v := src.(type) {
	case string:
		return openSQLiteFile(dataDir, v)
	case dsconfig.Source:
		return openSource(dataDir, &v)
	case *dsconfig.Source:
		return openSource(dataDir, v)
	default:
		return nil, fmt.Errorf("ptcorm: Open: unsupported source type %T", src)
	}
}

func openSource(dataDir string, s *dsconfig.Source) (*DataSource, error) {
	if !s.Enable {
		name := s.Database
		if name == "" {
			name = "data"
		}
		return openSQLiteFile(dataDir, name+".db")
	}
	switch s.Type {
	case "sqlite", "sqlite3":
		return openSQLiteFile(dataDir, s.Database)
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", s.User, s.Password, s.Host, port(s.Port, 3306), s.Database)
		return open(dialect.Get(dialect.MySQL), "mysql", dsn, s)
	case "postgresql", "postgres":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", s.Host, port(s.Port, 5432), s.User, s.Password, s.Database)
		if s.Schema != "" {
			dsn += " search_path=" + s.Schema
		}
		return open(dialect.Get(dialect.PostgreSQL), "postgres", dsn, s)
	default:
		return nil, fmt.Errorf("ptcorm: unknown source type %q", s.Type)
	}
}

func port(p, def int) int {
	if p == 0 {
		return def
	}
	return p
}

func openSQLiteFile(dataDir, name string) (*DataSource, error) {
	path := filepath.Join(dataDir, name)
	return open(dialect.Get(dialect.SQLite), "sqlite3", path, &dsconfig.Source{})
}

func open(dial dialect.Dialect, driverName, dsn string, s *dsconfig.Source) (*DataSource, error) {
	if dial == nil {
		return nil, fmt.Errorf("ptcorm: dialect %q not registered", driverName)
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("ptcorm: open %s: %w", driverName, err)
	}
	if s.MaxOpenConns > 0 {
		db.SetMaxOpenConns(s.MaxOpenConns)
	}
	if s.MaxIdleConns > 0 {
		db.SetMaxIdleConns(s.MaxIdleConns)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ptcorm: ping %s: %w", driverName, err)
	}
	return &DataSource{db: db, dialect: dial, logger: log.Nop}, nil
}

// SetLogger attaches a logger; by default DataSource logs nothing.
func (ds *DataSource) SetLogger(l log.Interface) {
	if l == nil {
		l = log.Nop
	}
	ds.logger = l
}

// Dialect returns the backend dialect this DataSource was opened with.
func (ds *DataSource) Dialect() dialect.Dialect {
	return ds.dialect
}

// Close releases the underlying connection pool.
func (ds *DataSource) Close() error {
	return ds.db.Close()
}
