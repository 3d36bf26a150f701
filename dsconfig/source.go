// Package dsconfig defines the decoded form of the data-source
// configuration block consumed by ptcorm.Open (spec §6), mirroring how
// the teacher's gnd.la/config package exposes a plain struct decoded
// from YAML rather than a bespoke parser.
package dsconfig

// Source is the configuration for one database connection. It decodes
// directly from the application's YAML (or JSON) configuration file
// via gopkg.in/yaml.v3, the same way the teacher's gnd.la/config
// struct tags are consumed by its loader.
type Source struct {
	// Enable gates whether this Source is used at all. When false,
	// ptcorm.Open falls back to a local SQLite file (spec §6).
	Enable bool `yaml:"enable" json:"enable"`
	// Type selects the backend: "sqlite", "mysql" or "postgresql".
	Type string `yaml:"type" json:"type"`
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
	User string `yaml:"user" json:"user"`
	Password string `yaml:"password" json:"password"`
	Database string `yaml:"database" json:"database"`
	// Schema qualifies the connection's default schema. Only
	// meaningful for "postgresql".
	Schema string `yaml:"schema" json:"schema"`

	// MaxOpenConns/MaxIdleConns tune the pool (spec §5 "bounded
	// connection pool"); zero means "use the driver's default".
	MaxOpenConns int `yaml:"max_open_conns" json:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns" json:"max_idle_conns"`
}
