package config

import (
	"io"
	"os"
	"regexp"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/mysqlup/pkg/consts"
	"gopkg.in/yaml.v3"
)

// envRef matches ${NAME}. Bare $NAME and $$ are left alone so passwords can
// contain dollar signs.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

type (
	// Dev configures the local development server started by `mysqlup dev up`.
	Dev struct {
		// Version is the mysql image tag to run
		Version string `yaml:"version,omitempty"`

		// Port is the host port the server is published on
		Port int `yaml:"port,omitempty"`

		// Database is created when the container first starts
		Database string `yaml:"database,omitempty"`

		// Password is the root password
		Password string `yaml:"password,omitempty"`

		// ConfigDir is an optional directory of .cnf files mounted into the
		// container's conf.d directory
		ConfigDir string `yaml:"config_dir,omitempty"`
	}

	// Config represents the mysqlup project configuration.
	Config struct {
		// ConnectionString is the semicolon delimited connection string of the
		// target database. ${VAR} references are expanded from the environment.
		ConnectionString string `yaml:"connection_string,omitempty"`

		// Schema qualifies the journal table. Empty leaves it unqualified.
		Schema string `yaml:"schema,omitempty"`

		// JournalTable is the table applied scripts are recorded in
		JournalTable string `yaml:"journal_table,omitempty"`

		// ScriptsDir is the directory .sql scripts are loaded from
		ScriptsDir string `yaml:"scripts_dir,omitempty"`

		// Variables are substituted for $name$ references in scripts
		Variables map[string]string `yaml:"variables,omitempty"`

		// VariablesEnabled toggles $name$ substitution. Defaults to true.
		VariablesEnabled *bool `yaml:"variables_enabled,omitempty"`

		// CommandTimeout bounds each command sent by `mysqlup drop`
		CommandTimeout time.Duration `yaml:"command_timeout,omitempty"`

		// Dev configures the local development server
		Dev Dev `yaml:"dev,omitempty"`
	}
)

// LoadConfig parses a project configuration from the provided io.Reader.
//
// Missing values are filled with defaults: scripts are read from
// db/scripts and applied scripts are journaled to schemaversions.
//
// Example:
//
//	yamlData := `
//	connection_string: Server=${DB_HOST};Database=orders;Uid=deploy;Pwd=${DB_PASSWORD}
//	scripts_dir: db/scripts
//	`
//
//	cfg, err := config.LoadConfig(strings.NewReader(yamlData))
//	if err != nil {
//		panic(err)
//	}
//
//	fmt.Printf("Scripts: %s\n", cfg.ScriptsDir)
func LoadConfig(r io.Reader) (*Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	cfg.ConnectionString = expandEnv(cfg.ConnectionString)
	cfg.applyDefaults()

	return &cfg, nil
}

// LoadConfigFile loads a project configuration from the specified file path.
// This is a convenience function that opens the file and calls LoadConfig.
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file: %s", path)
	}
	defer func() { _ = f.Close() }()

	return LoadConfig(f)
}

// Default returns the configuration used when no mysqlup.yaml exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// SubstituteVariables reports whether $name$ substitution is enabled.
func (c *Config) SubstituteVariables() bool {
	return c.VariablesEnabled == nil || *c.VariablesEnabled
}

func (c *Config) applyDefaults() {
	if c.JournalTable == "" {
		c.JournalTable = consts.DefaultJournalTable
	}
	if c.ScriptsDir == "" {
		c.ScriptsDir = consts.DefaultScriptsDir
	}
	if c.Dev.Version == "" {
		c.Dev.Version = consts.DefaultMySQLVersion
	}
	if c.Dev.Port == 0 {
		c.Dev.Port = consts.DefaultDevPort
	}
	if c.Dev.Database == "" {
		c.Dev.Database = consts.DefaultDevDatabase
	}
	if c.Dev.Password == "" {
		c.Dev.Password = consts.DefaultDevPassword
	}
}

func expandEnv(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		return os.Getenv(envRef.FindStringSubmatch(ref)[1])
	})
}
