package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pseudomuto/mysqlup/pkg/config"
	"github.com/pseudomuto/mysqlup/pkg/consts"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type (
	// ProjectFixture represents a test project: a temp directory holding a
	// mysqlup.yaml and a scripts directory.
	ProjectFixture struct {
		Dir    string
		Config *config.Config
		t      *testing.T
	}

	// Script is a test upgrade script
	Script struct {
		Name string
		SQL  string
	}
)

// DefaultConfig returns the configuration used when no mysqlup.yaml exists.
func DefaultConfig() *config.Config {
	return config.Default()
}

// TestProject creates an isolated temp directory with a mysqlup.yaml and an
// empty scripts directory. The config's ScriptsDir is absolute so commands can
// run from any working directory.
func TestProject(t *testing.T) *ProjectFixture {
	t.Helper()

	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.ScriptsDir = filepath.Join(dir, consts.DefaultScriptsDir)
	require.NoError(t, os.MkdirAll(cfg.ScriptsDir, consts.ModeDir))

	fixture := &ProjectFixture{
		Dir:    dir,
		Config: cfg,
		t:      t,
	}

	require.NoError(t, fixture.writeConfig(), "Failed to write config")
	return fixture
}

// WithConnectionString sets the configured connection string
func (p *ProjectFixture) WithConnectionString(connStr string) *ProjectFixture {
	p.t.Helper()

	p.Config.ConnectionString = connStr
	require.NoError(p.t, p.writeConfig(), "Failed to write updated config")
	return p
}

// WithScripts adds script files to the project
func (p *ProjectFixture) WithScripts(scripts ...Script) *ProjectFixture {
	p.t.Helper()

	for _, s := range scripts {
		path := filepath.Join(p.Config.ScriptsDir, s.Name)
		require.NoError(p.t, os.MkdirAll(filepath.Dir(path), consts.ModeDir))
		require.NoError(p.t, os.WriteFile(path, []byte(s.SQL), consts.ModeFile), "Failed to write script: %s", s.Name)
	}

	return p
}

// GetConfigPath returns the path to the mysqlup.yaml file
func (p *ProjectFixture) GetConfigPath() string {
	return filepath.Join(p.Dir, consts.ConfigFile)
}

// writeConfig writes the configuration to mysqlup.yaml
func (p *ProjectFixture) writeConfig() error {
	file, err := os.Create(p.GetConfigPath())
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	defer encoder.Close()

	return encoder.Encode(p.Config)
}
