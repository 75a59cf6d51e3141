package upgrade

import (
	"github.com/pkg/errors"
	"github.com/pseudomuto/mysqlup/pkg/logging"
)

var (
	// ErrNoConnectionManager is returned when a component needs a connection
	// but the configuration holds no connection manager.
	ErrNoConnectionManager = errors.New("no connection manager configured")

	// ErrNoScriptExecutor is returned by Build when no script executor is set.
	ErrNoScriptExecutor = errors.New("no script executor configured")

	// ErrNoJournal is returned when no journal is set.
	ErrNoJournal = errors.New("no journal configured")
)

// Configuration holds everything that parameterizes an upgrade run.
//
// It is populated by the callbacks registered on a Builder and handed to the
// caller through Engine.Configuration. Components created by the builder hold
// accessors into this struct rather than copies of its fields, so replacing a
// field after they are created is visible to them.
type Configuration struct {
	ConnectionManager ConnectionManager
	Log               logging.Logger
	VariablesEnabled  bool
	Variables         map[string]string
	Preprocessors     []Preprocessor
	ScriptExecutor    ScriptExecutor
	Journal           Journal
	ScriptProviders   []ScriptProvider
}

func newConfiguration() *Configuration {
	return &Configuration{
		Log:              logging.NewSlog(nil),
		VariablesEnabled: true,
		Variables:        make(map[string]string),
	}
}

// Validate ensures the configuration can drive an upgrade.
func (c *Configuration) Validate() error {
	if c.ConnectionManager == nil {
		return ErrNoConnectionManager
	}

	if c.ScriptExecutor == nil {
		return ErrNoScriptExecutor
	}

	if c.Journal == nil {
		return ErrNoJournal
	}

	return nil
}
