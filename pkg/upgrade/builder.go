package upgrade

import (
	"io/fs"
	"maps"

	"github.com/pseudomuto/mysqlup/pkg/logging"
)

// Builder assembles a Configuration from an ordered list of callbacks.
//
// Nothing is applied until Build is called. Callbacks run in registration
// order against a single Configuration, so later callbacks override earlier
// ones. Components that depend on each other (the script executor and the
// journal) are registered with accessors into the Configuration and therefore
// see its final state regardless of the order setters were called in.
type Builder struct {
	callbacks []func(*Configuration)
}

// NewBuilder returns an empty builder. Most callers want one of the
// MySQLDatabase constructors instead.
func NewBuilder() *Builder {
	return &Builder{}
}

// Configure registers a callback that mutates the configuration.
func (b *Builder) Configure(fn func(*Configuration)) *Builder {
	b.callbacks = append(b.callbacks, fn)
	return b
}

// WithConnectionManager replaces the connection manager.
func (b *Builder) WithConnectionManager(cm ConnectionManager) *Builder {
	return b.Configure(func(c *Configuration) {
		c.ConnectionManager = cm
	})
}

// WithLogger sets the logger used by every component.
func (b *Builder) WithLogger(log logging.Logger) *Builder {
	return b.Configure(func(c *Configuration) {
		c.Log = log
	})
}

// WithPreprocessor appends a preprocessor.
func (b *Builder) WithPreprocessor(p Preprocessor) *Builder {
	return b.Configure(func(c *Configuration) {
		c.Preprocessors = append(c.Preprocessors, p)
	})
}

// WithVariable defines a $name$ substitution.
func (b *Builder) WithVariable(name, value string) *Builder {
	return b.Configure(func(c *Configuration) {
		c.Variables[name] = value
	})
}

// WithVariables defines several $name$ substitutions.
func (b *Builder) WithVariables(variables map[string]string) *Builder {
	return b.Configure(func(c *Configuration) {
		maps.Copy(c.Variables, variables)
	})
}

// WithVariablesDisabled turns off $name$ substitution.
func (b *Builder) WithVariablesDisabled() *Builder {
	return b.Configure(func(c *Configuration) {
		c.VariablesEnabled = false
	})
}

// WithVariablesEnabled turns on $name$ substitution (the default).
func (b *Builder) WithVariablesEnabled() *Builder {
	return b.Configure(func(c *Configuration) {
		c.VariablesEnabled = true
	})
}

// WithScripts adds a script provider.
func (b *Builder) WithScripts(p ScriptProvider) *Builder {
	return b.Configure(func(c *Configuration) {
		c.ScriptProviders = append(c.ScriptProviders, p)
	})
}

// WithScriptsFromFS adds every .sql file in fsys.
func (b *Builder) WithScriptsFromFS(fsys fs.FS) *Builder {
	return b.WithScripts(FileSystemScripts(fsys))
}

// JournalTo replaces the journal.
func (b *Builder) JournalTo(j Journal) *Builder {
	return b.Configure(func(c *Configuration) {
		c.Journal = j
	})
}

// JournalToMySQLTable records applied scripts in schema.table. A nil schema
// leaves the table unqualified and scopes the existence probe to the database
// named in the connection string, when there is one.
func (b *Builder) JournalToMySQLTable(schema *string, table string) *Builder {
	return b.Configure(func(c *Configuration) {
		var database string
		if m, ok := c.ConnectionManager.(*MySQLConnectionManager); ok && m.Descriptor() != nil {
			database = m.Descriptor().Database()
		}

		c.Journal = NewMySQLTableJournal(JournalBindings{
			ConnectionManager: func() ConnectionManager { return c.ConnectionManager },
			Log:               func() logging.Logger { return c.Log },
			Schema:            schema,
			Table:             table,
			Database:          database,
		})
	})
}

// Build applies every callback and returns the engine.
func (b *Builder) Build() (*Engine, error) {
	cfg := newConfiguration()
	for _, fn := range b.callbacks {
		fn(cfg)
	}

	if cfg.Log == nil {
		cfg.Log = logging.Discard
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Engine{cfg: cfg}, nil
}
