package upgrade

import (
	"github.com/pseudomuto/mysqlup/pkg/connstr"
	"github.com/pseudomuto/mysqlup/pkg/logging"
)

// MySQLDatabase creates a builder for the database named in connectionString.
//
// The first "database" segment (case insensitive) scopes the journal table
// lookup; the table itself stays unqualified. Without one the journal uses the
// connection's current database. Malformed connection strings are reported by
// the connection manager.
//
// Example:
//
//	builder, err := upgrade.MySQLDatabase("Server=db;Database=orders;Uid=u;Pwd=secret")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	engine, err := builder.
//		WithScriptsFromFS(os.DirFS("db/scripts")).
//		WithLogger(logging.NewSlog(nil)).
//		Build()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result := engine.PerformUpgrade(ctx)
func MySQLDatabase(connectionString string) (*Builder, error) {
	cm, err := NewMySQLConnectionManager(connectionString)
	if err != nil {
		return nil, err
	}

	database, _ := connstr.DatabaseName(connectionString)
	return mySQLDatabase(cm, nil, database), nil
}

// MySQLDatabaseWithSchema is MySQLDatabase with the journal table qualified by
// schema. An empty schema behaves like MySQLDatabase.
func MySQLDatabaseWithSchema(connectionString, schema string) (*Builder, error) {
	if schema == "" {
		return MySQLDatabase(connectionString)
	}

	cm, err := NewMySQLConnectionManager(connectionString)
	if err != nil {
		return nil, err
	}

	database, _ := connstr.DatabaseName(connectionString)
	return mySQLDatabase(cm, &schema, database), nil
}

// MySQLDatabaseWithManager creates a builder around an existing connection
// manager. schema may be nil.
func MySQLDatabaseWithManager(cm ConnectionManager, schema *string) *Builder {
	return mySQLDatabase(cm, schema, "")
}

func mySQLDatabase(cm ConnectionManager, schema *string, database string) *Builder {
	b := NewBuilder()

	b.Configure(func(c *Configuration) {
		c.ConnectionManager = cm
	})

	b.Configure(func(c *Configuration) {
		c.ScriptExecutor = NewMySQLScriptExecutor(ExecutorBindings{
			ConnectionManager: func() ConnectionManager { return c.ConnectionManager },
			Log:               func() logging.Logger { return c.Log },
			Schema:            func() *string { return nil },
			VariablesEnabled:  func() bool { return c.VariablesEnabled },
			Preprocessors:     func() []Preprocessor { return c.Preprocessors },
			Journal:           func() Journal { return c.Journal },
		})

		c.Journal = NewMySQLTableJournal(JournalBindings{
			ConnectionManager: func() ConnectionManager { return c.ConnectionManager },
			Log:               func() logging.Logger { return c.Log },
			Schema:            schema,
			Table:             DefaultJournalTable,
			Database:          database,
		})
	})

	b.Configure(func(c *Configuration) {
		c.Preprocessors = append(c.Preprocessors, MySQLPreprocessor{})
	})

	return b
}
