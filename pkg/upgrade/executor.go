package upgrade

import (
	"context"
	"maps"

	"github.com/pkg/errors"
	"github.com/pseudomuto/mysqlup/pkg/logging"
	"github.com/pseudomuto/mysqlup/pkg/utils"
)

type (
	// ScriptExecutor runs a single script and records it in the journal.
	ScriptExecutor interface {
		Execute(ctx context.Context, script Script, variables map[string]string) error
	}

	// ExecutorBindings are the inputs to NewMySQLScriptExecutor. Every field is
	// an accessor so the executor can be created before the configuration it
	// reads from is complete. Accessors are resolved on each Execute call.
	ExecutorBindings struct {
		ConnectionManager func() ConnectionManager
		Log               func() logging.Logger

		// Schema is kept for parity with other engines' executors. When it
		// resolves to a non-empty value it is exposed to scripts as $schema$.
		// The MySQL builders always bind it to nil.
		Schema func() *string

		VariablesEnabled func() bool
		Preprocessors    func() []Preprocessor
		Journal          func() Journal
	}

	// MySQLScriptExecutor executes scripts against MySQL.
	//
	// Each script is passed through the configured preprocessors in order, has
	// its $variables$ substituted (when enabled), is split into commands on the
	// current delimiter and executed command by command. Once every command has
	// succeeded the script is recorded in the journal.
	MySQLScriptExecutor struct {
		b ExecutorBindings
	}
)

// NewMySQLScriptExecutor creates an executor from the given bindings.
func NewMySQLScriptExecutor(b ExecutorBindings) *MySQLScriptExecutor {
	return &MySQLScriptExecutor{b: b}
}

// Execute implements ScriptExecutor.
func (e *MySQLScriptExecutor) Execute(ctx context.Context, script Script, variables map[string]string) error {
	log := e.logger()

	contents, err := e.prepare(script, variables)
	if err != nil {
		return errors.Wrapf(err, "failed to prepare script %s", script.Name)
	}

	cm := e.b.ConnectionManager()
	if cm == nil {
		return ErrNoConnectionManager
	}

	db, err := cm.DB(ctx)
	if err != nil {
		return err
	}

	log.Infof("Executing script %s", script.Name)

	commands := SplitCommands(contents)
	for i, command := range commands {
		if _, err := db.ExecContext(ctx, command); err != nil {
			log.Errorf("Script %s failed at command %d of %d: %v", script.Name, i+1, len(commands), err)
			return errors.Wrapf(err, "failed to execute command %d of script %s", i+1, script.Name)
		}
	}

	journal := e.b.Journal()
	if journal == nil {
		return ErrNoJournal
	}

	return journal.StoreExecutedScript(ctx, script)
}

// prepare applies preprocessors and variable substitution.
func (e *MySQLScriptExecutor) prepare(script Script, variables map[string]string) (string, error) {
	contents := script.Contents
	for _, p := range e.b.Preprocessors() {
		contents = p.Process(contents)
	}

	if !e.b.VariablesEnabled() {
		return contents, nil
	}

	vars := make(map[string]string, len(variables)+1)
	maps.Copy(vars, variables)

	if e.b.Schema != nil {
		if schema := e.b.Schema(); schema != nil && *schema != "" {
			if _, ok := vars["schema"]; !ok {
				vars["schema"] = utils.QuoteIdentifier(*schema)
			}
		}
	}

	return SubstituteVariables(contents, vars)
}

func (e *MySQLScriptExecutor) logger() logging.Logger {
	if log := e.b.Log(); log != nil {
		return log
	}

	return logging.Discard
}
