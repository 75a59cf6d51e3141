// Package upgrade assembles and drives schema upgrades for MySQL databases.
//
// An upgrade is parameterized by a Configuration holding a connection manager,
// a script executor, a journal, preprocessors and script providers. A Builder
// populates the Configuration through an ordered list of callbacks and Build
// turns it into an Engine.
//
// # Deferred Binding
//
// The script executor needs the connection manager, logger, preprocessors and
// journal. The journal needs the connection manager and logger. Rather than
// copying those values when the components are created, the MySQL builders
// hand each component accessors that read from the Configuration when the
// component is used. The following therefore behaves identically no matter
// where the WithLogger/WithConnectionManager calls appear:
//
//	builder := upgrade.MySQLDatabaseWithManager(cm, nil).
//		WithLogger(log).
//		WithConnectionManager(other).
//		WithPreprocessor(myPreprocessor)
//
// # Journal
//
// Applied scripts are recorded in a table named schemaversions by default:
//
//	CREATE TABLE IF NOT EXISTS `schemaversions` (
//	    schemaversionsid INT NOT NULL AUTO_INCREMENT,
//	    scriptname VARCHAR(255) NOT NULL,
//	    applied TIMESTAMP NOT NULL,
//	    PRIMARY KEY (schemaversionsid)
//	)
//
// # Script Execution
//
// Scripts run in name order. Each script is preprocessed, has $name$ variables
// substituted and is split into commands honoring MySQL DELIMITER directives.
// Execution is not transactional and nothing is retried; the first failure
// stops the run and is reported in the Result.
package upgrade
