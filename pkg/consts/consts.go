package consts

import "os"

const (
	// ModeDir is the standard file mode for creating directories
	ModeDir = os.FileMode(0o755)

	// ModeFile is the standard file mode for creating files
	ModeFile = os.FileMode(0o644)

	// ConfigFile is the project configuration file looked up in the working directory
	ConfigFile = "mysqlup.yaml"

	// ConnectionEnvVar overrides the configured connection string
	ConnectionEnvVar = "MYSQLUP_CONNECTION"

	// DefaultScriptsDir is where upgrade scripts live unless configured otherwise
	DefaultScriptsDir = "db/scripts"

	// DefaultJournalTable is the table applied scripts are recorded in
	DefaultJournalTable = "schemaversions"

	// DefaultMySQLVersion is the image tag used for development and test containers
	DefaultMySQLVersion = "8.4"

	// DefaultDevDatabase is the database created in development containers
	DefaultDevDatabase = "app"

	// DefaultDevPassword is the root password of development containers
	DefaultDevPassword = "mysqlup"

	// DefaultDevPort is the host port development containers are published on
	DefaultDevPort = 3306

	// DevContainerName names the long-lived development container
	DevContainerName = "mysqlup-dev"
)
