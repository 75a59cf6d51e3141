// Package cmd provides CLI commands for the mysqlup tool.
//
// # Available Commands
//
//   - plan: Print the assembled upgrade configuration with the password masked
//   - status: Show applied and pending scripts
//   - upgrade: Apply pending scripts
//   - drop: Drop the target database if it exists
//   - dev up / dev down / dev status: Manage a local MySQL server in Docker
//
// # Command Structure
//
// Each command is implemented as a separate function that returns a
// *cli.Command, following the urfave/cli/v3 pattern. Commands are provided to
// the root command through the fx "commands" group (see Module).
//
// # Connection Strings
//
// Connection strings are semicolon delimited key=value pairs:
//
//	Server=db;Port=3306;Database=orders;Uid=deploy;Pwd=secret
//
// They are resolved from the --connection flag, then the MYSQLUP_CONNECTION
// environment variable, then connection_string in mysqlup.yaml.
//
// # Example Usage
//
//	mysqlup plan                          # Show what upgrade would use
//	mysqlup status --verbose              # List applied and pending scripts
//	mysqlup upgrade                       # Apply pending scripts
//	mysqlup drop --timeout 30s            # Drop the target database
//	mysqlup dev up                        # Start a dev server and apply scripts
package cmd
