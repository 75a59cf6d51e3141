package config

import (
	"os"

	"github.com/pseudomuto/mysqlup/pkg/consts"
	"go.uber.org/fx"
)

var Module = fx.Module("config", fx.Provide(
	// Loads mysqlup.yaml from the working directory when present. Commands can
	// run without one by passing everything as flags, so a missing file yields
	// the defaults.
	func() (*Config, error) {
		if _, err := os.Stat(consts.ConfigFile); os.IsNotExist(err) {
			return Default(), nil
		}

		return LoadConfigFile(consts.ConfigFile)
	},
))
