package doctor

import (
	"context"
	"fmt"
)

const ogCLIPlugin = "og-cli"

// OgCLIPlugin reports whether the og-cli config file could be loaded.
// loadErr is the error seen at startup, nil when the file was fine or absent.
func OgCLIPlugin(configPath string, loadErr error) Plugin {
	return Plugin{
		Name: ogCLIPlugin,
		Checks: []Check{
			func(context.Context) Report {
				if loadErr != nil {
					return Report{
						Plugin:      ogCLIPlugin,
						Message:     fmt.Sprintf("Config file could not be loaded, defaults are used: %v", loadErr),
						Remediation: WriteSampleConfig,
					}
				}
				msg := "Config file loaded"
				if configPath == "" {
					msg = "No config file found, defaults are used"
				}
				return Report{Plugin: ogCLIPlugin, Message: msg, OK: true}
			},
		},
	}
}
