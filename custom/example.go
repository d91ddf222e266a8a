// Package custom shows the host's extension points: a GraphQL extension, a
// CLI command, a cron job and a root route, all reporting on the durable
// enablement list.
package custom

import (
	"context"
	"fmt"
	"strings"

	"github.com/apex/log"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"modular.GO/api"
	"modular.GO/cmd"
	"modular.GO/config"
	"modular.GO/cron"
	gqlregistry "modular.GO/graphql/registry"
	moduleService "modular.GO/service/modules"
)

// enabledModules reads the configured enablement list.
var enabledModules = func() ([]string, error) {
	config.LoadAppConfig()
	return moduleService.NewSettingsFile(config.AppConfig.SettingsFile, "").List()
}

func init() {
	gqlregistry.Register("modules.enabled", func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		ids, err := enabledModules()
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"enabled": ids, "total": len(ids)}, nil
	})

	cmd.Register(&cobra.Command{
		Use:   "modules:enabled",
		Short: "Print the durable enablement list",
		RunE: func(c *cobra.Command, args []string) error {
			ids, err := enabledModules()
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				fmt.Fprintln(c.OutOrStdout(), "No modules enabled.")
				return nil
			}
			fmt.Fprintln(c.OutOrStdout(), strings.Join(ids, "\n"))
			return nil
		},
	})

	cron.Register("modules:enabled-report", "@every 1h", func(args ...string) {
		ids, err := enabledModules()
		if err != nil {
			log.WithError(err).Warn("could not read enablement list")
			return
		}
		log.WithField("enabled", len(ids)).Info("enablement list report")
	})

	api.RegisterGET("/custom/ping", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"pong": "ok"})
	})
}
