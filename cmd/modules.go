package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"emperror.dev/errors"
	"github.com/spf13/cobra"

	"modular.GO/config"
	moduleRepo "modular.GO/model/repository/module"
	moduleService "modular.GO/service/modules"
)

// newService opens the database, makes sure the registry tables exist and
// wires the module service. Tests replace it.
var newService = func() (*moduleService.Service, error) {
	config.LoadAppConfig()
	db, err := config.NewDB()
	if err != nil {
		return nil, errors.Wrap(err, "database connection failed")
	}
	if err := moduleRepo.NewModuleRepository(db).AutoMigrate(); err != nil {
		return nil, errors.Wrap(err, "could not create module registry tables")
	}
	return moduleService.New(db, moduleService.Options{}), nil
}

var installCmd = &cobra.Command{
	Use:   "install_module <identifier>",
	Short: "Install a discovered module",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Installing module '%s'...\n", args[0])
		res, err := svc.Lifecycle.Install(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printResult(out, res)
		return nil
	},
}

var uninstallForce bool

var uninstallCmd = &cobra.Command{
	Use:   "uninstall_module <identifier>",
	Short: "Uninstall a module (its data is kept)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Uninstalling module '%s'...\n", args[0])
		res, err := svc.Lifecycle.Uninstall(cmd.Context(), args[0], uninstallForce)
		if err != nil {
			return err
		}
		printResult(out, res)
		return nil
	},
}

var upgradeCmd = &cobra.Command{
	Use:   "upgrade_module <identifier>",
	Short: "Upgrade an installed module to the version its unit reports",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Upgrading module '%s'...\n", args[0])
		res, err := svc.Lifecycle.Upgrade(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printResult(out, res)
		return nil
	},
}

var discoverCmd = &cobra.Command{
	Use:   "modules:discover",
	Short: "Register modules that have no registry record yet",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		observed, created, err := svc.Discovery.Discover(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, id := range created {
			fmt.Fprintf(out, "Discovered module '%s'\n", id)
		}
		fmt.Fprintf(out, "%d module(s) observed, %d new module(s) discovered\n", len(observed), len(created))
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "modules:list",
	Short: "List known modules and their state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		recs, err := svc.Repo.FindAll()
		if err != nil {
			return err
		}
		enabled := map[string]bool{}
		if ids, err := svc.List.List(); err == nil {
			for _, id := range ids {
				enabled[id] = true
			}
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "IDENTIFIER\tNAME\tVERSION\tINSTALLED\tACTIVE\tENABLED")
		for _, r := range recs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%t\t%t\n", r.Identifier, r.Name, r.Version, r.Installed, r.Active, enabled[r.Identifier])
		}
		return w.Flush()
	},
}

func printResult(out io.Writer, res *moduleService.Result) {
	for _, m := range res.Messages {
		fmt.Fprintln(out, m)
	}
	if res.RestartRequired {
		fmt.Fprintln(out, "Restart the application for the route changes to take effect.")
	}
}

func init() {
	uninstallCmd.Flags().BoolVar(&uninstallForce, "force", false, "Clean the enablement list even when the module has no registry record")
	rootCmd.AddCommand(installCmd, uninstallCmd, upgradeCmd, discoverCmd, listCmd)
}
