package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"emperror.dev/errors"
	"github.com/apex/log"
	"github.com/spf13/cobra"

	"modular.GO/config"
	"modular.GO/cron"
)

var jobName string

// discoveryJob runs module discovery on a schedule.
func discoveryJob(...string) {
	svc, err := newService()
	if err != nil {
		log.WithError(err).Error("discovery job could not start")
		return
	}
	observed, created, err := svc.Discovery.Discover(context.Background())
	if err != nil {
		log.WithError(err).Error("discovery job failed")
		return
	}
	log.WithField("observed", len(observed)).WithField("discovered", len(created)).Info("discovery job finished")
}

var cronStartCmd = &cobra.Command{
	Use:   "cron:start",
	Short: "Start the cron scheduler or run a single job by name",
	RunE: func(cmd *cobra.Command, args []string) error {
		config.LoadAppConfig()
		config.CronJobs["modules:discover"] = config.CronJob{
			Schedule: config.AppConfig.DiscoverySchedule,
			Job:      discoveryJob,
		}

		out := cmd.OutOrStdout()
		if jobName != "" {
			run, ok := cron.Lookup(strings.ToLower(jobName))
			if !ok {
				return errors.Errorf("unknown job: %s", jobName)
			}
			fmt.Fprintf(out, "Running cron job: %s\n", jobName)
			run(args...)
			return nil
		}

		fmt.Fprintln(out, "Starting cron scheduler...")
		c, err := cron.StartCron()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "Cron scheduler started. Press Ctrl+C to exit.")
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()
		<-c.Stop().Done()
		return nil
	},
}

func init() {
	cronStartCmd.Flags().StringVarP(&jobName, "job", "j", "", "Run a single cron job by name and exit")
	rootCmd.AddCommand(cronStartCmd)
}
