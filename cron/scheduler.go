package cron

import (
	"emperror.dev/errors"
	"github.com/apex/log"
	"github.com/robfig/cron/v3"

	"modular.GO/config"
)

// StartCron schedules config.CronJobs and every registered job, then starts the scheduler.
func StartCron() (*cron.Cron, error) {
	c := cron.New()
	add := func(name, schedule string, run func(...string)) error {
		l := log.WithField("job", name).WithField("schedule", schedule)
		_, err := c.AddFunc(schedule, func() {
			l.Debug("cron job started")
			run()
		})
		if err != nil {
			return errors.Wrapf(err, "register job %s", name)
		}
		l.Info("cron job scheduled")
		return nil
	}
	for name, j := range config.CronJobs {
		if err := add(name, j.Schedule, j.Job); err != nil {
			return nil, err
		}
	}
	for name, j := range Jobs() {
		if err := add(name, j.Schedule, j.Run); err != nil {
			return nil, err
		}
	}
	c.Start()
	return c, nil
}

// Lookup finds a job by name in config.CronJobs, then in the registry.
func Lookup(name string) (func(...string), bool) {
	if j, ok := config.CronJobs[name]; ok {
		return j.Job, true
	}
	if j, ok := Jobs()[name]; ok {
		return j.Run, true
	}
	return nil, false
}
