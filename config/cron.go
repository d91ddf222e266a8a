package config

// CronJob is a statically configured job; schedules can be overridden from env.
type CronJob struct {
	Schedule string
	Job      func(...string)
}

// CronJobs holds jobs wired at startup (see cmd/cron.go); custom packages use cron.Register.
var CronJobs = map[string]CronJob{}
