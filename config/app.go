package config

import (
	"os"
	"sync"
	"time"
)

// AppConfig holds global application configuration
var AppConfig *Config
var once sync.Once

type Config struct {
	AppName string
	Port    string
	Env     string
	Debug   bool

	// SettingsFile is the YAML artifact carrying the durable enablement list.
	SettingsFile string
	// ReadOnly selects the read-only environment adapter (immutable deploy targets).
	ReadOnly bool
	// Units restricts discovery to these unit identifiers; empty means all registered units.
	Units []string
	// MigrationTimeout bounds one schema migration call.
	MigrationTimeout time.Duration
	// DiscoverySchedule is the cron spec for periodic discovery.
	DiscoverySchedule string
}

// LoadAppConfig initializes the global AppConfig variable
func LoadAppConfig() {
	once.Do(func() {
		AppConfig = &Config{
			AppName:           GetEnv("APP_NAME", "modular.GO"),
			Port:              GetEnv("PORT", "8080"),
			Env:               os.Getenv("APP_ENV"),
			Debug:             GetEnvBool("DEBUG", false),
			SettingsFile:      GetEnv("MODULE_SETTINGS_FILE", "modules.yaml"),
			ReadOnly:          GetEnvBool("MODULE_READONLY", false) || os.Getenv("VERCEL") != "",
			Units:             GetEnvList("MODULE_UNITS"),
			MigrationTimeout:  GetEnvDuration("MODULE_MIGRATION_TIMEOUT", 2*time.Minute),
			DiscoverySchedule: GetEnv("MODULE_DISCOVERY_CRON", "@every 5m"),
		}
	})
}

// ResetForTesting clears the loaded config so tests can reload from env.
func ResetForTesting() {
	once = sync.Once{}
	AppConfig = nil
}
