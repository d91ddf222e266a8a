package config

// GetAuthSkipperPaths returns a list of paths to skip authentication for
func GetAuthSkipperPaths() []string {
	if paths := GetEnvList("AUTH_SKIP_PATHS"); len(paths) > 0 {
		return paths
	}
	return []string{"/health", "/playground"}
}
