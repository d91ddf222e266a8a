package parts

import (
	_ "embed"
)

//go:embed assets/critical.css
var criticalCSS string

// CriticalCSS returns the inline stylesheet shared by the admin pages.
func CriticalCSS() string {
	return criticalCSS
}
