package custom

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"modular.GO/cmd"
	"modular.GO/cron"
	gqlregistry "modular.GO/graphql/registry"
)

func stubEnabled(t *testing.T, ids ...string) {
	t.Helper()
	prev := enabledModules
	enabledModules = func() ([]string, error) { return ids, nil }
	t.Cleanup(func() { enabledModules = prev })
}

func TestGraphQLExtension(t *testing.T) {
	stubEnabled(t, "billing", "product")
	out, err := gqlregistry.Resolve(context.Background(), "modules.enabled", nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	m := out.(map[string]interface{})
	if m["total"] != 2 {
		t.Errorf("total = %v", m["total"])
	}
}

func TestCronJobRegistered(t *testing.T) {
	job, ok := cron.Jobs()["modules:enabled-report"]
	if !ok || job.Schedule != "@every 1h" {
		t.Fatalf("job not registered: %+v", job)
	}
	stubEnabled(t)
	job.Run()
}

func TestEnabledCommand(t *testing.T) {
	stubEnabled(t, "billing")
	c, ok := cmd.Lookup("modules:enabled")
	if !ok {
		t.Fatal("command not registered")
	}
	var buf bytes.Buffer
	c.SetOut(&buf)
	if err := c.RunE(c, nil); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "billing" {
		t.Errorf("output %q", buf.String())
	}
}
