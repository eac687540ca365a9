package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath, "")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "wantsync.yaml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, env.configPath, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, env.configPath, ""); err == nil {
		t.Error("expected refusal to overwrite without --force")
	}

	out, _, err = runCLI(t, []string{"config", "validate"}, target, "")
	if err != nil {
		t.Fatalf("validating generated config: %v", err)
	}
	requireContains(t, out, "Delay:     5s")
}
