package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()
	envFile := writeFile(t, dir, ".env", "HOSTSQL_TEST_PETS_DB="+filepath.Join(dir, "pets.db")+"\n")
	path := writeFile(t, dir, "hostsql.toml", `
listen = ":9090"
wasm = "pets.wasm"
log_level = "debug"

[sqlite]
allowed_labels = ["default", "pets"]

[sqlite.databases]
default = "default.db"
pets = "${HOSTSQL_TEST_PETS_DB}"

[pg]
enabled = true
allowed_hosts = ["db.internal:5432"]
`)
	t.Cleanup(func() {
		os.Unsetenv("HOSTSQL_TEST_PETS_DB")
	})

	conf, err := FromFile(path, envFile)
	if err != nil {
		t.Fatalf("FromFile returned error: %v", err)
	}
	if conf.Listen != ":9090" || conf.Wasm != "pets.wasm" {
		t.Errorf("Unexpected config: %+v", conf)
	}
	if got := conf.SQLite.Databases["pets"]; got != filepath.Join(dir, "pets.db") {
		t.Errorf("Expected pets path from .env, got %q", got)
	}
	if !conf.Pg.Enabled || len(conf.Pg.AllowedHosts) != 1 {
		t.Errorf("Unexpected pg config: %+v", conf.Pg)
	}
	level, err := conf.SlogLevel()
	if err != nil || level != slog.LevelDebug {
		t.Errorf("Expected debug level, got %v, %v", level, err)
	}
	if err := conf.Validate(); err != nil {
		t.Errorf("Validate returned error: %v", err)
	}
}

func TestDefaults(t *testing.T) {
	conf, err := FromFile("", filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("FromFile returned error: %v", err)
	}
	if conf.Listen != DefaultListen || conf.LogLevel != DefaultLogLevel {
		t.Errorf("Unexpected defaults: %+v", conf)
	}
	if conf.SQLite.Databases["default"] != DefaultDatabase {
		t.Errorf("Expected default database, got %v", conf.SQLite.Databases)
	}
	if err := conf.Validate(); err == nil {
		t.Error("Expected Validate to require a component")
	}
}

func TestUnknownKeys(t *testing.T) {
	path := writeFile(t, t.TempDir(), "hostsql.toml", "listen = \":80\"\nlisten_port = 80\n")
	if _, err := FromFile(path, ""); err == nil {
		t.Error("Expected unknown key to be rejected")
	}
}

func TestValidate(t *testing.T) {
	conf := NewConfig()
	conf.Wasm = "pets.wasm"
	conf.SQLite.Databases = map[string]string{"default": "default.db"}
	conf.SQLite.AllowedLabels = []string{"pets"}
	if err := conf.Validate(); err == nil {
		t.Error("Expected allowed label without a database to be rejected")
	}

	conf.SQLite.AllowedLabels = nil
	conf.LogLevel = "loud"
	if err := conf.Validate(); err == nil {
		t.Error("Expected invalid log level to be rejected")
	}
}
