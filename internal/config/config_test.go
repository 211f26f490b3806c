package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("ES_HOSTS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "3000" {
		t.Errorf("Expected default port 3000, got %s", cfg.Port)
	}
	if len(cfg.Elastic.Hosts) != 1 || cfg.Elastic.Hosts[0] != "http://localhost:9200" {
		t.Errorf("Unexpected default hosts: %v", cfg.Elastic.Hosts)
	}
	if cfg.Elastic.DefaultIndex != "designsafe" {
		t.Errorf("Unexpected default index: %s", cfg.Elastic.DefaultIndex)
	}
}

func TestLoadYAMLOverlayAndEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	yamlDoc := `elastic_search:
  hosts: ["http://es1:9200", "http://es2:9200"]
  default_index: files
  sniff_on_start: true
  sniffer_timeout: 30s
`
	if err := os.WriteFile(file, []byte(yamlDoc), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ENV_FILE", filepath.Join(dir, "missing.env"))
	t.Setenv("CONFIG_FILE", file)
	t.Setenv("ES_HOSTS", "")
	t.Setenv("ES_DEFAULT_INDEX", "override")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Elastic.Hosts) != 2 {
		t.Errorf("Expected hosts from YAML, got %v", cfg.Elastic.Hosts)
	}
	if cfg.Elastic.DefaultIndex != "override" {
		t.Errorf("Expected env to win over YAML, got %s", cfg.Elastic.DefaultIndex)
	}
	if !cfg.Elastic.SniffOnStart || cfg.Elastic.SniffInterval != 30*time.Second {
		t.Errorf("Unexpected sniff settings: %+v", cfg.Elastic)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	if err := os.WriteFile(envFile, []byte("ES_HOSTS=http://a:9200, http://b:9200\nBOX_CLIENT_ID=id\nBOX_CLIENT_SECRET=secret\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ENV_FILE", envFile)
	// godotenv never overrides variables that are already set; make sure these are not.
	for _, key := range []string{"ES_HOSTS", "BOX_CLIENT_ID", "BOX_CLIENT_SECRET"} {
		key := key
		prev, had := os.LookupEnv(key)
		os.Unsetenv(key)
		t.Cleanup(func() {
			if had {
				os.Setenv(key, prev)
			} else {
				os.Unsetenv(key)
			}
		})
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Elastic.Hosts) != 2 || cfg.Elastic.Hosts[1] != "http://b:9200" {
		t.Errorf("Unexpected hosts: %v", cfg.Elastic.Hosts)
	}
	if !cfg.BoxEnabled() {
		t.Error("Expected Box to be enabled")
	}
}

func TestValidateServer(t *testing.T) {
	cfg := &Config{DBType: "sqlite", DBDatabase: "test.db", AuthzURL: "http://authz", AuthzClientID: "id"}
	if err := cfg.ValidateServer(); err == nil {
		t.Error("Expected missing AGAVE_TENANT_BASEURL to fail")
	}
	cfg.AgaveBaseURL = "https://agave.example.org"
	if err := cfg.ValidateServer(); err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}
	cfg.DBType = "mysql"
	if err := cfg.ValidateServer(); err == nil {
		t.Error("Expected missing DB_USER to fail for mysql")
	}
}
