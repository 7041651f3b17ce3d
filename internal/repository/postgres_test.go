package repository

import "testing"

func TestConfigDSN(t *testing.T) {
	cfg := Config{Host: "db", Port: "5433", Username: "chat", Password: "secret", DBName: "matchchat", SSLMode: "disable"}

	want := "host=db port=5433 user=chat dbname=matchchat password=secret sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
	if !cfg.Enabled() {
		t.Error("config with a host should be enabled")
	}
	if (Config{}).Enabled() {
		t.Error("empty config should be disabled")
	}
}

func TestDatasetKey(t *testing.T) {
	if got := datasetKey(3869685); got != "matchchat:events:3869685" {
		t.Errorf("datasetKey = %q", got)
	}
}
