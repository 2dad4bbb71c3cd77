package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestLoadConfigAppliesExamDefaults(t *testing.T) {
	dir := writeConfig(t, `
server:
  port: "9090"
  mode: debug
database:
  host: localhost
  port: 3306
jwt:
  secret: dev-secret
`)

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("port = %q", cfg.Server.Port)
	}
	want := DefaultExamConfig()
	if cfg.Exam != want {
		t.Errorf("exam config = %+v, want defaults %+v", cfg.Exam, want)
	}
	if cfg.Database.Charset != "utf8mb4" {
		t.Errorf("charset default not applied: %q", cfg.Database.Charset)
	}
}

func TestLoadConfigReadsExamSection(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: debug
exam:
  start_lock_ttl: 10s
  start_retries: 5
  expiry_grace: 5m
  expiry_sweep_cron: "*/5 * * * *"
  expiry_sweep_batch: 50
  reject_unknown_answers: true
`)

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Exam.StartLockTTL != 10*time.Second {
		t.Errorf("start_lock_ttl = %v", cfg.Exam.StartLockTTL)
	}
	if cfg.Exam.StartRetries != 5 || cfg.Exam.ExpirySweepBatch != 50 {
		t.Errorf("unexpected exam config %+v", cfg.Exam)
	}
	if cfg.Exam.ExpiryGrace != 5*time.Minute {
		t.Errorf("expiry_grace = %v", cfg.Exam.ExpiryGrace)
	}
	if !cfg.Exam.RejectUnknownAnswers {
		t.Error("reject_unknown_answers not read")
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: debug
database:
  host: localhost
`)
	t.Setenv("DATABASE_HOST", "db.internal")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("database host = %q, want env override", cfg.Database.Host)
	}
}

func TestLoadConfigRejectsWeakSecretInRelease(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: release
jwt:
  secret: short
`)
	if _, err := LoadConfig(dir); err == nil {
		t.Fatal("expected error for short JWT secret in release mode")
	}
}

func TestExamConfigValidate(t *testing.T) {
	cfg := DefaultExamConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should be valid: %v", err)
	}

	bad := cfg
	bad.ExpirySweepCron = "every minute please"
	if err := bad.Validate(); err == nil {
		t.Error("invalid cron expression accepted")
	}

	bad = cfg
	bad.ExpirySweepBatch = 0
	if err := bad.Validate(); err == nil {
		t.Error("zero sweep batch accepted")
	}
}
