package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Addr != "0.0.0.0:8080" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Download.Binary != "yt-dlp" {
		t.Errorf("Download.Binary = %q", cfg.Download.Binary)
	}
	if cfg.Download.MaxConcurrent != 3 {
		t.Errorf("Download.MaxConcurrent = %d", cfg.Download.MaxConcurrent)
	}
	if cfg.Download.TempDir == "" {
		t.Error("Download.TempDir is empty")
	}
	if cfg.Metadata.TimeoutSeconds != 60 {
		t.Errorf("Metadata.TimeoutSeconds = %d", cfg.Metadata.TimeoutSeconds)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("YTFETCH_SERVER_ADDR", "127.0.0.1:9090")
	t.Setenv("YTFETCH_DOWNLOAD_MAXCONCURRENT", "5")
	t.Setenv("YTFETCH_DOWNLOAD_BINARY", "/opt/tools/yt-dlp")
	t.Setenv("YTFETCH_DOWNLOAD_PROGRESSDELTA", "1.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Addr != "127.0.0.1:9090" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Download.MaxConcurrent != 5 {
		t.Errorf("Download.MaxConcurrent = %d", cfg.Download.MaxConcurrent)
	}
	if cfg.Download.Binary != "/opt/tools/yt-dlp" {
		t.Errorf("Download.Binary = %q", cfg.Download.Binary)
	}
	if cfg.Download.ProgressDelta != 1.5 {
		t.Errorf("Download.ProgressDelta = %v", cfg.Download.ProgressDelta)
	}
}
