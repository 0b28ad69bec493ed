package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `exclude:
  - "*.tmp"
  - "*.log"
  - ".git/"
  - "node_modules/"
output_file: "output/custom-snapshot.json"
format: "binary"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	expectedExclude := []string{"*.tmp", "*.log", ".git/", "node_modules/"}
	if len(cfg.Exclude) != len(expectedExclude) {
		t.Errorf("Expected %d exclude patterns, got %d", len(expectedExclude), len(cfg.Exclude))
	}
	for i, expected := range expectedExclude {
		if cfg.Exclude[i] != expected {
			t.Errorf("Exclude[%d]: expected %q, got %q", i, expected, cfg.Exclude[i])
		}
	}

	if cfg.OutputFile != "output/custom-snapshot.json" {
		t.Errorf("Expected output_file %q, got %q", "output/custom-snapshot.json", cfg.OutputFile)
	}
	if cfg.Format != FormatBinary {
		t.Errorf("Expected format %q, got %q", FormatBinary, cfg.Format)
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	cfg, err := Load("/nonexistent/config.yaml")
	if err != nil {
		t.Fatalf("Load should return default config for nonexistent file, got error: %v", err)
	}

	if len(cfg.Exclude) == 0 {
		t.Error("Default config should have some exclude patterns")
	}
	if cfg.OutputFile != "" {
		t.Errorf("Default output file should be empty, got %q", cfg.OutputFile)
	}
	if cfg.Format != FormatJSON {
		t.Errorf("Default format should be %q, got %q", FormatJSON, cfg.Format)
	}
}

func TestLoad_EmptyConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(""), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Exclude == nil {
		t.Error("Exclude should be initialized for empty configs")
	}
	if cfg.Format != FormatJSON {
		t.Errorf("Empty config should default to %q, got %q", FormatJSON, cfg.Format)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("exclude: [unclosed"), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("Load should return error for invalid YAML")
	}
}

func TestLoad_UnknownFormat(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(`format: "xml"`), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("Load should reject unknown formats")
	}
}
