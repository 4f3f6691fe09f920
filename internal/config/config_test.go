package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/petrarca/auto-ci/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettings(t *testing.T) {
	settings := DefaultSettings()

	assert.Equal(t, "text", settings.Format)
	assert.Equal(t, "github", settings.CI)
	assert.True(t, settings.Optimize)
	assert.Empty(t, settings.ExcludePatterns)
	assert.Equal(t, slog.LevelError, settings.LogLevel, "only errors by default")
	assert.Equal(t, "text", settings.LogFormat)
	assert.NoError(t, settings.Validate())
}

func TestLoadSettings_WithEnvironmentVariables(t *testing.T) {
	t.Setenv("AUTO_CI_CI", "GitLab")
	t.Setenv("AUTO_CI_EXCLUDE", "vendor, node_modules,,build")
	t.Setenv("AUTO_CI_MAX_CONTENT_BYTES", "2048")
	t.Setenv("AUTO_CI_GITIGNORE", "true")
	t.Setenv("AUTO_CI_LOG_LEVEL", "debug")
	t.Setenv("AUTO_CI_LOG_FORMAT", "json")
	t.Setenv("AUTO_CI_LOG_FILE", "/tmp/auto-ci.log")
	t.Setenv("AUTO_CI_VERBOSE", "TRUE")
	t.Setenv("AUTO_CI_DEBUG", "false")

	settings := LoadSettings()

	assert.Equal(t, "gitlab", settings.CI)
	assert.Equal(t, []string{"vendor", "node_modules", "build"}, settings.ExcludePatterns)
	assert.Equal(t, int64(2048), settings.MaxContentBytes)
	assert.True(t, settings.Gitignore)
	assert.Equal(t, slog.LevelDebug, settings.LogLevel)
	assert.Equal(t, "json", settings.LogFormat)
	assert.Equal(t, "/tmp/auto-ci.log", settings.LogFile)
	assert.True(t, settings.Verbose)
	assert.False(t, settings.Debug)
}

func TestLoadSettings_InvalidValues(t *testing.T) {
	t.Setenv("AUTO_CI_LOG_LEVEL", "invalid")
	t.Setenv("AUTO_CI_MAX_CONTENT_BYTES", "-5")

	settings := LoadSettings()
	assert.Equal(t, slog.LevelError, settings.LogLevel, "invalid level keeps the default")
	assert.Equal(t, int64(0), settings.MaxContentBytes)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
		wantErr  bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLogLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestConfigureLogger(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "auto-ci.log")
	settings := &Settings{LogLevel: slog.LevelInfo, LogFormat: "json", LogFile: logFile}

	logger := settings.ConfigureLogger()
	require.NotNil(t, logger)
	logger.Info("hello", "key", "value")

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"hello"`)
	assert.Contains(t, string(content), `"key":"value"`)

	assert.False(t, logger.Enabled(t.Context(), slog.LevelDebug))
}

func TestSettings_Validate(t *testing.T) {
	settings := DefaultSettings()
	settings.Format = "xml"
	assert.Error(t, settings.Validate())

	settings = DefaultSettings()
	settings.LogFormat = "logfmt"
	assert.Error(t, settings.Validate())

	settings = DefaultSettings()
	settings.MaxContentBytes = -1
	assert.Error(t, settings.Validate())
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		wantErr bool
	}{
		{"valid text", "text", false},
		{"valid json", "json", false},
		{"valid yaml", "yaml", false},
		{"valid uppercase", "JSON", false},
		{"valid mixed case", "Yaml", false},
		{"invalid format", "xml", true},
		{"empty format", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFormat(tt.format)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
	assert.Equal(t, "json", NormalizeFormat(" JSON "))
}

func TestLoadProjectConfig(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		config, err := LoadProjectConfig(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, &ProjectConfig{}, config)
	})

	t.Run("valid file", func(t *testing.T) {
		dir := t.TempDir()
		content := `ci: gitlab
exclude:
  - vendor
  - "**/testdata/**"
max_content_bytes: 4096
optimize: false
output: report.json
gitignore: true
properties:
  team: platform
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectConfigFile), []byte(content), 0644))

		config, err := LoadProjectConfig(dir)
		require.NoError(t, err)
		assert.Equal(t, "gitlab", config.CI)
		assert.Equal(t, []string{"vendor", "**/testdata/**"}, config.Exclude)
		assert.Equal(t, int64(4096), config.MaxContentBytes)
		require.NotNil(t, config.Optimize)
		assert.False(t, *config.Optimize)
		assert.Equal(t, "report.json", config.Output)
		assert.True(t, config.Gitignore)
		assert.Equal(t, "platform", config.Properties["team"])
	})

	t.Run("schema violation", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectConfigFile), []byte("ci: jenkins\n"), 0644))

		_, err := LoadProjectConfig(dir)
		require.Error(t, err)
		var validationErr validation.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectConfigFile), []byte("ci: [unclosed\n"), 0644))

		_, err := LoadProjectConfig(dir)
		assert.Error(t, err)
	})
}

func TestProjectConfig_MergeWithSettings(t *testing.T) {
	optimize := false
	config := &ProjectConfig{
		CI:              "circleci",
		Exclude:         []string{"vendor", "dist"},
		MaxContentBytes: 100,
		Optimize:        &optimize,
		Output:          "out.yaml",
	}

	t.Run("fills unset values", func(t *testing.T) {
		settings := DefaultSettings()
		settings.ExcludePatterns = []string{"dist", "tmp"}
		config.MergeWithSettings(settings, nil)

		assert.Equal(t, "circleci", settings.CI)
		assert.Equal(t, int64(100), settings.MaxContentBytes)
		assert.False(t, settings.Optimize)
		assert.Equal(t, "out.yaml", settings.OutputFile)
		assert.Equal(t, []string{"vendor", "dist", "tmp"}, settings.ExcludePatterns)
	})

	t.Run("flags win", func(t *testing.T) {
		settings := DefaultSettings()
		settings.CI = "gitlab"
		config.MergeWithSettings(settings, func(flag string) bool { return flag == "ci" || flag == "no-optimize" })

		assert.Equal(t, "gitlab", settings.CI)
		assert.True(t, settings.Optimize)
		assert.Equal(t, int64(100), settings.MaxContentBytes)
	})

	t.Run("nil config", func(t *testing.T) {
		var empty *ProjectConfig
		assert.Equal(t, []string{"a"}, empty.MergeExcludes([]string{"a"}))
		settings := DefaultSettings()
		empty.MergeWithSettings(settings, nil)
		assert.Equal(t, DefaultSettings(), settings)
	})
}
