package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Setenv("APP_LOG_DIR", "/var/log/myapp")

	raw := `
include:
  - $APP_LOG_DIR/*.log
exclude:
  - "**/archive/**"
ignoreCase: true
keywords:
  - ERROR
matchMode: ALL
timestamp:
  enabled: true
  regex: '(?P<ts>\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})'
  layout: "2006-01-02 15:04:05"
  assumeZone: local
output:
  format: jsonl
  path: hits.jsonl
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	assert.NoError(t, os.WriteFile(path, []byte(raw), 0644))

	cfg, err := Load(path)
	assert.NoError(t, err)

	assert.Equal(t, []string{"/var/log/myapp/*.log"}, cfg.Include)
	assert.Equal(t, []string{"**/archive/**"}, cfg.Exclude)
	assert.True(t, cfg.IgnoreCase)
	assert.Equal(t, "all", cfg.MatchMode)
	assert.Equal(t, "utf-8", cfg.Encoding)
	assert.True(t, cfg.Timestamp.Enabled)
	assert.Equal(t, "local", cfg.Timestamp.AssumeZone)
	assert.Equal(t, "jsonl", cfg.Output.Format)
}

func TestLoad_EmptyPathGivesDefaults(t *testing.T) {
	cfg, err := Load("")
	assert.NoError(t, err)
	assert.Equal(t, "utf-8", cfg.Encoding)
	assert.Equal(t, "any", cfg.MatchMode)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestConfig_Apply(t *testing.T) {
	cfg, err := Load("")
	assert.NoError(t, err)
	cfg.Keywords = []string{"ERROR"}
	cfg.Include = []string{"/var/log/*.log"}

	cfg.Apply(Overrides{
		Keywords:   []string{"WARN"},
		Include:    []string{"/tmp/*.log"},
		MatchMode:  "ALL",
		Format:     "csv",
		Output:     "out.csv",
		IgnoreCase: true,
		Follow:     true,
	})

	assert.Equal(t, []string{"ERROR", "WARN"}, cfg.Keywords)
	assert.Equal(t, []string{"/var/log/*.log", "/tmp/*.log"}, cfg.Include)
	assert.Equal(t, "all", cfg.MatchMode)
	assert.Equal(t, "csv", cfg.Output.Format)
	assert.Equal(t, "out.csv", cfg.Output.Path)
	assert.True(t, cfg.IgnoreCase)
	assert.True(t, cfg.Follow)
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{input: "2025-08-01", want: time.Date(2025, 8, 1, 0, 0, 0, 0, time.Local)},
		{input: "2025-08-01 13:30", want: time.Date(2025, 8, 1, 13, 30, 0, 0, time.Local)},
		{input: "2025-08-01 13:30:45", want: time.Date(2025, 8, 1, 13, 30, 45, 0, time.Local)},
		{input: "01.08.2025", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTime(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
		})
	}
}
