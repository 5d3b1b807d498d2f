package main

import (
	"bytes"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/a3tai/mcp-pdf-action-inspector/internal/config"
)

const testVersion = "1.2.3"

func TestPrintVersion(t *testing.T) {
	oldVersion, oldBuildTime, oldGitCommit := version, buildTime, gitCommit
	defer func() {
		version, buildTime, gitCommit = oldVersion, oldBuildTime, oldGitCommit
	}()

	version = testVersion
	buildTime = "2023-12-01_10:30:00"
	gitCommit = "abc123"

	var buf bytes.Buffer
	printVersion(&buf)
	output := buf.String()

	for _, want := range []string{
		"MCP PDF Action Inspector",
		"Version: " + testVersion,
		"Build Time: 2023-12-01_10:30:00",
		"Git Commit: abc123",
		"Built with: go",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("printVersion() output missing %q, got:\n%s", want, output)
		}
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		logLevel string
		want     logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"info", logrus.InfoLevel},
		{"warn", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"bogus", logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.logLevel, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(&config.Config{LogLevel: tt.logLevel}, &buf)
			if logger.GetLevel() != tt.want {
				t.Errorf("level = %v, want %v", logger.GetLevel(), tt.want)
			}

			logger.Error("visible")
			if !strings.Contains(buf.String(), "visible") {
				t.Errorf("logger did not write to the given output: %q", buf.String())
			}
		})
	}
}

func TestRun_InvalidDirectory(t *testing.T) {
	logger, _ := test.NewNullLogger()
	cfg := config.DefaultConfig()
	cfg.PDFDirectory = ""

	err := run(context.Background(), cfg, logger)
	if err == nil || !strings.Contains(err.Error(), "failed to create PDF service") {
		t.Errorf("run() error = %v, want service creation error", err)
	}
}

func TestRun_ServerModeStopsOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()

	logger, hook := test.NewNullLogger()
	cfg := config.DefaultConfig()
	cfg.Mode = config.ModeServer
	cfg.Port = port
	cfg.PDFDirectory = t.TempDir()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		t.Fatalf("run() unexpected error: %v", err)
	}

	for _, entry := range hook.AllEntries() {
		if entry.Level <= logrus.ErrorLevel {
			t.Errorf("unexpected error log: %s", entry.Message)
		}
	}
}
