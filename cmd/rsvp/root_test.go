package main

import (
	"bytes"
	"testing"

	"github.com/example/go-rsvp/internal/config"
)

func TestNewRootCmd_HasExpectedSubcommands(t *testing.T) {
	root := NewRootCmd()

	want := []string{"tokenize", "read", "serve", "health", "bench", "doctor"}
	for _, name := range want {
		found := false

		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}

		if !found {
			t.Errorf("expected subcommand %q not found in root", name)
		}
	}
}

func TestNewRootCmd_HasPersistentConfigFlag(t *testing.T) {
	root := NewRootCmd()
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("expected --config persistent flag to be registered")
	}

	if root.PersistentFlags().Lookup("wpm") == nil {
		t.Error("expected --wpm persistent flag to be registered")
	}
}

func TestSetupLogger_DoesNotPanic(_ *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		setupLogger(level)
	}
}

func TestSetupLogger_InvalidLevelFallsBackToInfo(_ *testing.T) {
	// Should not panic on invalid level.
	setupLogger("not-a-level")
}

func TestRequireConfig_FailsWhenNotInitialized(t *testing.T) {
	orig := activeCfg

	t.Cleanup(func() { activeCfg = orig })

	activeCfg = config.Config{}

	_, err := requireConfig()
	if err == nil {
		t.Fatal("expected error when config is not loaded")
	}
}

func TestRequireConfig_SucceedsWhenLoaded(t *testing.T) {
	orig := activeCfg

	t.Cleanup(func() { activeCfg = orig })

	activeCfg = config.DefaultConfig()

	got, err := requireConfig()
	if err != nil {
		t.Fatalf("requireConfig returned unexpected error: %v", err)
	}

	if got.Reader.WPM != 450 {
		t.Errorf("unexpected WPM: %v", got.Reader.WPM)
	}
}

func TestRequireConfig_RejectsInvalidLimits(t *testing.T) {
	orig := activeCfg

	t.Cleanup(func() { activeCfg = orig })

	activeCfg = config.DefaultConfig()
	activeCfg.Reader.MinWPM = 0

	if _, err := requireConfig(); err == nil {
		t.Fatal("expected error for zero minimum rate")
	}

	if _, err := loadedConfig(); err != nil {
		t.Fatalf("loadedConfig returned unexpected error: %v", err)
	}
}

func TestRoot_LoadsConfigBeforeSubcommand(t *testing.T) {
	orig := activeCfg

	t.Cleanup(func() { activeCfg = orig })

	root := NewRootCmd()

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"doctor", "--skip-server", "--wpm", "300", "--log-level", "error"})

	if err := root.Execute(); err != nil {
		t.Fatalf("doctor failed: %v\n%s", err, out.String())
	}

	if activeCfg.Reader.WPM != 300 {
		t.Errorf("activeCfg.Reader.WPM = %v; want 300", activeCfg.Reader.WPM)
	}

	if !bytes.Contains(out.Bytes(), []byte("doctor checks passed")) {
		t.Errorf("unexpected doctor output:\n%s", out.String())
	}
}
