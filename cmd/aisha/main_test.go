package main

import (
	"testing"

	"aisha/internal/config"
)

func TestApplyFlags(t *testing.T) {
	if err := hudCmd.ParseFlags([]string{"--dry-run", "--vocabulary", "relay.yaml", "--camera", "2"}); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}

	c := &config.Config{CameraIndex: 0, RelayPin: "GPIO17", VocabularyPath: "commands.yaml"}
	applyFlags(hudCmd, c)

	if !c.RelayDryRun {
		t.Error("--dry-run should be applied")
	}
	if c.CameraIndex != 2 {
		t.Errorf("Expected camera 2, got %d", c.CameraIndex)
	}
	if c.RelayVocabularyPath != "relay.yaml" || c.VocabularyPath != "commands.yaml" {
		t.Errorf("hud --vocabulary should only set the relay vocabulary, got %q / %q", c.RelayVocabularyPath, c.VocabularyPath)
	}
	if c.RelayPin != "GPIO17" {
		t.Errorf("Unset flags must not touch the config, relay pin %q", c.RelayPin)
	}
}

func TestApplyFlags_TriggerWord(t *testing.T) {
	if err := assistCmd.ParseFlags([]string{"--trigger", "Айша"}); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}

	c := &config.Config{}
	applyFlags(assistCmd, c)

	if c.TriggerWord != "айша" {
		t.Errorf("Expected lower-cased trigger word, got %q", c.TriggerWord)
	}
}

func TestApplyFlags_Unchanged(t *testing.T) {
	c := &config.Config{ModelFormat: "yolo", ConfidenceThreshold: 0.5}
	applyFlags(detectCmd, c)

	if c.ModelFormat != "yolo" || c.ConfidenceThreshold != 0.5 {
		t.Errorf("Config should be untouched without flags, got %+v", c)
	}
}

func TestCommands(t *testing.T) {
	want := map[string]bool{"detect": false, "assist": false, "hud": false, "events": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("Missing subcommand %s", name)
		}
	}
}
