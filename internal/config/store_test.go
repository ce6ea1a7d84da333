package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewStore_DefaultsWhenFileMissing(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	got := s.Get()
	if got.Port != 6566 || got.Format != "png" {
		t.Errorf("Get() = %+v, want defaults", got)
	}
}

func TestStore_UpdatePersistsAcrossReload(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := Settings{Host: "attic.local", Port: 6566, Device: "epson:fb", OutputDir: "/tmp/scans", Format: "pdf"}
	if err := s.Update(want); err != nil {
		t.Fatal(err)
	}

	reloaded, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Get() != want {
		t.Errorf("reloaded = %+v, want %+v", reloaded.Get(), want)
	}
}

func TestStore_InvalidFileFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if s.Get() != DefaultSettings() {
		t.Errorf("Get() = %+v, want defaults", s.Get())
	}
}

func TestNewMemoryStore_UpdateDoesNotTouchDisk(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Update(Settings{Host: "x", Port: 1, Format: "png"}); err != nil {
		t.Fatal(err)
	}
	if s.Get().Host != "x" {
		t.Errorf("Get().Host = %q, want x", s.Get().Host)
	}
	if s.path != "" {
		t.Errorf("path = %q, want empty (memory-only store)", s.path)
	}
}

func TestSettings_Validate(t *testing.T) {
	cases := []struct {
		name    string
		s       Settings
		wantErr bool
	}{
		{"defaults", DefaultSettings(), false},
		{"valid tiff", Settings{Port: 6566, Format: "tiff"}, false},
		{"port zero", Settings{Port: 0, Format: "png"}, true},
		{"port too large", Settings{Port: 70000, Format: "png"}, true},
		{"unknown format", Settings{Port: 6566, Format: "jpeg"}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.s.Validate()
			if (err != nil) != c.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, c.wantErr)
			}
		})
	}
}

func TestStore_UpdateRejectsInvalidSettings(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	before := s.Get()
	if err := s.Update(Settings{Port: -1, Format: "png"}); err == nil {
		t.Fatal("expected error for invalid port")
	}
	if s.Get() != before {
		t.Errorf("Get() = %+v, want unchanged %+v", s.Get(), before)
	}
}
