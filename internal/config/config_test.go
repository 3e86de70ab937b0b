package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIKey != "" || cfg.CacheDir != "" {
		t.Errorf("expected empty config, got %+v", cfg)
	}
}

func TestLoad_LegacyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte("APIKEY: abc123\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIKey != "abc123" {
		t.Errorf("APIKey = %q, want abc123", cfg.APIKey)
	}
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte("APIKEY: [unterminated\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ConfigFileName)
	want := &Config{APIKey: "k", CacheDir: "/tmp/cache"}

	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("permissions = %o, want 600", perm)
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "APIKEY: k") {
		t.Errorf("expected APIKEY key in file, got %q", data)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *got != *want {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}

func TestResolveAPIKey(t *testing.T) {
	tests := []struct {
		name      string
		stored    string
		flagKey   string
		store     bool
		want      string
		wantErr   error
		wantSaved string
	}{
		{name: "flag only", flagKey: "flag", want: "flag"},
		{name: "stored only", stored: "disk", want: "disk", wantSaved: "disk"},
		{name: "flag wins over stored", stored: "disk", flagKey: "flag", want: "flag", wantSaved: "disk"},
		{name: "flag stored", stored: "disk", flagKey: "flag", store: true, want: "flag", wantSaved: "flag"},
		{name: "store without flag is ignored", stored: "disk", store: true, want: "disk", wantSaved: "disk"},
		{name: "nothing", wantErr: ErrNoAPIKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ConfigFileName)
			if tt.stored != "" {
				if err := Save(path, &Config{APIKey: tt.stored, CacheDir: "keep"}); err != nil {
					t.Fatal(err)
				}
			}

			got, err := ResolveAPIKey(path, tt.flagKey, tt.store)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveAPIKey: %v", err)
			}
			if got != tt.want {
				t.Errorf("key = %q, want %q", got, tt.want)
			}

			cfg, _ := Load(path)
			if cfg.APIKey != tt.wantSaved {
				t.Errorf("stored key = %q, want %q", cfg.APIKey, tt.wantSaved)
			}
			if tt.stored != "" && cfg.CacheDir != "keep" {
				t.Errorf("other settings lost: %+v", cfg)
			}
		})
	}
}

func TestCacheDirOrDefault(t *testing.T) {
	cfg := &Config{CacheDir: "/custom"}
	dir, err := cfg.CacheDirOrDefault()
	if err != nil || dir != "/custom" {
		t.Errorf("CacheDirOrDefault = %q, %v; want /custom", dir, err)
	}

	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	dir, err = (&Config{}).CacheDirOrDefault()
	if err != nil {
		t.Fatalf("CacheDirOrDefault: %v", err)
	}
	if filepath.Base(dir) != CacheDirName {
		t.Errorf("default cache dir = %q, want .../%s", dir, CacheDirName)
	}
}
