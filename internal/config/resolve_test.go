package config

import (
	"path/filepath"
	"testing"
)

func TestResolve_NoConfigDefaults(t *testing.T) {
	tmp := t.TempDir()
	got, xe := Resolve(Options{WorkDir: tmp, HomeDir: tmp})
	if xe != nil {
		t.Fatalf("unexpected err: %v", xe)
	}
	if got.ConfigPath != "" || got.ProfileName != "" {
		t.Fatalf("unexpected resolved: %+v", got)
	}
	if got.Format != "auto" {
		t.Fatalf("format=%q want auto", got.Format)
	}
	if got.Profile.Store != DefaultStore {
		t.Fatalf("store=%q want %q", got.Profile.Store, DefaultStore)
	}
	if got.Profile.Path != DefaultDataDir(tmp) {
		t.Fatalf("path=%q want %q", got.Profile.Path, DefaultDataDir(tmp))
	}
}

func TestResolve_ExplicitConfigMissingIsError(t *testing.T) {
	tmp := t.TempDir()
	_, xe := Resolve(Options{WorkDir: tmp, HomeDir: tmp, ConfigPath: "no_such.yaml"})
	if xe == nil || xe.Code != "XACCT_CFG_NOT_FOUND" {
		t.Fatalf("expected XACCT_CFG_NOT_FOUND, got %v", xe)
	}
}

func TestResolve_ProfileAndFormatPrecedence(t *testing.T) {
	tmp := t.TempDir()
	writeConfig(t, filepath.Join(tmp, "xacct.yaml"), "profiles:\n  default:\n    format: yaml\n  dev:\n    format: json\n")

	// No CLI/ENV profile -> profiles.default selected
	got, xe := Resolve(Options{WorkDir: tmp, HomeDir: tmp})
	if xe != nil {
		t.Fatal(xe)
	}
	if got.ProfileName != "default" || got.Format != "yaml" {
		t.Fatalf("got profile=%q format=%q", got.ProfileName, got.Format)
	}

	// ENV profile
	got, xe = Resolve(Options{WorkDir: tmp, HomeDir: tmp, EnvProfile: "dev"})
	if xe != nil {
		t.Fatal(xe)
	}
	if got.ProfileName != "dev" || got.Format != "json" {
		t.Fatalf("got profile=%q format=%q", got.ProfileName, got.Format)
	}

	// ENV format overrides config
	got, xe = Resolve(Options{WorkDir: tmp, HomeDir: tmp, EnvFormat: "csv"})
	if xe != nil {
		t.Fatal(xe)
	}
	if got.Format != "csv" {
		t.Fatalf("format=%q want csv", got.Format)
	}

	// CLI overrides ENV
	got, xe = Resolve(Options{
		WorkDir: tmp, HomeDir: tmp,
		EnvProfile: "dev", CLIProfile: "default", CLIProfileSet: true,
		EnvFormat: "csv", CLIFormat: "table", CLIFormatSet: true,
	})
	if xe != nil {
		t.Fatal(xe)
	}
	if got.ProfileName != "default" || got.Format != "table" {
		t.Fatalf("got profile=%q format=%q", got.ProfileName, got.Format)
	}
}

func TestResolve_UnknownProfile(t *testing.T) {
	tmp := t.TempDir()
	writeConfig(t, filepath.Join(tmp, "xacct.yaml"), "profiles:\n  dev:\n    store: memory\n")

	_, xe := Resolve(Options{WorkDir: tmp, HomeDir: tmp, CLIProfile: "prod", CLIProfileSet: true})
	if xe == nil || xe.Code != "XACCT_CFG_INVALID" {
		t.Fatalf("expected XACCT_CFG_INVALID, got %v", xe)
	}
}

func TestResolve_StorePrecedence(t *testing.T) {
	tmp := t.TempDir()
	writeConfig(t, filepath.Join(tmp, "xacct.yaml"), "profiles:\n  default:\n    store: keyring\n")

	got, xe := Resolve(Options{WorkDir: tmp, HomeDir: tmp})
	if xe != nil {
		t.Fatal(xe)
	}
	if got.Profile.Store != "keyring" {
		t.Fatalf("store=%q want keyring", got.Profile.Store)
	}

	got, _ = Resolve(Options{WorkDir: tmp, HomeDir: tmp, EnvStore: "memory"})
	if got.Profile.Store != "memory" {
		t.Fatalf("store=%q want memory", got.Profile.Store)
	}

	got, _ = Resolve(Options{WorkDir: tmp, HomeDir: tmp, EnvStore: "memory", CLIStore: "file", CLIStoreSet: true})
	if got.Profile.Store != "file" {
		t.Fatalf("store=%q want file", got.Profile.Store)
	}
	if got.Profile.Path != DefaultDataDir(tmp) {
		t.Fatalf("file store should get default path, got %q", got.Profile.Path)
	}
}

func TestResolve_FilePathResolution(t *testing.T) {
	work := t.TempDir()
	home := t.TempDir()
	writeConfig(t, filepath.Join(work, "xacct.yaml"), `profiles:
  rel:
    path: data
  tilde:
    path: ~/vault
  abs:
    path: /srv/xacct
`)

	tests := []struct {
		profile string
		want    string
	}{
		{"rel", filepath.Join(work, "data")},
		{"tilde", filepath.Join(home, "vault")},
		{"abs", "/srv/xacct"},
	}
	for _, tt := range tests {
		got, xe := Resolve(Options{WorkDir: work, HomeDir: home, CLIProfile: tt.profile, CLIProfileSet: true})
		if xe != nil {
			t.Fatalf("%s: %v", tt.profile, xe)
		}
		if got.Profile.Path != tt.want {
			t.Errorf("%s: path=%q want %q", tt.profile, got.Profile.Path, tt.want)
		}
	}
}

func TestResolve_SSHProxy(t *testing.T) {
	tmp := t.TempDir()
	writeConfig(t, filepath.Join(tmp, "xacct.yaml"), `ssh_proxies:
  bastion:
    host: bastion.example.com
    user: admin
profiles:
  default:
    store: redis
    addr: redis.internal:6379
    ssh_proxy: bastion
  broken:
    store: redis
    ssh_proxy: missing
`)

	got, xe := Resolve(Options{WorkDir: tmp, HomeDir: tmp})
	if xe != nil {
		t.Fatal(xe)
	}
	if got.Profile.SSHConfig == nil || got.Profile.SSHConfig.Host != "bastion.example.com" {
		t.Fatalf("expected resolved ssh config, got %+v", got.Profile.SSHConfig)
	}

	_, xe = Resolve(Options{WorkDir: tmp, HomeDir: tmp, CLIProfile: "broken", CLIProfileSet: true})
	if xe == nil || xe.Code != "XACCT_CFG_INVALID" {
		t.Fatalf("expected XACCT_CFG_INVALID for missing proxy, got %v", xe)
	}
}
