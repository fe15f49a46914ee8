package config

import "testing"

func TestExpandPath(t *testing.T) {
	t.Run("tilde", func(t *testing.T) {
		t.Setenv("HOME", "/home/dev")
		assert(t, expandPath("~/.config/gh/hosts.yml") == "/home/dev/.config/gh/hosts.yml").
			Errorf("expandPath() mismatch")
	})
	t.Run("absolute", func(t *testing.T) {
		assert(t, expandPath("/etc/hosts.yml") == "/etc/hosts.yml").Errorf("expandPath() mismatch")
	})
	t.Run("empty", func(t *testing.T) {
		assert(t, expandPath("") == "").Errorf("expandPath() mismatch")
	})
}

func TestRemoteURLPattern(t *testing.T) {
	matches := remoteURLPattern.FindStringSubmatch("* remote origin\n  Fetch URL: git@github.com:acme/widgets.git\n  Push  URL: git@github.com:acme/widgets.git")
	assert(t, len(matches) >= 4).Fatalf("expected a match, got %v", matches)
	assert(t, matches[1] == "github.com").Errorf("host = %q", matches[1])
	assert(t, matches[2] == "acme").Errorf("owner = %q", matches[2])
}
