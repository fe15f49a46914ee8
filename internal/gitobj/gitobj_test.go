package gitobj

import "testing"

func TestShort(t *testing.T) {
	t.Run("truncates to 8", func(t *testing.T) {
		got := Short("2e4d93e3728b7d3baa6ed3d8d56d9e4fbd73422d")
		assert(t, got == "2e4d93e3").Errorf("Short() = %q", got)
	})
	t.Run("passes through short hashes", func(t *testing.T) {
		got := Short("abc123")
		assert(t, got == "abc123").Errorf("Short() = %q", got)
	})
}
