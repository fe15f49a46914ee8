package sideband

import "testing"

func TestEmpty(t *testing.T) {
	s := empty()
	assert(t, s.Groups != nil).Errorf("Groups should be initialized")
	assert(t, s.Stacks != nil).Errorf("Stacks should be initialized")
	assert(t, s.ContentHashes != nil).Errorf("ContentHashes should be initialized")
	assert(t, len(s.Groups) == 0).Errorf("Groups should be empty")
}

func TestToString(t *testing.T) {
	t.Run("string passthrough", func(t *testing.T) {
		got := toString("hello")
		assert(t, got == "hello").Errorf("toString() = %q", got)
	})
	t.Run("non-string yields empty", func(t *testing.T) {
		got := toString(42)
		assert(t, got == "").Errorf("toString() = %q", got)
	})
}
