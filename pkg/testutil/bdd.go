package testutil

import "testing"

// Steps are ordinary subtests with a prefixed name. State shared between steps
// lives in the enclosing test's variables, so steps run in declaration order.
func step(t *testing.T, prefix, desc string, fn func(t *testing.T)) bool {
	t.Helper()
	return t.Run(prefix+" "+desc, fn)
}

func Given(t *testing.T, desc string, fn func(t *testing.T)) bool {
	t.Helper()
	return step(t, "Given", desc, fn)
}

func When(t *testing.T, desc string, fn func(t *testing.T)) bool {
	t.Helper()
	return step(t, "When", desc, fn)
}

func Then(t *testing.T, desc string, fn func(t *testing.T)) bool {
	t.Helper()
	return step(t, "Then", desc, fn)
}

func And(t *testing.T, desc string, fn func(t *testing.T)) bool {
	t.Helper()
	return step(t, "And", desc, fn)
}
