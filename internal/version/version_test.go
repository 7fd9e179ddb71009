package version

import (
	"strings"
	"testing"
)

func TestInfoDefaults(t *testing.T) {
	v, c, d := Info()
	if v != GetVersion() || c != GetCommit() || d != GetDate() {
		t.Fatalf("Info() and accessors diverge: %s/%s/%s vs %s/%s/%s",
			v, c, d, GetVersion(), GetCommit(), GetDate())
	}
	if v == "" {
		t.Fatal("version must never be empty, default is dev")
	}
}

func TestString(t *testing.T) {
	s := String()
	for _, key := range []string{"version=", "commit=", "date="} {
		if !strings.Contains(s, key) {
			t.Fatalf("String() missing %q: %s", key, s)
		}
	}
}
