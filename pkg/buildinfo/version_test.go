package buildinfo

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	defer func(v, c, d string) { Version, Commit, Date = v, c, d }(Version, Commit, Date)
	Version, Commit, Date = "v1.2.3", "abc123", "2024-03-01T12:00:00Z"

	want := "version: v1.2.3\ncommit: abc123\nbuilt: 2024-03-01T12:00:00Z"
	if got := String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got := Template(); !strings.HasPrefix(got, "{{.Name}} version v1.2.3\n") {
		t.Errorf("Template() = %q", got)
	}
	if got := Current(); got != (Info{Version: "v1.2.3", Commit: "abc123", Date: "2024-03-01T12:00:00Z"}) {
		t.Errorf("Current() = %+v", got)
	}
}
