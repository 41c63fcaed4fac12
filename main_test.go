package main

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/virtualboard/relnotes/cmd"
	"github.com/virtualboard/relnotes/internal/config"
	"github.com/virtualboard/relnotes/internal/testutil"
)

func TestRunSuccessAndFailure(t *testing.T) {
	fix := testutil.NewFixture(t)
	fix.Chdir(t)
	fix.WriteFile(t, "TITLE_ONLY.md", []byte("# Changelog\n"))

	root := cmd.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	t.Cleanup(func() {
		root.SetArgs(nil)
		root.SetOut(nil)
		root.SetErr(nil)
		config.SetCurrent(nil)
	})

	config.SetCurrent(nil)
	root.SetArgs([]string{"CHANGELOG.md", "RELEASE.md"})
	if code := run(); code != 0 {
		t.Fatalf("expected success, got %d", code)
	}
	data, err := os.ReadFile(fix.Path("RELEASE.md"))
	if err != nil {
		t.Fatalf("expected output file: %v", err)
	}
	if string(data) != testutil.SampleRelease {
		t.Fatalf("unexpected release notes: %q", string(data))
	}

	config.SetCurrent(nil)
	root.SetArgs([]string{"TITLE_ONLY.md", "RELEASE.md"})
	if code := run(); code != cmd.ExitCodeNoRelease {
		t.Fatalf("expected no-release exit, got %d", code)
	}
}
