package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/virtualboard/relnotes/internal/config"
)

// SampleChangelog is a conventional changelog with two releases.
const SampleChangelog = `# Changelog

## 1.2.0 - 2023-01-01
- Fixed bug A
- Added feature B

## 1.1.0 - 2022-06-01
- Initial fix
`

// SampleRelease is the expected extraction of SampleChangelog.
const SampleRelease = `## 1.2.0 - 2023-01-01
- Fixed bug A
- Added feature B`

// Fixture provides a temporary directory holding a changelog.
type Fixture struct {
	Root string
}

// NewFixture initialises a workspace with SampleChangelog written to CHANGELOG.md.
func NewFixture(t *testing.T) *Fixture {
	t.Helper()
	f := &Fixture{Root: t.TempDir()}
	f.WriteFile(t, "CHANGELOG.md", []byte(SampleChangelog))
	return f
}

// Options returns options initialised for the fixture. The working directory
// is switched to the fixture root for the duration of the test so no stray
// settings file is picked up.
func (f *Fixture) Options(t *testing.T, jsonOut, verbose, dry bool) *config.Options {
	t.Helper()
	f.Chdir(t)
	opts := config.New()
	if err := opts.Init(jsonOut, verbose, dry, "", ""); err != nil {
		t.Fatalf("failed to init options: %v", err)
	}
	t.Cleanup(func() { _ = opts.Close() })
	return opts
}

// Chdir switches into the fixture root until the test ends.
func (f *Fixture) Chdir(t *testing.T) {
	t.Helper()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(f.Root); err != nil {
		t.Fatalf("failed to chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(cwd) })
}

// WriteFile writes a file relative to the fixture root.
func (f *Fixture) WriteFile(t *testing.T, relative string, data []byte) {
	t.Helper()
	path := f.Path(relative)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
}

// ReadFile returns the contents of a file relative to the fixture root.
func (f *Fixture) ReadFile(t *testing.T, relative string) string {
	t.Helper()
	data, err := os.ReadFile(f.Path(relative))
	if err != nil {
		t.Fatalf("failed to read %s: %v", relative, err)
	}
	return string(data)
}

// Path resolves a path relative to the fixture root.
func (f *Fixture) Path(parts ...string) string {
	return filepath.Join(append([]string{f.Root}, parts...)...)
}
