package version

// Current is the CLI version, overridden at build time via
// -ldflags "-X github.com/virtualboard/relnotes/internal/version.Current=1.2.3".
var Current = "dev"
