// Package settings holds build metadata and per-run options shared by the
// lingo CLI and its packages.
package settings

// CliBinaryName is the canonical binary name.
const CliBinaryName = "lingo"

// ConfigEnvVar names the environment variable holding a config file path.
const ConfigEnvVar = "LINGO_CONFIG"

// VersionInformation is set at build time via ldflags.
var VersionInformation = VersionInfo{
	Commit:       "unknown",
	BuildVersion: "v0.0.0-nightly",
	BuildTime:    "unknown",
}

// VersionInfo is the build metadata of the running binary.
type VersionInfo struct {
	Commit       string `json:"commit" yaml:"commit"`
	BuildVersion string `json:"version" yaml:"version"`
	BuildTime    string `json:"build_time" yaml:"build_time"`
}

// Run holds the options of a single invocation.
type Run struct {
	MinLogLevel int8
	IsQuiet     bool
	NoColor     bool
	ExitOnError bool
	Interactive bool
	Watch       bool
	// LogFile receives logs while the interactive browser owns the terminal.
	LogFile    string
	ConfigPath string
}

// NewCliParams returns the defaults for a CLI run.
func NewCliParams() *Run {
	return &Run{
		MinLogLevel: 0,
		ExitOnError: true,
	}
}
