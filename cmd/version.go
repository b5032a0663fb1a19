package cmd

import (
	"fmt"
	"io"
	"runtime"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/lingo/pkg/settings"
)

type versionData struct {
	settings.VersionInfo `yaml:",inline"`
	GoVersion            string `json:"go_version" yaml:"go_version"`
}

func currentVersion() versionData {
	return versionData{VersionInfo: settings.VersionInformation, GoVersion: runtime.Version()}
}

// versionString is the one-line form used by --version and `lingo version`.
func versionString() string {
	v := currentVersion()
	return fmt.Sprintf("%s %s (commit %s, built %s, %s)",
		settings.CliBinaryName, v.BuildVersion, v.Commit, v.BuildTime, v.GoVersion)
}

func newVersionCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeVersion(cmd.OutOrStdout(), output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text|json|yaml")
	return cmd
}

func writeVersion(w io.Writer, output string) error {
	v := currentVersion()
	switch output {
	case "text", "":
		_, err := fmt.Fprintln(w, versionString())
		return err
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("encode version: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode version: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("invalid output %q: valid values are text, json, yaml", output)
	}
}
