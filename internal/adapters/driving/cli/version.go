package cli

import (
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// versionShort is bound to the --short flag.
var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the recall version",
	Run:   runVersion,
}

func runVersion(cmd *cobra.Command, _ []string) {
	if versionShort {
		cmd.Println(version)
		return
	}
	if rev := buildRevision(); rev != "" {
		cmd.Printf("recall version %s (%s) %s/%s\n", version, rev, runtime.GOOS, runtime.GOARCH)
		return
	}
	cmd.Printf("recall version %s %s/%s\n", version, runtime.GOOS, runtime.GOARCH)
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "print the bare version only")
	rootCmd.AddCommand(versionCmd)
}

// buildRevision digs the VCS commit out of the embedded build info.
// Binaries built outside a checkout carry none.
func buildRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key != "vcs.revision" {
			continue
		}
		if len(setting.Value) > 12 {
			return setting.Value[:12]
		}
		return setting.Value
	}
	return ""
}
