package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	collage "github.com/menta2k/collage-maker"
	"github.com/menta2k/collage-maker/internal/config"
	"github.com/menta2k/collage-maker/internal/utils"
)

var (
	version = collage.Version
	commit  string
	date    string
)

// SetVersion sets the build information printed by version and --version.
// main calls it with values injected through ldflags; empty values keep
// the defaults.
func SetVersion(v, c, d string) {
	if v != "" {
		version = v
	}
	commit = c
	date = d
}

// Execute runs the CLI until it finishes or ctx is cancelled
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd builds the command tree around a fresh viper instance
func NewRootCmd() *cobra.Command {
	var verbose bool
	v := config.NewViper()

	root := &cobra.Command{
		Use:          "collage-maker",
		Short:        "collage-maker turns a folder of photos into collages",
		Long:         `collage-maker packs photos into justified rows, fills fixed template layouts with face-aware crops and captions the results.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("collage-maker %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringP("config", "c", "", "config file (yaml, json or toml)")

	root.AddCommand(newMakeCmd(v))
	root.AddCommand(newJustifyCmd(v))
	root.AddCommand(newCropCmd(v))
	root.AddCommand(newDetectCmd(v))
	root.AddCommand(newServeCmd(v))
	root.AddCommand(newLayoutsCmd())
	root.AddCommand(newConfigCmd(v))
	root.AddCommand(newVersionCmd())

	return root
}

// loadConfig binds the command's flags onto their config keys and reads
// the config. Binding happens here rather than at construction so that
// commands sharing a key do not overwrite each other's bindings.
func loadConfig(cmd *cobra.Command, v *viper.Viper, keys map[string]string) (*config.Config, error) {
	for flag, key := range keys {
		if err := bindFlag(v, cmd.Flags(), flag, key); err != nil {
			return nil, err
		}
	}

	return config.Read(v, configPath(cmd))
}

// configPath is the --config flag, or the default location when a file
// exists there
func configPath(cmd *cobra.Command) string {
	if f := cmd.Flag("config"); f != nil && f.Value.String() != "" {
		return f.Value.String()
	}
	if def := config.GetConfigPath(); utils.FileExists(def) {
		return def
	}
	return ""
}

func bindFlag(v *viper.Viper, flags *pflag.FlagSet, flag, key string) error {
	f := flags.Lookup(flag)
	if f == nil {
		return fmt.Errorf("unknown flag %q", flag)
	}
	return v.BindPFlag(key, f)
}
