package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/menta2k/collage-maker/internal/config"
	"github.com/menta2k/collage-maker/pkg/templates"
	"github.com/menta2k/collage-maker/pkg/types"
)

// newLayoutsCmd lists the fixed layouts and what each one needs
func newLayoutsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layouts [name...]",
		Short: "List the template layouts and their image requirements",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := printer{cmd.OutOrStdout()}
			names := args
			if len(names) == 0 {
				names = templates.Names()
			}
			width := 0
			for _, name := range names {
				width = max(width, len(name))
			}
			for _, name := range names {
				desc, err := describeLayout(name)
				if err != nil {
					return err
				}
				p.column(name, desc, width)
			}
			return nil
		},
	}
}

func describeLayout(name string) (string, error) {
	if t, ok := templates.Find(name); ok {
		need := t.Requires()
		var parts []string
		for _, kind := range []types.Kind{types.KindHero, types.KindHorizontal, types.KindVertical} {
			if n := need[kind]; n > 0 {
				parts = append(parts, fmt.Sprintf("%d %s", n, kind))
			}
		}
		return fmt.Sprintf("%dx%d, %s", t.Width, t.Height, strings.Join(parts, " + ")), nil
	}
	for _, s := range templates.Splits() {
		if s.Name == name {
			return fmt.Sprintf("%dx%d, 2 horizontal split along %dx%+dy=%d", s.Width, s.Height, s.A, s.B, s.C), nil
		}
	}
	return "", fmt.Errorf("unknown layout %q", name)
}

// newConfigCmd writes the effective configuration, defaults and overrides
// merged, so it can be edited and passed back with --config
func newConfigCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "config [path]",
		Short: "Write the effective configuration to a file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, v, nil)
			if err != nil {
				return err
			}
			path := config.GetConfigPath()
			if len(args) == 1 {
				path = args[0]
			}
			if err := cfg.SaveToFile(path); err != nil {
				return err
			}
			printer{cmd.OutOrStdout()}.success("Configuration written to %s", path)
			return nil
		},
	}
}
