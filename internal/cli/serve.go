package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/menta2k/collage-maker/internal/config"
	"github.com/menta2k/collage-maker/internal/server"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	d := config.Default()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the collage API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, v, map[string]string{
				"addr":     "server.addr",
				"format":   "output.format",
				"detector": "detector.backend",
			})
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	f.String("addr", d.Server.Addr, "listen address")
	f.StringP("format", "f", d.Output.Format, "default response format: jpg, png or webp")
	f.String("detector", d.Detector.Backend, "face detector: pigo, ollama, llamacpp or none")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := loggerFromContext(ctx)
	maker, err := newMaker(cfg, logger)
	if err != nil {
		return err
	}
	defer maker.Close()

	srv := server.New(maker, server.Config{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		MaxUploadMB:  cfg.Server.MaxUploadMB,
		MaxDimension: cfg.Server.MaxDimension,
	}, logger)

	err = srv.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("server stopped")
	}
	return err
}
