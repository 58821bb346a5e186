package main

import (
	"os/signal"
	"syscall"

	"github.com/nvr-ai/carcheck/inspection"
	"github.com/nvr-ai/carcheck/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the inspection HTTP API",
	Long: `Load the models once and serve POST /upload, which accepts a car photo in the
multipart field "image" and answers with the damaged and detected parts grouped
into bumpers, doors and body plus the dirt state.`,
	RunE: runServe,
}

var (
	serveAddr    string
	serveOrigins []string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default :8080)")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "origin", nil, "Allowed CORS origins (default http://localhost:3000)")
	addModelFlags(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyModelFlags(&cfg.Inspect)
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if len(serveOrigins) > 0 {
		cfg.Server.AllowedOrigins = serveOrigins
	}

	logger := newLogger()
	insp, closeAll, err := buildInspector(cfg.Inspect, logger,
		inspection.WithOutputDir(cfg.Inspect.OutputDir),
		inspection.WithLogger(logger))
	if err != nil {
		return err
	}
	defer closeAll()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.Config{
		Addr:           cfg.Server.Addr,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	}, insp, logger)
	return srv.Run(ctx)
}
