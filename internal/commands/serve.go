package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/estatement/internal/auth"
	"github.com/cleared-dev/estatement/internal/export"
	"github.com/cleared-dev/estatement/internal/server"
	"github.com/cleared-dev/estatement/internal/statement"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the statement API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := root.runtime()
			if err != nil {
				return err
			}
			if addr != "" {
				rt.cfg.Server.Addr = addr
			}
			return runServe(cmd.Context(), rt)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr)")

	return cmd
}

func runServe(ctx context.Context, rt *runtime) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	issuer, err := auth.NewIssuer(rt.cfg.Auth.JWTSecret, rt.cfg.Auth.TokenExpiry)
	if err != nil {
		return fmt.Errorf("configuring auth (set auth.jwt_secret or ESTATEMENT_JWT_SECRET): %w", err)
	}
	users := auth.NewUserStore(rt.cfg.Auth.Users, rt.cfgPath)
	if users.Len() == 0 && !rt.cfg.Auth.AllowRegistration {
		rt.logger.Warn("no users configured; every login will be rejected")
	}

	db, err := rt.openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	history := rt.history()
	handler := server.NewRouter(rt.logger, server.Dependencies{
		Store:          db,
		Importer:       statement.NewService(db, history, nil, rt.logger),
		Exporter:       export.NewService(db, rt.logger),
		History:        history,
		Accounts:       rt.roster(),
		Balances:       db,
		Health:         db,
		Issuer:         issuer,
		Users:          users,
		MaxUploadBytes: rt.cfg.Upload.MaxBytes,
		AllowedOrigins: rt.cfg.Server.AllowedOrigins,
		LoginRate:      rt.cfg.Server.LoginRate,
		LoginBurst:     rt.cfg.Server.LoginBurst,

		AllowRegistration: rt.cfg.Auth.AllowRegistration,
	})

	srv := server.New(rt.logger, rt.cfg.Server, handler)
	if err := srv.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}
