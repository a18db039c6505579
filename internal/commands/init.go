package commands

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/estatement/internal/accounts"
	"github.com/cleared-dev/estatement/internal/config"
	"github.com/cleared-dev/estatement/internal/logging"
	"github.com/cleared-dev/estatement/internal/model"
	"github.com/cleared-dev/estatement/internal/storage"
)

type initOptions struct {
	accountsFile string
	sample       bool
	force        bool
}

func newInitCommand(root *rootOptions) *cobra.Command {
	var opts initOptions

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a data directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := root.v.GetString(keyDataDir)
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.Context(), absDir, opts)
		},
	}

	cmd.Flags().StringVar(&opts.accountsFile, "accounts", "", "CSV roster of bank accounts (default: built-in roster)")
	cmd.Flags().BoolVar(&opts.sample, "sample", false, "load the demo statement into the database")
	cmd.Flags().BoolVar(&opts.force, "force", false, "overwrite an existing estatement.yaml")

	return cmd
}

func runInit(ctx context.Context, dir string, opts initOptions) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil && !opts.force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking config: %w", err)
	}

	cfg := config.Default()
	if err := os.MkdirAll(config.Resolve(dir, cfg.Upload.Inbox), 0o755); err != nil {
		return fmt.Errorf("creating inbox: %w", err)
	}

	// Roster.
	roster := accounts.NewService(accounts.DefaultRoster())
	if opts.accountsFile != "" {
		loaded, err := accounts.Load(opts.accountsFile)
		if err != nil {
			return err
		}
		roster = loaded
	}
	cfg.BankAccounts = roster.BankAccounts()

	// Signing secret.
	secret, err := newSecret()
	if err != nil {
		return fmt.Errorf("generating jwt secret: %w", err)
	}
	cfg.Auth.JWTSecret = secret

	if err := config.Save(cfgPath, cfg); err != nil {
		return err
	}

	// Database.
	db, err := storage.Open(ctx, config.Resolve(dir, cfg.Database.Path), logging.New(cfg.Logging, os.Stderr))
	if err != nil {
		return err
	}
	defer db.Close()

	if opts.sample {
		n, err := db.SaveTransactions(ctx, model.SampleTransactions(), "sample")
		if err != nil {
			return fmt.Errorf("loading sample statement: %w", err)
		}
		fmt.Printf("Loaded %d sample transactions for account %s\n", n, model.SampleAccount)
	}

	fmt.Printf("Initialized estatement data directory at %s (%d accounts)\n", dir, len(cfg.BankAccounts))
	return nil
}

func newSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
