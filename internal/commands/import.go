package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/estatement/internal/statement"
)

func newImportCommand(root *rootOptions) *cobra.Command {
	var fromInbox bool

	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import CSV or OFX statements into the local database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !fromInbox {
				return fmt.Errorf("no files given (pass paths or --inbox)")
			}
			rt, err := root.runtime()
			if err != nil {
				return err
			}
			return runImport(cmd.Context(), rt, args, fromInbox)
		},
	}

	cmd.Flags().BoolVar(&fromInbox, "inbox", false, "import every statement waiting in the inbox and move it to inbox/processed")

	return cmd
}

func runImport(ctx context.Context, rt *runtime, paths []string, fromInbox bool) error {
	var files []statement.FileInfo
	for _, p := range paths {
		format, err := statement.DetectFormat(p)
		if err != nil {
			return err
		}
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}
		files = append(files, statement.FileInfo{Name: filepath.Base(p), Path: p, Size: info.Size(), Format: format})
	}

	inbox := rt.path(rt.cfg.Upload.Inbox)
	if fromInbox {
		waiting, err := statement.Scan(inbox)
		if err != nil {
			return err
		}
		files = append(files, waiting...)
	}
	if len(files) == 0 {
		fmt.Println("Nothing to import.")
		return nil
	}

	db, err := rt.openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := statement.NewService(db, rt.history(), nil, rt.logger)

	var total int64
	for _, f := range files {
		total += f.Size
	}
	bar := progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan]Importing statements...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(os.Stderr) }),
	)

	var inserted, duplicates, failed int
	for _, f := range files {
		res, err := importFile(ctx, svc, f, bar)
		if err != nil {
			failed++
			rt.logger.Error("import failed", "file", f.Name, "error", err)
			continue
		}
		inserted += res.Inserted
		duplicates += res.Duplicates
		rt.logger.Info("imported statement", "file", f.Name, "upload_id", res.UploadID, "inserted", res.Inserted, "duplicates", res.Duplicates)

		if fromInbox && filepath.Dir(f.Path) == inbox {
			if err := statement.MarkProcessed(inbox, f.Name); err != nil {
				return err
			}
		}
	}
	_ = bar.Finish()

	fmt.Printf("Imported %d files: %d new transactions, %d duplicates skipped", len(files)-failed, inserted, duplicates)
	if failed > 0 {
		fmt.Printf(", %d failed\n", failed)
		return fmt.Errorf("%d of %d files failed to import", failed, len(files))
	}
	fmt.Println()
	return nil
}

func importFile(ctx context.Context, svc *statement.Service, f statement.FileInfo, bar *progressbar.ProgressBar) (statement.ImportResult, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return statement.ImportResult{}, fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer file.Close()

	r := progressbar.NewReader(file, bar)
	return svc.Import(ctx, f.Name, f.Format, &r)
}
