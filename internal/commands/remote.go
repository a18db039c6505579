package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/estatement/internal/client"
	"github.com/cleared-dev/estatement/internal/export"
	"github.com/cleared-dev/estatement/internal/statement"
	"github.com/cleared-dev/estatement/internal/uploadlog"
)

var errNoServer = errors.New("--server (or ESTATEMENT_SERVER) is required")

func newLoginCommand(root *rootOptions) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to a remote server and print a bearer token",
		Long: "Sign in to a remote server and print a bearer token.\n" +
			"The password is read from ESTATEMENT_PASSWORD.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := root.runtime()
			if err != nil {
				return err
			}
			c, ok := root.remote(rt)
			if !ok {
				return errNoServer
			}
			return runLogin(cmd.Context(), c, username, os.Getenv("ESTATEMENT_PASSWORD"))
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username (required)")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func runLogin(ctx context.Context, c *client.Client, username, password string) error {
	if password == "" {
		return errors.New("ESTATEMENT_PASSWORD is not set")
	}
	resp, err := c.Login(ctx, username, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Signed in as %s (expires %s)\n", resp.Username, resp.ExpiresAt.Format(time.RFC3339))
	fmt.Println(resp.Token)
	return nil
}

func newUploadCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <file.csv>",
		Short: "Upload a CSV statement to a remote server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := root.runtime()
			if err != nil {
				return err
			}
			c, ok := root.remote(rt)
			if !ok {
				return errNoServer
			}
			return runUpload(cmd.Context(), c, root.v.GetString(keyToken), args[0], rt.cfg.Upload.MaxBytes)
		},
	}
	return cmd
}

func runUpload(ctx context.Context, c *client.Client, token, path string, maxBytes int64) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	name := filepath.Base(path)
	if err := statement.ValidateUpload(name, info.Size(), maxBytes, statement.FormatCSV); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	resp, err := c.Upload(ctx, token, name, f)
	if err != nil {
		return err
	}
	fmt.Printf("Uploaded %s (%s): %d parsed, %d new, %d duplicates\n",
		resp.FileName, resp.UploadID, resp.Parsed, resp.Inserted, resp.Duplicates)
	return nil
}

func newUploadsCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uploads [id]",
		Short: "List past statement uploads, newest first",
		Long: "List past statement uploads, newest first.\n" +
			"With an upload id, show the status of that upload only.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := root.runtime()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				return runUploadStatus(cmd.Context(), root, rt, args[0])
			}
			return runUploads(cmd.Context(), root, rt)
		},
	}
	return cmd
}

func runUploads(ctx context.Context, root *rootOptions, rt *runtime) error {
	var entries []uploadlog.Entry
	if c, ok := root.remote(rt); ok {
		remote, err := c.History(ctx, root.v.GetString(keyToken))
		if err != nil {
			return err
		}
		entries = remote
	} else {
		local, err := rt.history().Read()
		if err != nil {
			return err
		}
		// The log file is oldest first.
		entries = slices.Clone(local)
		slices.Reverse(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No uploads yet.")
		return nil
	}
	fmt.Println(renderTable(
		[]string{"Upload", "Time", "File", "Format", "Status", "Bytes", "Records", "Error"},
		uploadRows(entries), 5, 6,
	))
	return nil
}

func runUploadStatus(ctx context.Context, root *rootOptions, rt *runtime, id string) error {
	var e uploadlog.Entry
	if c, ok := root.remote(rt); ok {
		st, err := c.UploadStatus(ctx, root.v.GetString(keyToken), id)
		if err != nil {
			return err
		}
		e = uploadlog.Entry{
			ID:          st.FileID,
			Timestamp:   st.UploadTime,
			FileName:    st.FileName,
			Status:      st.Status,
			RecordCount: st.RecordCount,
			Error:       st.ErrorMessage,
		}
	} else {
		found, ok, err := rt.history().Find(id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no upload with id %s", id)
		}
		e = found
	}

	fmt.Println(renderTable(
		[]string{"Upload", "Time", "File", "Format", "Status", "Bytes", "Records", "Error"},
		uploadRows([]uploadlog.Entry{e}), 5, 6,
	))
	return nil
}

func uploadRows(entries []uploadlog.Entry) [][]string {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{
			e.ID,
			e.Timestamp.Local().Format(export.DateTimeLayout),
			e.FileName,
			e.Format,
			string(e.Status),
			strconv.FormatInt(e.Size, 10),
			strconv.Itoa(e.RecordCount),
			e.Error,
		}
	}
	return rows
}
