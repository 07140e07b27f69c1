package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/san-kum/nanosim/internal/archive"
	"github.com/san-kum/nanosim/internal/storage"
)

var archiveDB string

func newArchiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "keep timelines in a sqlite archive and query them",
	}
	cmd.PersistentFlags().StringVar(&archiveDB, "db", "", "archive file (default <data>/archive.db)")

	saveCmd := &cobra.Command{
		Use:   "save [run_id]",
		Short: "copy a saved run into the archive",
		Args:  cobra.ExactArgs(1),
		RunE:  archiveSave,
	}
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list archived runs",
		Args:  cobra.NoArgs,
		RunE:  archiveList,
	}
	universeCmd := &cobra.Command{
		Use:   "universe [archive_id] [t]",
		Short: "reconstruct the universe at t with a sql cover query",
		Args:  cobra.ExactArgs(2),
		RunE:  archiveUniverse,
	}
	universeCmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	cmd.AddCommand(saveCmd, listCmd, universeCmd)
	return cmd
}

func openArchive() (*archive.DB, error) {
	path := archiveDB
	if path == "" {
		if err := storage.New(dataDir).Init(); err != nil {
			return nil, err
		}
		path = filepath.Join(dataDir, "archive.db")
	}
	return archive.Open(path)
}

func archiveSave(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	recs, err := st.LoadRecords(args[0])
	if err != nil {
		return err
	}

	db, err := openArchive()
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := db.SaveRun(meta.ID, meta.Seed, recs)
	if err != nil {
		return err
	}
	fmt.Printf("archived %s records as %s\n", humanize.Comma(int64(len(recs))), id)
	return nil
}

func archiveList(cmd *cobra.Command, args []string) error {
	db, err := openArchive()
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.Runs()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("archive is empty")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLABEL\tSEED\tRECORDS\tARCHIVED")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", r.ID, r.Label, r.Seed, humanize.Comma(int64(r.Records)), humanize.Time(r.CreatedAt))
	}
	return w.Flush()
}

func archiveUniverse(cmd *cobra.Command, args []string) error {
	t, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid time %q: %w", args[1], err)
	}
	db, err := openArchive()
	if err != nil {
		return err
	}
	defer db.Close()

	u, err := db.Universe(args[0], t)
	if err != nil {
		return err
	}
	return printUniverse(u, t)
}
