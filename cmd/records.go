package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/soomgil/counsel/internal/config"
	"github.com/soomgil/counsel/internal/services"
	"github.com/soomgil/counsel/internal/services/records"
)

func newRecordsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Inspect and update persisted conversation records",
	}
	cmd.AddCommand(newRecordsListCommand(), newRecordsToggleCommand())
	return cmd
}

func newRecordsListCommand() *cobra.Command {
	var (
		page   int
		output string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print one dashboard page of records",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := services.InitializeServices(cmd.Context(), config.Load())
			if err != nil {
				return err
			}
			defer svc.Close()

			p, err := svc.GetRecordsService().Page(cmd.Context(), page)
			if err != nil {
				return err
			}
			return writePage(cmd.OutOrStdout(), p, output)
		},
	}

	cmd.Flags().IntVar(&page, "page", 0, "zero-based page index")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table, json or yaml")
	return cmd
}

func newRecordsToggleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <index>",
		Short: "Flip a record between 진행중 and 완료",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid record index %q: %w", args[0], err)
			}

			svc, err := services.InitializeServices(cmd.Context(), config.Load())
			if err != nil {
				return err
			}
			defer svc.Close()

			record, err := svc.GetRecordsService().Toggle(cmd.Context(), index)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", index, record.Status, record.Title)
			return err
		},
	}
}

func writePage(w io.Writer, p records.Page, output string) error {
	switch output {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	case "table":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "INDEX\tSTATUS\tDATE\tHOSPITAL\tTITLE")
		for _, e := range p.Entries {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.Index, e.Record.Status, e.Record.Date, e.Record.Hospital, e.Record.Title)
		}
		fmt.Fprintf(tw, "\npage %d/%d, %d records\n", p.PageIndex+1, p.TotalPages, p.Total)
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q", output)
	}
}
