package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spardhafest/spardha/internal/export"
	"github.com/spardhafest/spardha/internal/model"
	"github.com/spardhafest/spardha/internal/registration"
)

func newRegistrationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "registrations",
		Aliases: []string{"regs"},
		Short:   "Inspect and export event registrations",
	}

	cmd.AddCommand(newRegistrationsListCmd())
	cmd.AddCommand(newRegistrationsExportCmd())
	cmd.AddCommand(newRegistrationsStatsCmd())

	return cmd
}

func loadRegistrations() ([]model.Registration, error) {
	store, err := openStore()
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	return registration.NewService(store, nil).List(context.Background())
}

// ---------- registrations list ----------

func newRegistrationsListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List registrations, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			regs, err := loadRegistrations()
			if err != nil {
				return err
			}
			return printRegistrations(cmd.OutOrStdout(), regs, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func printRegistrations(out io.Writer, regs []model.Registration, jsonOutput bool) error {
	if jsonOutput {
		if regs == nil {
			regs = []model.Registration{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(regs)
	}

	if len(regs) == 0 {
		fmt.Fprintln(out, "No registrations yet.")
		return nil
	}

	fmt.Fprintf(out, "%-24s %-30s %-24s %-10s %-30s %s\n", "NAME", "EMAIL", "COLLEGE", "TYPE", "EVENTS", "REGISTERED")
	for _, r := range regs {
		fmt.Fprintf(out, "%-24s %-30s %-24s %-10s %-30s %s\n",
			r.FullName, r.Email, r.College, string(r.RegistrationType),
			strings.Join(r.Events, ","), r.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(out, "\n%d registration(s)\n", len(regs))
	return nil
}

// ---------- registrations stats ----------

func newRegistrationsStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show registration totals per event",
		RunE: func(cmd *cobra.Command, args []string) error {
			regs, err := loadRegistrations()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			stats := registration.Summarize(regs)
			fmt.Fprintf(out, "Total registrations: %d\n\n", stats.Total)
			fmt.Fprintf(out, "%-28s %s\n", "EVENT", "COUNT")
			for _, ec := range registration.Ranked(stats) {
				fmt.Fprintf(out, "%-28s %d\n", ec.Event.Name, ec.Count)
			}
			return nil
		},
	}

	return cmd
}

// ---------- registrations export ----------

func newRegistrationsExportCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all registrations to an .xlsx workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = export.Filename(viper.GetString("site.festival_name"), time.Now())
			}

			regs, err := loadRegistrations()
			if err != nil {
				return err
			}

			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create %s: %w", path, err)
			}
			if err := export.WriteXLSX(f, regs); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d registration(s) to %s\n", len(regs), path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "out", "o", "", "Output file (default: <Festival>_Registrations_<date>.xlsx)")

	return cmd
}
