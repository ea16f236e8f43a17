package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/roledash/internal/core"
	"github.com/JonMunkholm/roledash/internal/export"
	"github.com/JonMunkholm/roledash/internal/flatten"
	"github.com/JonMunkholm/roledash/internal/logging"
	"github.com/JonMunkholm/roledash/internal/roles"
)

// readRecord flattens the payload named by args, or stdin when args is
// empty or "-".
func readRecord(cmd *cobra.Command, args []string) (*flatten.Record, error) {
	var (
		data []byte
		err  error
		src  = "stdin"
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		src = args[0]
		data, err = os.ReadFile(filepath.Clean(src))
	}
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}

	rec, err := flatten.Flatten(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src, err)
	}
	logging.FromContext(cmd.Context()).Info("payload flattened", "source", src, "fields", rec.Len())
	return rec, nil
}

func newFlattenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flatten [payload.json]",
		Short: "Print the flattened payload as a JSON object of dotted keys",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := readRecord(cmd, args)
			if err != nil {
				return err
			}
			out, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
}

func newCSVCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "csv [payload.json]",
		Short: "Print the payload as a one-record CSV",
		Long: `Print the payload as a header row of dotted keys and one value row.

By default values are JSON literals joined by commas, matching the
dashboard's CSV download. --strict writes RFC 4180 CSV instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := readRecord(cmd, args)
			if err != nil {
				return err
			}

			out := export.ToCSV(rec)
			if strict {
				if out, err = export.ToCSVStrict(rec); err != nil {
					return err
				}
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "write RFC 4180 CSV")
	return cmd
}

func newRowsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rows [payload.json]",
		Short: "Print the field/value table as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := readRecord(cmd, args)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(export.ToRows(rec))
		},
	}
}

func newXLSXCmd() *cobra.Command {
	var output, title string

	cmd := &cobra.Command{
		Use:   "xlsx [payload.json]",
		Short: "Write the field/value table as an Excel workbook",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := readRecord(cmd, args)
			if err != nil {
				return err
			}
			body, err := export.ToXLSX(title, export.ToRows(rec))
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, body, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			logging.FromContext(cmd.Context()).Info("workbook written", "path", output, "bytes", len(body))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "workbook path")
	cmd.Flags().StringVar(&title, "title", "Dashboard Data", "sheet title")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func newColumnsCmd() *cobra.Command {
	var role, table, catalogPath string
	var idsOnly bool

	cmd := &cobra.Command{
		Use:   "columns",
		Short: "List the columns a role sees in a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := roles.LoadCatalog(catalogPath)
			if err != nil {
				return err
			}
			cols, err := cat.Columns(table, role)
			if err != nil {
				return err
			}

			if idsOnly {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), strings.Join(roles.ColumnIDs(cols), ","))
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tHEADER\tRULE")
			for _, c := range cols {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.Header, c.Rule)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "role name")
	cmd.Flags().StringVar(&table, "table", roles.TableRecommendations, "catalog table")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "role catalog YAML (default: embedded)")
	cmd.Flags().BoolVar(&idsOnly, "ids", false, "print only the comma-separated column IDs")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func newViewCmd() *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Show which dashboard view a role gets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key := roles.DispatchName(role)
			def, ok := core.GetView(key)
			if !ok {
				return fmt.Errorf("no view registered for %q", key)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "role:  %s\n", roles.ParseRole(role))
			fmt.Fprintf(w, "view:  %s\n", def.Info.Key)
			fmt.Fprintf(w, "title: %s\n", def.Info.Title)
			for _, c := range def.Cards {
				fmt.Fprintf(w, "card:  %s (%s)\n", c.Title, c.Path)
			}
			for _, c := range def.Charts {
				fmt.Fprintf(w, "chart: %s [%s] (%s)\n", c.Title, c.Kind, c.Path)
			}
			if def.Aggregate {
				fmt.Fprintln(w, "sections: customers, top insights, customer flow")
			}
			if def.KnowledgeTable {
				fmt.Fprintln(w, "sections: knowledge quiz table")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "role name; empty or unknown names get the default view")
	return cmd
}
