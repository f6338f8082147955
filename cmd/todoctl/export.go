package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bryankimani/todo-list/internal/store"
)

func newExportCmd(opts *options) *cobra.Command {
	var format, dbPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all tasks and lists",
		Long: `Export every task and list as JSON or YAML.

Data comes from the server unless --db names a database file to read
directly.

Examples:
  todoctl export --format yaml > backup.yaml
  todoctl export --db database/db.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "json" && format != "yaml" {
				return fmt.Errorf("format must be json or yaml, got %q", format)
			}

			var (
				doc map[string]any
				err error
			)
			if dbPath != "" {
				doc, err = exportFile(dbPath)
			} else {
				doc, err = exportServer(cmd, newClient(opts.serverURL))
			}
			if err != nil {
				return err
			}
			return writeExport(cmd.OutOrStdout(), doc, format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or yaml")
	cmd.Flags().StringVar(&dbPath, "db", "", "read this database file instead of the server")
	return cmd
}

func exportServer(cmd *cobra.Command, c *client) (map[string]any, error) {
	var items, lists []any
	if _, err := c.do(cmd.Context(), http.MethodGet, "/items", nil, &items); err != nil {
		return nil, err
	}
	if _, err := c.do(cmd.Context(), http.MethodGet, "/lists", nil, &lists); err != nil {
		return nil, err
	}
	return map[string]any{"items": items, "lists": lists}, nil
}

// exportFile reads the database through the store codec so the export has
// the same normalized shape the server serves.
func exportFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	d, err := store.Decode(data)
	if err != nil {
		return nil, err
	}
	normalized, err := store.Encode(d)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(normalized, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return doc, nil
}

func writeExport(w io.Writer, doc map[string]any, format string) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
