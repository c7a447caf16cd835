package main

import (
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/harborlight/siteshell/pkg/routes"
)

func routesCmd(configPath *string) *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Print the route table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath, nil)
			if err != nil {
				return err
			}
			entries := cfg.RouteEntries()
			if asYAML {
				return writeRoutesYAML(os.Stdout, entries)
			}
			writeRoutesTable(os.Stdout, entries)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print the table as YAML")

	return cmd
}

func writeRoutesTable(w io.Writer, entries []routes.RouteEntry) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Path", "Module"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})

	for _, e := range entries {
		path := e.Pattern
		if e.IsFallback {
			path = "*"
		}
		table.Append([]string{path, e.ModuleID})
	}
	table.SetFooter([]string{fmt.Sprintf("%d routes", len(entries)), ""})
	table.Render()
}

func writeRoutesYAML(w io.Writer, entries []routes.RouteEntry) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return err
	}
	return enc.Close()
}
