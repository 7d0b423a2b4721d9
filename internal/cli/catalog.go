package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/geonodes/pkg/catalog"
)

// catalogCommand creates the catalog command.
func (c *CLI) catalogCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "catalog [TYPE...]",
		Short: "List the node types the host can create",
		Long: `List the node types of the active catalog with their sockets.

The built-in catalog can be replaced with a TOML file via the "catalog"
config key or GEONODES_CATALOG.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.loadCatalog()
			if err != nil {
				return err
			}
			defs, err := selectNodeDefs(cat, args)
			if err != nil {
				return err
			}
			if asJSON {
				return writeCatalogJSON(cmd.OutOrStdout(), defs)
			}
			fmt.Fprintln(cmd.OutOrStdout(), catalogTable(defs))
			printDetail("%d node types · catalog %s", cat.Len(), shortHash(cat.Hash()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the node definitions as JSON")

	return cmd
}

// selectNodeDefs returns the named definitions, or all of them sorted by type.
func selectNodeDefs(cat *catalog.Catalog, types []string) ([]*catalog.NodeDef, error) {
	if len(types) == 0 {
		return cat.Sorted(), nil
	}
	defs := make([]*catalog.NodeDef, 0, len(types))
	for _, t := range types {
		def, ok := cat.Lookup(t)
		if !ok {
			return nil, fmt.Errorf("unknown node type %q", t)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func writeCatalogJSON(w io.Writer, defs []*catalog.NodeDef) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(defs)
}

func catalogTable(defs []*catalog.NodeDef) string {
	rows := make([][]string, len(defs))
	for i, d := range defs {
		rows[i] = []string{d.Type, d.Label, socketNames(d.Inputs), socketNames(d.Outputs)}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Type", "Label", "Inputs", "Outputs").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0:
				return StyleHighlight
			}
			return StyleDim
		}).
		Render()
}

func socketNames(sockets []catalog.SocketDef) string {
	if len(sockets) == 0 {
		return "—"
	}
	names := make([]string, len(sockets))
	for i, s := range sockets {
		names[i] = s.Name
	}
	return strings.Join(names, ", ")
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
