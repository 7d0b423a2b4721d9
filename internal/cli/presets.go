package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/geonodes/pkg/descriptor"
	"github.com/matzehuels/geonodes/pkg/presets"
)

// errPickCancelled is returned when the user quits the picker.
var errPickCancelled = errors.New("no preset selected")

// presetsCommand creates the presets command group.
func (c *CLI) presetsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List, show and pick built-in transform presets",
	}

	cmd.AddCommand(c.presetsListCommand())
	cmd.AddCommand(c.presetsShowCommand())
	cmd.AddCommand(c.presetsPickCommand())

	return cmd
}

func (c *CLI) presetsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the built-in presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range presets.Names() {
				printKeyValue(name, presets.Describe(name))
			}
			return nil
		},
	}
}

func (c *CLI) presetsShowCommand() *cobra.Command {
	var target, attribute, output string

	cmd := &cobra.Command{
		Use:       "show NAME",
		Short:     "Print the descriptor of a preset",
		Example:   "  geonodes presets show rotate --target normal",
		Args:      cobra.ExactArgs(1),
		ValidArgs: presets.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := presets.ParseTarget(target)
			if err != nil {
				return err
			}
			d, err := presets.Build(args[0], t, attribute)
			if err != nil {
				return err
			}
			return writeDescriptor(cmd.OutOrStdout(), d, output)
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "geometry (default), position, normal, uv, color, custom")
	cmd.Flags().StringVar(&attribute, "attribute", "", "attribute name for --target custom")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the descriptor to a file instead of stdout")

	return cmd
}

func (c *CLI) presetsPickCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Choose a preset and target interactively and print its descriptor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, target, err := pickPreset(cmd.InOrStdin(), os.Stderr)
			if err != nil {
				return err
			}
			d, err := presets.Build(name, target, "")
			if err != nil {
				return err
			}
			return writeDescriptor(cmd.OutOrStdout(), d, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the descriptor to a file instead of stdout")

	return cmd
}

// pickPreset runs the preset picker and, for transform presets, the target
// picker. The UI is drawn on out so stdout stays clean for the descriptor.
func pickPreset(in io.Reader, out io.Writer) (string, presets.Target, error) {
	m, err := tea.NewProgram(NewPresetListModel(presets.Names()), tea.WithInput(in), tea.WithOutput(out)).Run()
	if err != nil {
		return "", "", fmt.Errorf("preset picker: %w", err)
	}
	name := m.(PresetListModel).Selected
	if name == "" {
		return "", "", errPickCancelled
	}
	if !hasTargets(name) {
		return name, presets.TargetGeometry, nil
	}

	m, err = tea.NewProgram(NewTargetListModel(name), tea.WithInput(in), tea.WithOutput(out)).Run()
	if err != nil {
		return "", "", fmt.Errorf("target picker: %w", err)
	}
	target := m.(TargetListModel).Selected
	if target == "" {
		return "", "", errPickCancelled
	}
	return name, target, nil
}

// hasTargets reports whether a preset can act on an attribute.
func hasTargets(name string) bool {
	switch name {
	case presets.Translate, presets.Rotate, presets.Scale:
		return true
	}
	return false
}

// writeDescriptor writes d to path, or to w when path is empty.
func writeDescriptor(w io.Writer, d *descriptor.Descriptor, path string) error {
	if path == "" {
		return descriptor.Write(d, w)
	}
	data, err := descriptor.Marshal(d)
	if err != nil {
		return err
	}
	if err := writeArtifact(path, data); err != nil {
		return err
	}
	printFile(path)
	return nil
}
