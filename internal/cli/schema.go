package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/menta2k/snapfx/pkg/node"
)

func newSchemaCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "schema [node]...",
		Short: "Print node input and output declarations",
		Long:  `Print the schema of every node, or of the nodes named by their name or display name.`,
		Example: `  snapfx schema
  snapfx schema --as json "Snap Text"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fx := newFX(cmd)

			schemas := fx.Schemas()
			if len(args) > 0 {
				schemas = schemas[:0:0]
				for _, name := range args {
					s, ok := fx.Schema(name)
					if !ok {
						return fmt.Errorf("unknown node %q", name)
					}
					schemas = append(schemas, s)
				}
			}

			data, err := marshalSchemas(schemas, format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVar(&format, "as", "yaml", "output encoding: yaml or json")
	return cmd
}

func marshalSchemas(schemas []node.Schema, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		return yaml.Marshal(schemas)
	case "json":
		data, err := json.MarshalIndent(schemas, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
	return nil, fmt.Errorf("unknown schema encoding %q (use yaml or json)", format)
}
