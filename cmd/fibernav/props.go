package main

import (
	"os"

	"github.com/agilira/go-errors"
	"github.com/spf13/cobra"

	"fibernav/pkg/propio"
)

// ErrCodeOutput marks a failure to write command output.
const ErrCodeOutput = "CLI_OUTPUT"

var propsOutput string

func init() {
	cmd := newPropsCmd()
	addSessionFlags(cmd)
	cmd.Flags().StringVarP(&propsOutput, "output", "o", "", "Write to this file instead of stdout")
	rootCmd.AddCommand(cmd)
}

func newPropsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "props",
		Short: "Export the region properties of a layout",
		Long: `The props command writes the property tree of every branch and region
of the layout as YAML. Edit the values and pass the file to
"fibernav select --props" to apply them.

Example:
  fibernav props --layout rois.yaml -o tuned.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProps()
		},
	}
}

func runProps() error {
	rt, err := setup()
	if err != nil {
		return err
	}
	s, err := newSession(rt)
	if err != nil {
		return err
	}
	tree, err := s.manager.PropertyTree()
	if err != nil {
		return err
	}

	if propsOutput != "" {
		if err := propio.Save(tree, propsOutput); err != nil {
			return err
		}
		rt.log.Info("wrote properties", "path", propsOutput)
		return nil
	}
	data, err := propio.Marshal(tree)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	if err != nil {
		return errors.Wrap(err, ErrCodeOutput, "failed to write properties")
	}
	return nil
}
