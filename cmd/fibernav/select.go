package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fibernav/pkg/propio"
	"fibernav/pkg/threading"
)

var (
	selectProps   string
	selectIndices bool
)

func init() {
	cmd := newSelectCmd()
	addSessionFlags(cmd)
	cmd.Flags().StringVarP(&selectProps, "props", "p", "", "Property file applied to the layout's regions")
	cmd.Flags().BoolVar(&selectIndices, "indices", false, "List the selected fiber indices")
	rootCmd.AddCommand(cmd)
}

func newSelectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select",
		Short: "Report the fibers selected by a layout",
		Long: `The select command generates a fiber dataset, applies the layout and
prints how many fibers the combined regions select together with their
length statistics.

Example:
  fibernav select --layout rois.yaml
  fibernav select --layout rois.yaml --props tuned.yaml --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelect()
		},
	}
}

type selectResult struct {
	Fibers     int     `json:"fibers"`
	Branches   int     `json:"branches"`
	Selected   int     `json:"selected"`
	Vertices   int     `json:"vertices"`
	MeanLength float64 `json:"meanLength"`
	StdLength  float64 `json:"stdLength"`
	Indices    []int   `json:"indices,omitempty"`
}

func runSelect() error {
	rt, err := setup()
	if err != nil {
		return err
	}
	s, err := newSession(rt)
	if err != nil {
		return err
	}

	if selectProps != "" {
		tree, err := s.manager.PropertyTree()
		if err != nil {
			return err
		}
		rep, err := propio.Load(selectProps, tree)
		if err != nil {
			return err
		}
		if len(rep.Rejected) > 0 {
			rt.log.Warn("property values rejected", "paths", rep.Rejected)
		}
		if len(rep.Unknown) > 0 {
			rt.log.Warn("unknown properties in file", "paths", rep.Unknown)
		}
		rt.log.Info("applied properties", "path", selectProps, "count", len(rep.Applied))
	}

	s.manager.Wait()
	bits := s.manager.BitField()

	lengths, err := s.dataset.Lengths(rt.cfg.Threads.Count,
		threading.WithLogger(rt.log), threading.WithMetrics(rt.metrics))
	if err != nil {
		return err
	}
	selected := bits.Indices()
	st := s.dataset.SelectionStats(lengths, selected)

	res := selectResult{
		Fibers:     s.dataset.Size(),
		Branches:   len(s.manager.Branches()),
		Selected:   st.Fibers,
		Vertices:   st.Vertices,
		MeanLength: st.MeanLength,
		StdLength:  st.StdLength,
	}
	if selectIndices {
		res.Indices = selected
	}
	rt.reportMetrics()

	if jsonOut {
		return printJSON(res)
	}
	fmt.Printf("Fibers:      %d\n", res.Fibers)
	fmt.Printf("Branches:    %d\n", res.Branches)
	fmt.Printf("Selected:    %d (%d vertices)\n", res.Selected, res.Vertices)
	fmt.Printf("Mean length: %.3f\n", res.MeanLength)
	fmt.Printf("Std length:  %.3f\n", res.StdLength)
	if selectIndices {
		fmt.Printf("Indices:     %v\n", res.Indices)
	}
	return nil
}
