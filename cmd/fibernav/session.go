package main

import (
	"github.com/spf13/cobra"

	"fibernav/internal/models"
	"fibernav/pkg/fibers"
	"fibernav/pkg/property"
	"fibernav/pkg/roi"
)

var (
	layoutPath string
	fiberCount int
	seed       uint64
)

func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&layoutPath, "layout", "l", "", "ROI layout file")
	cmd.Flags().IntVar(&fiberCount, "fibers", 0, "Number of generated fibers (default from config)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Generator seed (default from config)")
}

// session is a manager over a generated dataset with an optional layout.
type session struct {
	dataset *fibers.Dataset
	manager *roi.Manager
}

func newSession(rt *env) (*session, error) {
	n := rt.cfg.Dataset.Fibers
	if fiberCount > 0 {
		n = fiberCount
	}
	s := rt.cfg.Dataset.Seed
	if seed > 0 {
		s = seed
	}
	ds := fibers.Generate(n, s)
	rt.log.Info("generated fiber dataset", "fibers", ds.Size(), "vertices", ds.VertexCount(), "seed", s)

	m := roi.NewManager(
		roi.WithLogger(rt.log),
		roi.WithMetrics(rt.metrics),
		roi.WithBackgroundRecompute(rt.cfg.ROI.BackgroundRecompute),
		roi.WithBundleColor(property.Color(rt.cfg.ROI.BundleColor)),
	)
	if err := m.AddFiberDataset(ds); err != nil {
		return nil, err
	}

	if layoutPath != "" {
		l, err := models.LoadLayout(layoutPath)
		if err != nil {
			return nil, err
		}
		if _, err := l.Apply(m); err != nil {
			return nil, err
		}
		rt.log.Info("applied layout", "path", layoutPath, "branches", len(l.Branches))
	}
	return &session{dataset: ds, manager: m}, nil
}
