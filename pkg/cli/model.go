package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mchmarny/trustchain/pkg/model"
	urfave "github.com/urfave/cli/v3"
)

const (
	modelFileFlagName = "file"
	featuresFlagName  = "features"
)

func newModelFileFlag() *urfave.StringFlag {
	return &urfave.StringFlag{
		Name:  modelFileFlagName,
		Usage: "Path to a model blob (default: embedded model)",
	}
}

func newModelCmd() *urfave.Command {
	return &urfave.Command{
		Name:            "model",
		HideHelpCommand: true,
		Usage:           "Inspect the logistic reputation model",
		Commands: []*urfave.Command{
			{
				Name:   "validate",
				Usage:  "Decode the model and print its shape",
				Action: cmdModelValidate,
				Flags:  []urfave.Flag{newModelFileFlag()},
			},
			{
				Name:   "predict",
				Usage:  "Run the model on a feature vector",
				Action: cmdModelPredict,
				Flags: []urfave.Flag{
					newModelFileFlag(),
					&urfave.StringFlag{
						Name:     featuresFlagName,
						Usage:    "Comma-separated feature values, one per model weight",
						Required: true,
					},
				},
			},
		},
	}
}

// ModelInfo describes a decoded model.
type ModelInfo struct {
	Source   string    `json:"source" yaml:"source"`
	Features int       `json:"features" yaml:"features"`
	Weights  []float64 `json:"weights" yaml:"weights"`
	Bias     float64   `json:"bias" yaml:"bias"`
}

// Prediction is the output of the model on one feature vector.
type Prediction struct {
	Features   []float64 `json:"features" yaml:"features"`
	Prediction float64   `json:"prediction" yaml:"prediction"`
}

func selectModel(cmd *urfave.Command) (*model.Model, string, error) {
	path := cmd.String(modelFileFlagName)
	if path == "" {
		return getConfig(cmd).Model, "embedded", nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading model file %s: %w", path, err)
	}
	m, err := model.Decode(b)
	if err != nil {
		return nil, "", fmt.Errorf("decoding model file %s: %w", path, err)
	}
	return m, path, nil
}

func cmdModelValidate(_ context.Context, cmd *urfave.Command) error {
	m, src, err := selectModel(cmd)
	if err != nil {
		return err
	}

	w := m.Weights()
	return printResult(cmd, &ModelInfo{
		Source:   src,
		Features: len(w),
		Weights:  w,
		Bias:     m.Bias(),
	})
}

func cmdModelPredict(_ context.Context, cmd *urfave.Command) error {
	m, _, err := selectModel(cmd)
	if err != nil {
		return err
	}

	features, err := parseFeatures(cmd.String(featuresFlagName))
	if err != nil {
		return err
	}

	p, err := m.Predict(features)
	if err != nil {
		return fmt.Errorf("predicting: %w", err)
	}

	return printResult(cmd, &Prediction{Features: features, Prediction: p})
}

func parseFeatures(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("features required")
	}

	parts := strings.Split(s, ",")
	list := make([]float64, 0, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("parsing feature[%d] %q: %w", i, p, err)
		}
		list = append(list, v)
	}
	return list, nil
}
