package main

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/fliplens/appraise-cli/internal/analyzer"
	"github.com/fliplens/appraise-cli/internal/model"
)

// scanFlags are the inputs shared by the card and watch commands.
type scanFlags struct {
	front     string
	back      string
	buy       float64
	shipIn    float64
	condition string

	// Manual corrections; each outranks whatever the scan read.
	set     string
	number  string
	name    string
	variant string
	year    int
	grade   string
	cert    string

	feeRate float64
	noCache bool
	asJSON  bool
}

func (f *scanFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.front, "front", "", "front photo path")
	cmd.Flags().StringVar(&f.back, "back", "", "back photo path")
	cmd.Flags().Float64Var(&f.buy, "buy", 0, "asking price; 0 computes max buy only")
	cmd.Flags().Float64Var(&f.shipIn, "ship-in", 0, "inbound shipping cost")
	cmd.Flags().StringVar(&f.condition, "condition", "", "condition bucket (raw, graded, used, new)")
	cmd.Flags().StringVar(&f.set, "set", "", "set or brand override")
	cmd.Flags().StringVar(&f.number, "number", "", "card number or watch reference override")
	cmd.Flags().StringVar(&f.name, "name", "", "player or model name override")
	cmd.Flags().StringVar(&f.variant, "variant", "", "parallel or configuration override")
	cmd.Flags().IntVar(&f.year, "year", 0, "release year override")
	cmd.Flags().StringVar(&f.grade, "grade", "", "grade override, e.g. \"PSA 10\"")
	cmd.Flags().StringVar(&f.cert, "cert", "", "grading cert number to verify")
	cmd.Flags().Float64Var(&f.feeRate, "fee-rate", -1, "platform fee rate override, e.g. 0.1295")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "bypass the price snapshot cache")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "emit the full analysis as JSON")
}

// request loads the photos and assembles the analyzer request.
func (f *scanFlags) request() (analyzer.Request, error) {
	req := analyzer.Request{
		Manual: analyzer.ManualFields{
			Name:       f.name,
			SetOrBrand: f.set,
			Number:     f.number,
			Variant:    f.variant,
			Year:       f.year,
			Grade:      f.grade,
			CertNumber: f.cert,
		},
		Condition:  model.ConditionBucket(f.condition),
		BuyPrice:   f.buy,
		ShippingIn: f.shipIn,
	}
	if f.feeRate >= 0 {
		rate := f.feeRate
		req.FeeRateOverride = &rate
	}

	var err error
	if f.front != "" {
		if req.FrontImage, err = loadImage(f.front); err != nil {
			return req, err
		}
		req.MediaType = mediaTypeFor(f.front)
	}
	if f.back != "" {
		if req.BackImage, err = loadImage(f.back); err != nil {
			return req, err
		}
		if req.MediaType == "" {
			req.MediaType = mediaTypeFor(f.back)
		}
	}
	return req, nil
}

func loadImage(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read image %s", path)
	}
	if max := cfg.Vision.MaxImageBytes; max > 0 && int64(len(data)) > max {
		return nil, eris.Errorf("image %s is %d bytes, over the %d byte limit", path, len(data), max)
	}
	return data, nil
}

func mediaTypeFor(path string) string {
	switch {
	case strings.HasSuffix(strings.ToLower(path), ".png"):
		return "image/png"
	case strings.HasSuffix(strings.ToLower(path), ".webp"):
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
