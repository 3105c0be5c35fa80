package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/fliplens/appraise-cli/internal/identity"
	"github.com/fliplens/appraise-cli/internal/model"
)

var (
	toyFront      string
	toyBack       string
	toyCues       []string
	toyStrongCues []string
	toyConfidence float64
	toyFranchise  string
	toyItemName   string
	toyCandidates []string
	toyJSON       bool
)

// toyCmd is a debugging surface: it replays detector cues through the
// five-stage low-signal resolver and prints the stage trace. Photos stand in
// as scan evidence; no vision call is made.
var toyCmd = &cobra.Command{
	Use:   "toy",
	Short: "Replay cues through the low-signal collectible resolver",
	Long:  "Feeds detector cues, extraction fields, and scan photos straight through the five-stage collectible resolver and prints each stage's outcome, the display tier, and every warning.",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := buildToyInput()
		if err != nil {
			return err
		}

		res := identity.RunToyPipeline(in)
		if toyJSON {
			return printJSON(cmd.OutOrStdout(), res)
		}
		printToyResult(cmd.OutOrStdout(), res)
		return nil
	},
}

func buildToyInput() (identity.ToyInput, error) {
	in := identity.ToyInput{
		ModelConfidence: toyConfidence,
		Franchise:       toyFranchise,
		ItemName:        toyItemName,
		Candidates:      toyCandidates,
	}
	for _, cue := range toyCues {
		in.Signals = append(in.Signals, identity.VisualSignal{Cue: cue})
	}
	for _, cue := range toyStrongCues {
		in.Signals = append(in.Signals, identity.VisualSignal{Cue: cue, Strong: true})
	}

	var err error
	if in.FrontEvidence, err = toyScanEvidence(toyFront, model.SourceFrontScan); err != nil {
		return in, err
	}
	if in.BackEvidence, err = toyScanEvidence(toyBack, model.SourceBackScan); err != nil {
		return in, err
	}
	return in, nil
}

// toyScanEvidence loads the photo only to record that the face was scanned;
// the resolver keys on evidence presence, not content.
func toyScanEvidence(path string, source model.EvidenceSource) (*model.Evidence, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := loadImage(path); err != nil {
		return nil, err
	}
	return &model.Evidence{
		Source:     source,
		Confidence: toyConfidence,
		CapturedAt: time.Now().UTC(),
	}, nil
}

func printToyResult(w io.Writer, res identity.ToyResult) {
	for _, st := range res.Stages {
		mark := "fail"
		if st.Passed {
			mark = "pass"
		}
		fmt.Fprintf(w, "%d %-18s %-4s %5.0f  %s\n", st.Stage, st.Name, mark, st.Confidence, st.Detail)
	}
	fmt.Fprintf(w, "\n%s (%s)\n", res.Label, res.DisplayTier)
	if res.AutoConfirmed {
		fmt.Fprintln(w, "auto-confirmed")
	}
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
}

func init() {
	toyCmd.Flags().StringVar(&toyFront, "front", "", "front photo path")
	toyCmd.Flags().StringVar(&toyBack, "back", "", "back photo path")
	toyCmd.Flags().StringSliceVar(&toyCues, "cue", nil, "visual cue observed by the detector (repeatable)")
	toyCmd.Flags().StringSliceVar(&toyStrongCues, "strong-cue", nil, "strong visual cue; two or more force the type classification")
	toyCmd.Flags().Float64Var(&toyConfidence, "confidence", 0, "vision model type confidence, 0-100")
	toyCmd.Flags().StringVar(&toyFranchise, "franchise", "", "franchise evidence, e.g. \"Star Wars\"")
	toyCmd.Flags().StringVar(&toyItemName, "item-name", "", "extracted item name")
	toyCmd.Flags().StringSliceVar(&toyCandidates, "candidate", nil, "catalog candidate (repeatable)")
	toyCmd.Flags().BoolVar(&toyJSON, "json", false, "emit the full result as JSON")
	rootCmd.AddCommand(toyCmd)
}
