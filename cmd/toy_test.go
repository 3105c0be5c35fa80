package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fliplens/appraise-cli/internal/config"
	"github.com/fliplens/appraise-cli/internal/identity"
	"github.com/fliplens/appraise-cli/internal/model"
)

func resetToyFlags(t *testing.T) {
	t.Helper()
	prevCfg := cfg
	cfg = &config.Config{}
	toyFront, toyBack = "", ""
	toyCues, toyStrongCues, toyCandidates = nil, nil, nil
	toyConfidence = 0
	toyFranchise, toyItemName = "", ""
	toyJSON = false
	t.Cleanup(func() { cfg = prevCfg })
}

func writeTempPhoto(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "front.jpg")
	require.NoError(t, os.WriteFile(path, []byte{0xFF, 0xD8, 0xFF, 0xE0}, 0o644))
	return path
}

func TestBuildToyInput(t *testing.T) {
	resetToyFlags(t)
	toyFront = writeTempPhoto(t)
	toyCues = []string{"blister pack"}
	toyStrongCues = []string{"logo", "copyright stamp"}
	toyConfidence = 72
	toyFranchise = "Star Wars"

	in, err := buildToyInput()
	require.NoError(t, err)

	require.Len(t, in.Signals, 3)
	assert.False(t, in.Signals[0].Strong)
	assert.True(t, in.Signals[1].Strong)
	assert.True(t, in.Signals[2].Strong)
	require.NotNil(t, in.FrontEvidence)
	assert.Equal(t, model.SourceFrontScan, in.FrontEvidence.Source)
	assert.Nil(t, in.BackEvidence)
	assert.Equal(t, 72.0, in.ModelConfidence)
	assert.Equal(t, "Star Wars", in.Franchise)
}

func TestBuildToyInput_MissingPhoto(t *testing.T) {
	resetToyFlags(t)
	toyFront = filepath.Join(t.TempDir(), "nope.jpg")

	_, err := buildToyInput()
	require.Error(t, err)
}

func TestToyCommand_FrontOnlyWarnsInTrace(t *testing.T) {
	resetToyFlags(t)
	toyFront = writeTempPhoto(t)
	toyStrongCues = []string{"logo", "copyright stamp"}
	toyConfidence = 50

	in, err := buildToyInput()
	require.NoError(t, err)
	res := identity.RunToyPipeline(in)

	var buf bytes.Buffer
	printToyResult(&buf, res)
	out := buf.String()
	assert.Contains(t, out, "object_type")
	assert.Contains(t, out, "signal-count override")
	assert.Contains(t, out, "warning: object type accepted from a single face")
}

func TestPrintToyResult_AutoConfirm(t *testing.T) {
	resetToyFlags(t)
	toyFront = writeTempPhoto(t)
	toyBack = writeTempPhoto(t)
	toyConfidence = 95
	toyFranchise = "LEGO"
	toyItemName = "Millennium Falcon 75192"
	toyCandidates = []string{"75192"}

	in, err := buildToyInput()
	require.NoError(t, err)
	res := identity.RunToyPipeline(in)
	require.Equal(t, identity.ToyTierAutoConfirm, res.DisplayTier)

	var buf bytes.Buffer
	printToyResult(&buf, res)
	assert.Contains(t, buf.String(), "Millennium Falcon 75192 (auto_confirm)")
	assert.Contains(t, buf.String(), "auto-confirmed")
}
