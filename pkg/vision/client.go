// Package vision extracts identifying fields from item photos using the
// Anthropic API. One call covers one face of one item; the caller merges
// faces afterward.
package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	defaultModel     = "claude-sonnet-4-5-20250929"
	defaultMaxTokens = 1024
)

// Client defines the vision extraction operations the analyzer uses.
type Client interface {
	ExtractFace(ctx context.Context, req ExtractionRequest) (*Extraction, error)
}

// ExtractionRequest identifies one photo of one face of an item.
type ExtractionRequest struct {
	Category  string // "card" or "watch"
	Face      string // "front" or "back"
	MediaType string // e.g. "image/jpeg"
	ImageData []byte
}

// Extraction is the sparse set of fields the model could read off the photo.
// Empty strings mean the field was not visible, not that it is absent on the
// item.
type Extraction struct {
	// Card fields
	SetName    string `json:"set_name,omitempty"`
	Year       string `json:"year,omitempty"`
	CardNumber string `json:"card_number,omitempty"`
	PlayerName string `json:"player_name,omitempty"`
	Variant    string `json:"variant,omitempty"`
	GradeLabel string `json:"grade_label,omitempty"`
	CertNumber string `json:"cert_number,omitempty"`

	// Watch fields
	Brand     string `json:"brand,omitempty"`
	ModelName string `json:"model_name,omitempty"`
	RefNumber string `json:"ref_number,omitempty"`
	DialColor string `json:"dial_color,omitempty"`

	// Confidence is the model's own 0-100 read confidence for this face.
	Confidence int `json:"confidence"`
}

// Option configures the client.
type Option func(*sdkClient)

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *sdkClient) {
		c.model = model
	}
}

type sdkClient struct {
	client sdk.Client
	model  string
}

// NewClient creates a vision client backed by the official SDK.
func NewClient(apiKey string, opts ...Option) Client {
	c := &sdkClient{
		client: sdk.NewClient(
			option.WithAPIKey(apiKey),
		),
		model: defaultModel,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *sdkClient) ExtractFace(ctx context.Context, req ExtractionRequest) (*Extraction, error) {
	if len(req.ImageData) == 0 {
		return nil, eris.New("vision: empty image")
	}
	mediaType := req.MediaType
	if mediaType == "" {
		mediaType = "image/jpeg"
	}

	encoded := base64.StdEncoding.EncodeToString(req.ImageData)
	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: defaultMaxTokens,
		System: []sdk.TextBlockParam{
			{Text: systemPrompt(req.Category)},
		},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(
				sdk.NewImageBlockBase64(mediaType, encoded),
				sdk.NewTextBlock(facePrompt(req.Face)),
			),
		},
	})
	if err != nil {
		return nil, eris.Wrapf(err, "vision: extract %s %s", req.Category, req.Face)
	}

	text := firstText(msg)
	if text == "" {
		return nil, eris.New("vision: empty model response")
	}

	ext, err := parseExtraction(text)
	if err != nil {
		return nil, err
	}

	zap.L().Debug("vision extraction",
		zap.String("category", req.Category),
		zap.String("face", req.Face),
		zap.Int("confidence", ext.Confidence))
	return ext, nil
}

func firstText(msg *sdk.Message) string {
	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text
		}
	}
	return ""
}

// parseExtraction tolerates a response wrapped in a markdown code fence.
func parseExtraction(text string) (*Extraction, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if i := strings.LastIndex(text, "```"); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
	}

	var ext Extraction
	if err := json.Unmarshal([]byte(text), &ext); err != nil {
		return nil, eris.Wrap(err, "vision: parse extraction")
	}
	if ext.Confidence < 0 {
		ext.Confidence = 0
	}
	if ext.Confidence > 100 {
		ext.Confidence = 100
	}
	return &ext, nil
}
