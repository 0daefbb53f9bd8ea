package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/structpb"

	"interiordesigner/internal/apperr"
)

// VertexConfig describes how to reach Imagen on Vertex AI.
type VertexConfig struct {
	ProjectID       string
	Location        string
	Model           string
	CredentialsFile string
}

// VertexEditor edits images with Imagen's free-form inpainting.
type VertexEditor struct {
	cfg     VertexConfig
	timeout time.Duration
}

// NewVertexEditor validates cfg and returns an editor. The prediction client
// is created per call so an idle editor holds no connections.
func NewVertexEditor(_ context.Context, cfg VertexConfig, timeout time.Duration) (*VertexEditor, error) {
	cfg.ProjectID = strings.TrimSpace(cfg.ProjectID)
	cfg.Location = strings.TrimSpace(cfg.Location)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.CredentialsFile = strings.TrimSpace(cfg.CredentialsFile)
	if cfg.ProjectID == "" || cfg.Location == "" || cfg.Model == "" {
		return nil, apperr.Configuration("vertex", "project, location and model are required")
	}
	return &VertexEditor{cfg: cfg, timeout: timeout}, nil
}

func (v *VertexEditor) endpoint() string {
	return fmt.Sprintf("projects/%s/locations/%s/publishers/google/models/%s", v.cfg.ProjectID, v.cfg.Location, v.cfg.Model)
}

// Edit runs an Imagen edit prediction against the base image.
func (v *VertexEditor) Edit(ctx context.Context, req EditRequest) (ImageResult, error) {
	if v == nil {
		return ImageResult{}, apperr.Configuration("vertex", "client not configured")
	}
	if err := req.validate("vertex"); err != nil {
		return ImageResult{}, err
	}

	instance, params, err := vertexPayload(req)
	if err != nil {
		return ImageResult{}, apperr.Service("vertex", "build request", err)
	}

	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	options := []option.ClientOption{option.WithEndpoint(fmt.Sprintf("%s-aiplatform.googleapis.com:443", v.cfg.Location))}
	if v.cfg.CredentialsFile != "" {
		options = append(options, option.WithCredentialsFile(v.cfg.CredentialsFile))
	}
	client, err := aiplatform.NewPredictionClient(ctx, options...)
	if err != nil {
		return ImageResult{}, apperr.Service("vertex", "prediction client", err)
	}
	defer client.Close()

	resp, err := client.Predict(ctx, &aiplatformpb.PredictRequest{
		Endpoint:   v.endpoint(),
		Instances:  []*structpb.Value{instance},
		Parameters: params,
	})
	if err != nil {
		return ImageResult{}, apperr.Service("vertex", "predict", err)
	}
	return decodePrediction(resp.GetPredictions())
}

func vertexPayload(req EditRequest) (*structpb.Value, *structpb.Value, error) {
	instance, err := structpb.NewValue(map[string]any{
		"prompt": req.Prompt,
		"image": map[string]any{
			"bytesBase64Encoded": base64.StdEncoding.EncodeToString(req.Image),
		},
	})
	if err != nil {
		return nil, nil, err
	}
	params, err := structpb.NewValue(map[string]any{
		"sampleCount": 1,
		"editMode":    "inpainting-free-form",
	})
	if err != nil {
		return nil, nil, err
	}
	return instance, params, nil
}

func decodePrediction(predictions []*structpb.Value) (ImageResult, error) {
	if len(predictions) == 0 {
		return ImageResult{}, apperr.Service("vertex", "empty prediction response", nil)
	}
	fields := predictions[0].GetStructValue().GetFields()
	encoded := fields["bytesBase64Encoded"]
	if encoded == nil || encoded.GetStringValue() == "" {
		return ImageResult{}, apperr.Service("vertex", "prediction missing image bytes", nil)
	}
	data, err := base64.StdEncoding.DecodeString(encoded.GetStringValue())
	if err != nil {
		return ImageResult{}, apperr.Service("vertex", "decode prediction", err)
	}
	mime := "image/png"
	if m := fields["mimeType"]; m != nil && m.GetStringValue() != "" {
		mime = m.GetStringValue()
	}
	return ImageResult{Data: data, MIME: mime}, nil
}
