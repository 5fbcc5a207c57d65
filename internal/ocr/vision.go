package ocr

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"
)

const featureTextDetection = "TEXT_DETECTION"

// VisionExtractor runs TEXT_DETECTION through the Google Cloud Vision REST API.
type VisionExtractor struct {
	service *vision.Service
	timeout time.Duration
	logger  *slog.Logger
}

func NewVisionExtractor(ctx context.Context, credentialsFile string, timeout time.Duration, logger *slog.Logger) (*VisionExtractor, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	svc, err := vision.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create vision client: %w", err)
	}

	return &VisionExtractor{
		service: svc,
		timeout: timeout,
		logger:  logger,
	}, nil
}

func (v *VisionExtractor) Extract(ctx context.Context, image []byte) (*Result, error) {
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{
			{
				Image:    &vision.Image{Content: base64.StdEncoding.EncodeToString(image)},
				Features: []*vision.Feature{{Type: featureTextDetection}},
			},
		},
	}

	resp, err := v.service.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("annotate image: %w", err)
	}
	if len(resp.Responses) == 0 {
		return nil, errors.New("annotate image: empty response")
	}

	annotated := resp.Responses[0]
	if annotated.Error != nil && annotated.Error.Message != "" {
		return nil, fmt.Errorf("annotate image: %s", annotated.Error.Message)
	}

	texts := annotated.TextAnnotations
	if len(texts) == 0 {
		v.logger.Debug("no text detected on receipt")
		return Empty(), nil
	}

	// the first annotation carries the full text, the rest are individual words
	result := Parse(texts[0].Description)
	result.Confidence = MeanConfidence(texts[1:])
	return result, nil
}

// MeanConfidence averages annotation confidence as a 0-100 integer.
func MeanConfidence(words []*vision.EntityAnnotation) int {
	if len(words) == 0 {
		return 0
	}
	var sum float64
	for _, w := range words {
		sum += w.Confidence
	}
	return int(math.Round(sum / float64(len(words)) * 100))
}
