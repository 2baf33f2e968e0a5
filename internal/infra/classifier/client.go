package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/agrosathi/agrosathi/internal/domain/diagnosis"
	apperrors "github.com/agrosathi/agrosathi/pkg/errors"
)

const (
	predictPath   = "/predict"
	formField     = "image"
	formFilename  = "plant.jpg"
	maxErrorBytes = 512
)

// Client forwards leaf images to the disease model service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a classifier client. A nil httpClient uses http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

type predictResponse struct {
	ClassName  string   `json:"class_name"`
	Confidence *float64 `json:"confidence"`
}

// Classify posts image to the model and returns the normalized label.
func (c *Client) Classify(ctx context.Context, image []byte) (diagnosis.ClassificationResult, error) {
	body, contentType, err := encodeImage(image)
	if err != nil {
		return diagnosis.ClassificationResult{}, apperrors.Wrap(apperrors.CodeClassificationFailed, "encode image", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+predictPath, body)
	if err != nil {
		return diagnosis.ClassificationResult{}, apperrors.Wrap(apperrors.CodeClassificationFailed, "build classifier request", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return diagnosis.ClassificationResult{}, apperrors.Wrap(apperrors.CodeClassificationFailed, "image prediction failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
		return diagnosis.ClassificationResult{}, apperrors.Wrap(
			apperrors.CodeClassificationFailed,
			"image prediction failed",
			fmt.Errorf("classifier status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))),
		)
	}

	var payload predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return diagnosis.ClassificationResult{}, apperrors.Wrap(apperrors.CodeClassificationFailed, "decode classifier response", err)
	}
	label := NormalizeLabel(payload.ClassName)
	if label == "" {
		return diagnosis.ClassificationResult{}, apperrors.Wrap(apperrors.CodeClassificationFailed, "classifier returned no class name", nil)
	}
	return diagnosis.ClassificationResult{DiseaseLabel: label, Confidence: payload.Confidence}, nil
}

func encodeImage(image []byte) (io.Reader, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(formField, formFilename)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}

// NormalizeLabel turns dataset labels such as "Tomato___Late_blight" into
// "Tomato - Late blight".
func NormalizeLabel(raw string) string {
	label := strings.TrimSpace(raw)
	label = strings.ReplaceAll(label, "___", " - ")
	label = strings.ReplaceAll(label, "_", " ")
	return strings.Join(strings.Fields(label), " ")
}

var _ diagnosis.Classifier = (*Client)(nil)
