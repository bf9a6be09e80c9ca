package classifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"mangoapi/internal/config"
)

// Model names as deployed on the inference server.
const (
	leafModel  = "leaf-efficientnetb0"
	fruitModel = "fruit-efficientnetb0"
)

// httpClassifier calls an external TF-Serving style inference server that
// hosts the EfficientNet leaf and fruit models. The server side handles image
// decoding and preprocessing; this client ships raw bytes.
type httpClassifier struct {
	baseURL string
	client  *http.Client
}

// NewHTTP creates a Classifier backed by the configured inference server.
func NewHTTP(cfg config.ClassifierConfig) (Classifier, error) {
	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("model server url is required")
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &httpClassifier{
		baseURL: cfg.ServerURL,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type predictRequest struct {
	Instances []predictInstance `json:"instances"`
}

type predictInstance struct {
	B64 string `json:"b64"`
}

type predictResponse struct {
	Predictions [][]float64 `json:"predictions"`
}

// ModelFor returns the served model name for a kind.
func ModelFor(kind Kind) string {
	if kind == KindFruit {
		return fruitModel
	}
	return leafModel
}

func (c *httpClassifier) Predict(ctx context.Context, image []byte, kind Kind) ([]float64, error) {
	body, err := json.Marshal(predictRequest{
		Instances: []predictInstance{{B64: base64.StdEncoding.EncodeToString(image)}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal predict request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/models/%s:predict", c.baseURL, ModelFor(kind))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call model server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("model server error: %d - %s", resp.StatusCode, string(msg))
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode predict response: %w", err)
	}
	if len(out.Predictions) == 0 {
		return nil, fmt.Errorf("model server returned no predictions")
	}
	return out.Predictions[0], nil
}
