// Package trainer talks to the external training service. The classifier is
// a black box on the far side of this client: it gets a feature table
// reference and a split, and reports job state back.
package trainer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// TrainingRequest points the trainer at one persisted run and its split.
type TrainingRequest struct {
	RunID      uuid.UUID   `json:"run_id"`
	Cutoffs    []time.Time `json:"cutoffs"`
	LabelSet   []string    `json:"label_set"`
	FeatureRef string      `json:"feature_ref"`
}

func (c *Client) Get(path string) (*http.Response, error) {
	url := fmt.Sprintf("http://%s%s", c.BaseURL, path)
	return c.HTTP.Get(url)
}

func (c *Client) Post(path string, body any) (*http.Response, error) {
	url := fmt.Sprintf("http://%s%s", c.BaseURL, path)

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewBuffer(b)
	}

	req, err := http.NewRequest(http.MethodPost, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.HTTP.Do(req)
}

func (c *Client) Delete(path string) (*http.Response, error) {
	url := fmt.Sprintf("http://%s%s", c.BaseURL, path)

	req, err := http.NewRequest(http.MethodDelete, url, nil)
	if err != nil {
		return nil, err
	}

	return c.HTTP.Do(req)
}
