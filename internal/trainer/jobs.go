package trainer

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ntentasd/pdm-pipeline/pkg/types"
)

func (c *Client) SubmitJob(req TrainingRequest) (*types.TrainingJob, error) {
	resp, err := c.Post("/api/v1/jobs", req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach trainer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("trainer returned %d: %s", resp.StatusCode, string(body))
	}

	var job types.TrainingJob
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, fmt.Errorf("failed to decode trainer response: %w", err)
	}
	return &job, nil
}

func (c *Client) GetJob(id string) (*types.TrainingJob, error) {
	resp, err := c.Get(fmt.Sprintf("/api/v1/jobs/%s", id))
	if err != nil {
		return nil, fmt.Errorf("failed to reach trainer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("trainer returned %d: %s", resp.StatusCode, string(body))
	}

	var job types.TrainingJob
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, fmt.Errorf("failed to decode trainer response: %w", err)
	}
	return &job, nil
}

func (c *Client) ListJobs() ([]types.TrainingJob, error) {
	resp, err := c.Get("/api/v1/jobs")
	if err != nil {
		return nil, fmt.Errorf("failed to reach trainer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("trainer returned %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		Data []types.TrainingJob `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode trainer response: %w", err)
	}
	return payload.Data, nil
}

// RestartJob resubmits a failed job with its original request. The trainer
// keeps the request alongside the job, so restart is fetch, delete, repost.
func (c *Client) RestartJob(id string) error {
	resp, err := c.Get(fmt.Sprintf("/api/v1/jobs/%s/request", id))
	if err != nil {
		return fmt.Errorf("failed to fetch job %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d while fetching job: %s",
			resp.StatusCode, string(body))
	}

	var req TrainingRequest
	if err := json.NewDecoder(resp.Body).Decode(&req); err != nil {
		return fmt.Errorf("failed to decode job request: %w", err)
	}

	delResp, err := c.Delete(fmt.Sprintf("/api/v1/jobs/%s", id))
	if err != nil {
		return fmt.Errorf("failed to delete job %s: %w", id, err)
	}
	defer delResp.Body.Close()

	if delResp.StatusCode != http.StatusOK && delResp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(delResp.Body)
		return fmt.Errorf("unexpected status %d while deleting job: %s",
			delResp.StatusCode, string(body))
	}

	if _, err := c.SubmitJob(req); err != nil {
		return fmt.Errorf("failed to resubmit job %s: %w", id, err)
	}
	return nil
}
