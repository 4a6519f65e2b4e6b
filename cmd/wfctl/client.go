package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

// apiClient talks to a running wfapprovald instance over the REST endpoints
// cmd/wfapprovald/router.go exposes, with a plain net/http client rather
// than a generated SDK.
type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func clientFromCmd(cmd *cobra.Command) *apiClient {
	base, _ := cmd.Flags().GetString("server")
	token, _ := cmd.Flags().GetString("token")
	return &apiClient{baseURL: base, token: token, http: &http.Client{Timeout: 15 * time.Second}}
}

func (c *apiClient) do(method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("wfctl: encoding request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("wfctl: building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wfctl: calling wfapprovald: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("wfctl: reading response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("wfctl: wfapprovald returned %s: %s", resp.Status, string(data))
	}
	return data, nil
}

func nodePath(runID, node, action string) string {
	return fmt.Sprintf("/runs/%s/nodes/%s/%s", runID, node, action)
}

func (c *apiClient) approve(runID, node string) ([]byte, error) {
	return c.do(http.MethodPost, nodePath(runID, node, "approve"), nil)
}

func (c *apiClient) reject(runID, node string) ([]byte, error) {
	return c.do(http.MethodPost, nodePath(runID, node, "reject"), nil)
}

func (c *apiClient) approveWithChanges(runID, node string, state map[string]any) ([]byte, error) {
	return c.do(http.MethodPost, nodePath(runID, node, "approve-with-changes"), map[string]any{"state": state})
}

func (c *apiClient) decide(runID, node, option string) ([]byte, error) {
	return c.do(http.MethodPost, nodePath(runID, node, "decision"), map[string]string{"option": option})
}

func (c *apiClient) input(runID, node, property string, value any) ([]byte, error) {
	return c.do(http.MethodPost, nodePath(runID, node, "input"), map[string]any{"property": property, "value": value})
}

func (c *apiClient) review(runID, node string, state map[string]any) ([]byte, error) {
	return c.do(http.MethodPost, nodePath(runID, node, "review"), map[string]any{"state": state})
}

func (c *apiClient) pending(runID string) ([]byte, error) {
	return c.do(http.MethodGet, fmt.Sprintf("/runs/%s/pending.json", runID), nil)
}
