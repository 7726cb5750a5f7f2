package sigtransport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ironvault/sigcollector/pkg/interactor"
)

// Client dispatches interactor requests to a remote endpoint over HTTP,
// validating every response body against the interactor response schema
// before it is trusted.
type Client struct {
	httpClient *http.Client
	baseURL    string
	schema     *jsonschema.Schema
}

// NewClient builds a Client posting requests to baseURL.
func NewClient(httpClient *http.Client, baseURL string) (*Client, error) {
	schema, err := compileResponseSchema()
	if err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{httpClient: httpClient, baseURL: baseURL, schema: schema}, nil
}

func (c *Client) post(ctx context.Context, path string, wireBody any) (interactor.Response, error) {
	payload, err := json.Marshal(wireBody)
	if err != nil {
		return interactor.Response{}, fmt.Errorf("sigtransport: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return interactor.Response{}, fmt.Errorf("sigtransport: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return interactor.Response{}, fmt.Errorf("sigtransport: %w: %v", interactor.ErrInteractorFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return interactor.Response{}, fmt.Errorf("sigtransport: %w: remote returned status %d", interactor.ErrInteractorFailure, resp.StatusCode)
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return interactor.Response{}, fmt.Errorf("sigtransport: decoding response: %w", err)
	}
	if err := c.schema.Validate(raw); err != nil {
		return interactor.Response{}, fmt.Errorf("sigtransport: response failed schema validation: %w", err)
	}

	reencoded, err := json.Marshal(raw)
	if err != nil {
		return interactor.Response{}, fmt.Errorf("sigtransport: re-encoding validated response: %w", err)
	}
	var wireResp wireResponse
	if err := json.Unmarshal(reencoded, &wireResp); err != nil {
		return interactor.Response{}, fmt.Errorf("sigtransport: decoding validated response: %w", err)
	}
	out, err := wireResp.toResponse()
	if err != nil {
		return interactor.Response{}, err
	}
	return out, nil
}

// ParallelAdapter implements interactor.Parallel over an HTTP Client.
type ParallelAdapter struct {
	Client *Client
	Path   string
}

// UseFactors posts req to the adapter's configured path.
func (a ParallelAdapter) UseFactors(ctx context.Context, req interactor.ParallelRequest) (interactor.Response, error) {
	return a.Client.post(ctx, a.Path, toWireParallelRequest(req))
}

// SerialAdapter implements interactor.Serial over an HTTP Client.
type SerialAdapter struct {
	Client *Client
	Path   string
}

// UseFactor posts req to the adapter's configured path.
func (a SerialAdapter) UseFactor(ctx context.Context, req interactor.SerialRequest) (interactor.Response, error) {
	return a.Client.post(ctx, a.Path, toWireSerialRequest(req))
}
