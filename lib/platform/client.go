package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"emperror.dev/errors"
	"resty.dev/v3"

	"github.com/pendeploy-nightly/dto"
	"github.com/pendeploy-nightly/models"
)

const (
	DefaultBaseURL = "https://api.render.com/v1"
	DefaultTimeout = 30 * time.Second
)

// Options contains options for connecting to the platform API
type Options struct {
	// BaseURL is the API root, e.g. https://api.render.com/v1
	BaseURL string
	// Token is sent as a bearer credential on every request
	Token string
	// Timeout bounds every single round trip
	Timeout time.Duration
}

// Client issues single, non-retried calls against the platform API
type Client struct {
	http    *resty.Client
	baseURL string
}

// NewClient creates a new platform client with the specified options
func NewClient(options Options) *Client {
	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Authorization", "Bearer "+options.Token).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Close releases the underlying transport
func (c *Client) Close() error {
	return c.http.Close()
}

// GetService fetches the service to confirm it exists
func (c *Client) GetService(ctx context.Context, serviceID string) (*models.ServiceInfo, error) {
	const op = "get service"

	status, body, err := c.do(ctx, op, http.MethodGet, servicePath(serviceID), nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, statusError(op, status, body)
	}

	var service dto.ServiceResponse
	if err := json.Unmarshal([]byte(body), &service); err != nil {
		return nil, decodeError(op, status, body, err)
	}
	var attributes map[string]interface{}
	if err := json.Unmarshal([]byte(body), &attributes); err != nil {
		return nil, decodeError(op, status, body, err)
	}

	return service.ToModel(attributes), nil
}

// ClearCache asks the platform to drop the service's build cache.
// The platform may accept the request asynchronously (202).
func (c *Client) ClearCache(ctx context.Context, serviceID string) error {
	const op = "clear cache"

	status, body, err := c.do(ctx, op, http.MethodPost, servicePath(serviceID)+"/clear-cache", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusAccepted {
		return statusError(op, status, body)
	}
	return nil
}

// CreateDeploy triggers a new deploy. A success response without an id
// yields a record carrying models.UnknownDeployID.
func (c *Client) CreateDeploy(ctx context.Context, serviceID string, req models.DeployRequest) (*models.DeployRecord, error) {
	const op = "create deploy"

	status, body, err := c.do(ctx, op, http.MethodPost, servicePath(serviceID)+"/deploys", dto.NewCreateDeployRequest(req))
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return nil, statusError(op, status, body)
	}

	var deploy dto.DeployResponse
	if body != "" {
		if err := json.Unmarshal([]byte(body), &deploy); err != nil {
			return nil, decodeError(op, status, body, err)
		}
	}
	return deploy.ToModel(), nil
}

// GetDeployStatus fetches the current state of a deploy
func (c *Client) GetDeployStatus(ctx context.Context, serviceID, deployID string) (*models.DeployRecord, error) {
	const op = "get deploy status"

	path := fmt.Sprintf("%s/deploys/%s", servicePath(serviceID), url.PathEscape(deployID))
	status, body, err := c.do(ctx, op, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, statusError(op, status, body)
	}

	var deploy dto.DeployResponse
	if err := json.Unmarshal([]byte(body), &deploy); err != nil {
		return nil, decodeError(op, status, body, err)
	}
	record := deploy.ToModel()
	if deploy.ID == "" {
		record.ID = deployID
	}
	return record, nil
}

// do performs one round trip and returns the status and trimmed body
func (c *Client) do(ctx context.Context, op, method, path string, payload interface{}) (int, string, error) {
	req := c.http.R().SetContext(ctx)
	if payload != nil {
		req.SetBody(payload)
	}

	var resp *resty.Response
	var err error

	target := c.baseURL + path
	switch method {
	case http.MethodGet:
		resp, err = req.Get(target)
	case http.MethodPost:
		resp, err = req.Post(target)
	default:
		return 0, "", errors.Errorf("unsupported method: %s", method)
	}

	if err != nil {
		return 0, "", transportError(op, err)
	}
	return resp.StatusCode(), resp.String(), nil
}

func servicePath(serviceID string) string {
	return "/services/" + url.PathEscape(serviceID)
}

func decodeError(op string, status int, body string, err error) *RemoteError {
	remoteErr := statusError(op, status, body)
	remoteErr.Err = errors.Wrap(err, "malformed response body")
	return remoteErr
}
