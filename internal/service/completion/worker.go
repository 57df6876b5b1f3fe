package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"lorealchat/internal/models"
)

type workerRequest struct {
	Messages []models.Message `json:"messages"`
}

type workerResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

// WorkerClient posts conversations to a completion worker endpoint.
type WorkerClient struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewWorkerClient builds a client for url. A zero timeout leaves the
// transport default in place.
func NewWorkerClient(url string, timeout time.Duration, logger *zap.Logger) (*WorkerClient, error) {
	if url == "" {
		return nil, errors.New("worker url must be configured")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkerClient{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// Complete sends messages and returns the first choice's content verbatim.
func (c *WorkerClient) Complete(ctx context.Context, messages []models.Message) (string, error) {
	body, err := json.Marshal(workerRequest{Messages: messages})
	if err != nil {
		return "", fmt.Errorf("encode completion request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &RemoteError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &RemoteError{StatusCode: resp.StatusCode, Message: err.Error(), Err: err}
	}
	c.logger.Debug("completion response",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(raw)),
		zap.Duration("elapsed", time.Since(start)))

	var data workerResponse
	decodeErr := json.Unmarshal(raw, &data)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", remoteErrorFrom(resp.StatusCode, data, decodeErr)
	}
	if decodeErr != nil {
		return "", &MalformedResponseError{Err: decodeErr}
	}
	if len(data.Choices) == 0 || data.Choices[0].Message.Content == "" {
		return "", &MalformedResponseError{}
	}
	return data.Choices[0].Message.Content, nil
}

func remoteErrorFrom(status int, data workerResponse, decodeErr error) *RemoteError {
	rerr := &RemoteError{StatusCode: status, Err: decodeErr}
	if decodeErr != nil {
		return rerr
	}
	switch {
	case data.Error != nil && data.Error.Message != "":
		rerr.Message = data.Error.Message
	case data.Message != "":
		rerr.Message = data.Message
	}
	return rerr
}
