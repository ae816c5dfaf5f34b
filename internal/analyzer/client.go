package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	appErr "github.com/archdrift/engine/pkg/errors"
	"github.com/archdrift/engine/pkg/logger"
	"go.uber.org/zap"
)

// Config carries the analyzer endpoint and credentials. It is built once at
// process start and handed to the client constructor; business logic never
// reads the environment directly.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Request identifies the repository state and rules to analyze.
type Request struct {
	RepoURL string
	Ref     string
	Rules   json.RawMessage
}

// Result is the decoded analyzer response. Arrays may be absent in the wire
// payload; they decode to nil slices and are treated as empty downstream.
type Result struct {
	Metrics    Metrics     `json:"metrics"`
	Nodes      []Node      `json:"nodes"`
	Edges      []Edge      `json:"edges"`
	Violations []Violation `json:"violations"`
}

// Metrics holds scan-level measurements. DriftScore is nil when the analyzer
// omitted it; the persister defaults it to zero.
type Metrics struct {
	DriftScore *float64 `json:"drift_score"`
}

type Node struct {
	Path       string `json:"path"`
	ModuleName string `json:"module_name"`
	Layer      string `json:"layer"`
	Lang       string `json:"lang"`
}

type Edge struct {
	FromPath string `json:"from_path"`
	ToPath   string `json:"to_path"`
	EdgeType string `json:"edge_type"`
}

type Violation struct {
	NodePath   string `json:"node_path"`
	RuleCode   string `json:"rule_code"`
	Severity   string `json:"severity"`
	Details    string `json:"details"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Client sends analysis requests to the external analyzer service.
type Client interface {
	Analyze(ctx context.Context, req *Request) (*Result, error)
}

type httpClient struct {
	baseURL string
	token   string
	hc      *http.Client
}

// NewClient returns an HTTP analyzer client. The client is stateless and
// performs no retries; redelivery belongs to the task queue.
func NewClient(cfg Config) Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Minute
	}
	return &httpClient{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		hc:      &http.Client{Timeout: timeout},
	}
}

type wireGit struct {
	RepoURL string `json:"repo_url"`
	Ref     string `json:"ref"`
	Token   string `json:"token"`
}

type wireRequest struct {
	Git   wireGit         `json:"git"`
	Rules json.RawMessage `json:"rules"`
	Mode  string          `json:"mode"`
}

func (c *httpClient) Analyze(ctx context.Context, req *Request) (*Result, error) {
	rules := req.Rules
	if len(rules) == 0 {
		rules = json.RawMessage(`{}`)
	}
	body, err := json.Marshal(wireRequest{
		Git:   wireGit{RepoURL: req.RepoURL, Ref: req.Ref, Token: c.token},
		Rules: rules,
		Mode:  "full",
	})
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "encode analyze request failed")
	}

	logger.L().Info("sending analysis request to analyzer",
		zap.String("repo_url", req.RepoURL),
		zap.String("ref", req.Ref),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "build analyze request failed")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		logger.L().Error("failed to connect to analyzer", zap.Error(err))
		return nil, appErr.Wrap(err, appErr.CodeUnavailable, "analyzer service unavailable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		logger.L().Error("analyzer request failed",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody),
		)
		return nil, appErr.New(appErr.CodeUpstream, "analyzer request failed").
			WithMeta("status", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		logger.L().Error("analyzer response decode failed", zap.Error(err))
		return nil, appErr.Wrap(err, appErr.CodeInternal, "decode analyzer response failed")
	}
	return &result, nil
}
