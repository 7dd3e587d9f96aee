package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/botsieve/botsieve/app/stream"
)

// AnalyzeTimeout is the hard ceiling on one analyze request. A remote
// that has not answered by then resolves to a timeout failure; there is
// no retry.
const AnalyzeTimeout = 3 * time.Second

type ClientErrorKind string

const (
	ErrKindTimeout   ClientErrorKind = "timeout"
	ErrKindTransport ClientErrorKind = "transport"
	ErrKindStatus    ClientErrorKind = "status"
	ErrKindDecode    ClientErrorKind = "decode"
)

// ClientError is the typed failure every remote call resolves to. The
// caller branches on Kind only for logging; every kind means the same
// thing operationally: fall back to the local scorer.
type ClientError struct {
	Kind   ClientErrorKind
	Op     string
	Status int
	Err    error
}

func (e *ClientError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("remote %s failed (%s): HTTP %d", e.Op, e.Kind, e.Status)
	}
	return fmt.Sprintf("remote %s failed (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

type analyzeRequest struct {
	Author    string `json:"author"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Likes     string `json:"likes"`
}

type analyzeResponse struct {
	BotProbability *float64 `json:"bot_probability"`
}

type voteRequest struct {
	CommentID   string      `json:"commentId"`
	Vote        int         `json:"vote"`
	CommentData stream.Item `json:"commentData"`
	Timestamp   int64       `json:"timestamp"`
}

// Client talks to the remote analysis endpoint. Best effort only: every
// failure mode resolves to a *ClientError, never a panic, and the client
// itself never retries.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

func NewClient(httpClient *http.Client, userAgent string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

// Analyze requests a remote score for one item. Returns the remote
// bot probability or a *ClientError.
func (c *Client) Analyze(ctx context.Context, endpoint string, item stream.Item) (float64, error) {
	payload := analyzeRequest{
		Author:    item.Author,
		Content:   item.Text,
		Timestamp: item.PostedLabel,
		Likes:     item.LikeCount,
	}

	body, err := c.post(ctx, "analyze", endpoint+"/analyze", payload)
	if err != nil {
		return 0, err
	}

	var resp analyzeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, &ClientError{Kind: ErrKindDecode, Op: "analyze", Err: err}
	}
	if resp.BotProbability == nil {
		return 0, &ClientError{Kind: ErrKindDecode, Op: "analyze", Err: errors.New("response missing bot_probability")}
	}

	value := *resp.BotProbability
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}
	return value, nil
}

// SubmitVote forwards a vote to the remote collaborator. The response
// body is ignored beyond success or failure.
func (c *Client) SubmitVote(ctx context.Context, endpoint string, key string, vote int, snapshot stream.Item) error {
	payload := voteRequest{
		CommentID:   key,
		Vote:        vote,
		CommentData: snapshot,
		Timestamp:   time.Now().UnixMilli(),
	}

	_, err := c.post(ctx, "vote", endpoint+"/vote", payload)
	return err
}

// Health probes the remote endpoint for connectivity.
func (c *Client) Health(ctx context.Context, endpoint string) error {
	reqCtx, cancel := context.WithTimeout(ctx, AnalyzeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint+"/health", nil)
	if err != nil {
		return &ClientError{Kind: ErrKindTransport, Op: "health", Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.transportError("health", reqCtx, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &ClientError{Kind: ErrKindStatus, Op: "health", Status: resp.StatusCode}
	}
	return nil
}

func (c *Client) post(ctx context.Context, op, url string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, &ClientError{Kind: ErrKindDecode, Op: op, Err: err}
	}

	reqCtx, cancel := context.WithTimeout(ctx, AnalyzeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, &ClientError{Kind: ErrKindTransport, Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError(op, reqCtx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ClientError{Kind: ErrKindTransport, Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ClientError{Kind: ErrKindStatus, Op: op, Status: resp.StatusCode}
	}

	return body, nil
}

func (c *Client) transportError(op string, ctx context.Context, err error) *ClientError {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || strings.Contains(err.Error(), "context deadline exceeded") {
		return &ClientError{Kind: ErrKindTimeout, Op: op, Err: err}
	}
	return &ClientError{Kind: ErrKindTransport, Op: op, Err: err}
}
