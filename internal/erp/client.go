// Package erp is the HTTP client for the shop's ERP REST facade.
//
// Every endpoint answers with a {"success": bool, "data": ...} envelope.
// Read failures wrap [ErrFetchFailed] and write failures wrap
// [ErrWriteFailed]. Requests are never retried.
package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"printfloor/internal/loyalty"
	"printfloor/internal/stage"
	"printfloor/internal/team"
	"printfloor/internal/timeline"
)

// Sentinel errors for ERP calls.
var (
	ErrFetchFailed = errors.New("erp fetch failed")
	ErrWriteFailed = errors.New("erp write failed")
)

// DefaultAcceptedByField is the job field that records the accepting staff
// member.
const DefaultAcceptedByField = "user_id"

// Options configures a [Client].
type Options struct {
	BaseURL string
	Timeout time.Duration

	// RatePerSecond paces outbound calls. Zero or less disables pacing.
	RatePerSecond float64
	Burst         int

	// AcceptedByField is the job field written by AttachStaff.
	AcceptedByField string

	// RestrictedStages are stage names marked restricted in addition to the
	// ERP's own restricted flag. Matched case-insensitively.
	RestrictedStages []string

	// CatalogFile, when set, is a CSV read instead of the stage endpoint.
	CatalogFile string

	// HTTPClient overrides the default client. Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client talks to the ERP.
type Client struct {
	baseURL         string
	httpClient      *http.Client
	limiter         *rate.Limiter
	acceptedByField string
	restricted      []string
	catalogFile     string
	log             *slog.Logger
}

// New creates an ERP client. A nil log discards.
func New(opts Options, log *slog.Logger) *Client {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	burst := opts.Burst
	if burst < 1 {
		burst = 1
	}

	field := opts.AcceptedByField
	if field == "" {
		field = DefaultAcceptedByField
	}

	return &Client{
		baseURL:         strings.TrimRight(opts.BaseURL, "/"),
		httpClient:      httpClient,
		limiter:         rate.NewLimiter(limit, burst),
		acceptedByField: field,
		restricted:      opts.RestrictedStages,
		catalogFile:     opts.CatalogFile,
		log:             log,
	}
}

// Stages returns the stage catalog, from CatalogFile when configured.
func (c *Client) Stages(ctx context.Context) (stage.Catalog, error) {
	if c.catalogFile != "" {
		cat, err := stage.ReadCatalogFile(c.catalogFile)
		if err != nil {
			return stage.Catalog{}, fmt.Errorf("%w: %w", ErrFetchFailed, err)
		}
		return cat.MarkRestricted(c.restricted), nil
	}

	var api []apiStage
	if err := c.get(ctx, "/api/crm.stage", &api); err != nil {
		return stage.Catalog{}, err
	}

	stages := make([]stage.Stage, 0, len(api))
	for _, a := range api {
		stages = append(stages, a.toStage())
	}
	return c.catalog(stages)
}

func (c *Client) catalog(stages []stage.Stage) (stage.Catalog, error) {
	cat, err := stage.NewCatalog(stages)
	if err != nil {
		return stage.Catalog{}, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	return cat.MarkRestricted(c.restricted), nil
}

// Job returns the work order with the given id.
func (c *Client) Job(ctx context.Context, jobID int64) (stage.Job, error) {
	var api apiLead
	if err := c.get(ctx, fmt.Sprintf("/api/crm.lead/%d", jobID), &api); err != nil {
		return stage.Job{}, err
	}
	return api.toJob(), nil
}

// StageHistory returns the job's stage changes, oldest first.
func (c *Client) StageHistory(ctx context.Context, jobID int64) ([]timeline.Event, error) {
	var api []apiStageChange
	if err := c.get(ctx, fmt.Sprintf("/api/crm.lead/%d/stage_history", jobID), &api); err != nil {
		return nil, err
	}

	events := make([]timeline.Event, 0, len(api))
	for _, a := range api {
		events = append(events, a.toEvent())
	}
	return events, nil
}

// TeamMembers returns every member of every team.
func (c *Client) TeamMembers(ctx context.Context) ([]team.Member, error) {
	var api []apiTeamMember
	if err := c.get(ctx, "/api/crm.team.member", &api); err != nil {
		return nil, err
	}

	members := make([]team.Member, 0, len(api))
	for _, a := range api {
		members = append(members, a.toMember())
	}
	return members, nil
}

// LoyaltyAccount returns the partner's loyalty points and stored tier.
func (c *Client) LoyaltyAccount(ctx context.Context, partnerID int64) (loyalty.Account, error) {
	var api apiPartnerStats
	if err := c.get(ctx, fmt.Sprintf("/api/res.partner/%d/stats", partnerID), &api); err != nil {
		return loyalty.Account{}, err
	}
	return api.toAccount(), nil
}

// UpdateStage writes the job's current stage.
func (c *Client) UpdateStage(ctx context.Context, jobID, stageID int64) error {
	return c.put(ctx, fmt.Sprintf("/api/crm.lead/%d", jobID), map[string]int64{"stage_id": stageID})
}

// AttachStaff records staffID as the job's accepting staff member.
func (c *Client) AttachStaff(ctx context.Context, jobID, staffID int64) error {
	return c.put(ctx, fmt.Sprintf("/api/crm.lead/%d", jobID), map[string]int64{c.acceptedByField: staffID})
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %w", ErrFetchFailed, path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.log.Error("erp decode failed", "path", path, "error", err)
		return fmt.Errorf("%w: GET %s: decode data: %w", ErrFetchFailed, path, err)
	}
	return nil
}

func (c *Client) put(ctx context.Context, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: PUT %s: encode body: %w", ErrWriteFailed, path, err)
	}
	if _, err := c.do(ctx, http.MethodPut, path, payload); err != nil {
		return fmt.Errorf("%w: PUT %s: %w", ErrWriteFailed, path, err)
	}
	return nil
}

// do sends one request and returns the envelope's data.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("erp request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	c.log.Debug("erp_request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start),
	)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// decode below
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("not found: status %d", resp.StatusCode)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.log.Error("erp unauthorized", "status", resp.StatusCode, "path", path)
		return nil, fmt.Errorf("unauthorized: status %d", resp.StatusCode)
	default:
		c.log.Error("erp upstream error", "status", resp.StatusCode, "path", path, "request_id", requestID)
		return nil, fmt.Errorf("upstream error: status %d", resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = "success=false"
		}
		return nil, fmt.Errorf("erp rejected request: %s", msg)
	}
	return env.Data, nil
}
