package optimizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"route-map-client/internal/domain"
	"route-map-client/internal/platform/obs"
	"route-map-client/internal/ports"
	"strings"
	"time"
)

// HTTPOptimizer implements OptimizationService against the remote
// optimization API (POST /optimize, GET /tasks/{id}).
//
// It performs no retries: a failed submission is reported to the caller, and
// a failed status check is repeated by the poller on its next tick unless
// Permanent says the task is gone.
// The optimizer is safe for concurrent use.
type HTTPOptimizer struct {
	session *http.Client
	baseURL string
}

func NewHTTPOptimizer(baseURL string, timeout time.Duration) (*HTTPOptimizer, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("optimizer base url is empty")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &HTTPOptimizer{
		session: &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}, nil
}

type stopPayload struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}

type optimizeRequest struct {
	Stops []stopPayload `json:"stops"`
	Depot *stopPayload  `json:"depot,omitempty"`
}

type taskResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

type taskResultResponse struct {
	TaskID string                `json:"task_id"`
	Status string                `json:"status"`
	Result *optimizationResponse `json:"result"`
}

type optimizationResponse struct {
	RouteID                    string       `json:"route_id"`
	OptimizedOrder             orderEntries `json:"optimized_order"`
	TotalDistanceKm            float64      `json:"total_distance_km"`
	EstimatedTravelTimeMinutes float64      `json:"estimated_travel_time_minutes"`
	ExecutionTimeSeconds       float64      `json:"execution_time_seconds"`
	Status                     string       `json:"status"`
}

// orderEntries accepts optimized_order items encoded as strings or numbers.
type orderEntries []string

func (o *orderEntries) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	out := make([]string, 0, len(raw))
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		var n json.Number
		if err := json.Unmarshal(item, &n); err != nil {
			return fmt.Errorf("optimized_order entry %s is neither string nor number", item)
		}
		out = append(out, n.String())
	}

	*o = out
	return nil
}

func toPayload(s domain.Stop) stopPayload {
	return stopPayload{Lat: s.Lat, Lng: s.Lng, Address: s.Address}
}

// Submit sends the stops (and depot) to POST {base}/optimize.
func (c *HTTPOptimizer) Submit(
	ctx context.Context,
	req ports.OptimizeRequest,
) (_ ports.TaskHandle, err error) {
	defer obs.Time(ctx, "optimizer.Submit")(&err)

	body := optimizeRequest{Stops: make([]stopPayload, 0, len(req.Stops))}
	for _, s := range req.Stops {
		body.Stops = append(body.Stops, toPayload(s))
	}
	if req.Depot != nil {
		d := toPayload(*req.Depot)
		body.Depot = &d
	}

	buf, err := json.Marshal(body)
	if err != nil {
		return ports.TaskHandle{}, fmt.Errorf("encode optimize request: %w", err)
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, c.baseURL+"/optimize", bytes.NewReader(buf))
	if err != nil {
		return ports.TaskHandle{}, fmt.Errorf("optimize request: %w", err)
	}

	resp, err := c.do(httpReq)
	if err != nil {
		return ports.TaskHandle{}, fmt.Errorf("execute optimize request: %w", err)
	}
	defer resp.Body.Close()

	var decoded taskResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.TaskHandle{}, fmt.Errorf("decode optimize response: %w", err)
	}

	if strings.TrimSpace(decoded.TaskID) == "" {
		return ports.TaskHandle{}, errors.New("optimize response has no task_id")
	}

	return ports.TaskHandle{TaskID: decoded.TaskID, Status: decoded.Status}, nil
}

// TaskStatus fetches GET {base}/tasks/{taskID}.
func (c *HTTPOptimizer) TaskStatus(
	ctx context.Context,
	taskID string,
) (_ ports.TaskStatus, err error) {
	defer obs.Time(ctx, "optimizer.TaskStatus")(&err)

	if taskID == "" {
		return ports.TaskStatus{}, errors.New("task id must be non-empty")
	}

	endpoint := c.baseURL + "/tasks/" + url.PathEscape(taskID)
	httpReq, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ports.TaskStatus{}, fmt.Errorf("task status request: %w", err)
	}

	resp, err := c.do(httpReq)
	if err != nil {
		return ports.TaskStatus{}, fmt.Errorf("execute task status request: %w", err)
	}
	defer resp.Body.Close()

	var decoded taskResultResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.TaskStatus{}, fmt.Errorf("decode task status response: %w", err)
	}

	out := ports.TaskStatus{
		TaskID: decoded.TaskID,
		State:  strings.ToUpper(strings.TrimSpace(decoded.Status)),
	}
	if out.TaskID == "" {
		out.TaskID = taskID
	}

	if r := decoded.Result; r != nil {
		out.Result = &domain.OptimizationResult{
			RouteID:                    r.RouteID,
			OptimizedOrder:             []string(r.OptimizedOrder),
			TotalDistanceKm:            r.TotalDistanceKm,
			EstimatedTravelTimeMinutes: r.EstimatedTravelTimeMinutes,
			ExecutionTimeSeconds:       r.ExecutionTimeSeconds,
			Status:                     r.Status,
		}
	}

	return out, nil
}

// compile-time check
var (
	_ ports.OptimizationService = (*HTTPOptimizer)(nil)
	_ ports.ErrorClassifier     = (*HTTPOptimizer)(nil)
)
