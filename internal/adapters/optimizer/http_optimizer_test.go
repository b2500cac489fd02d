package optimizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"route-map-client/internal/domain"
	"route-map-client/internal/ports"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestOptimizer(t *testing.T, h http.HandlerFunc) *HTTPOptimizer {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	o, err := NewHTTPOptimizer(srv.URL+"/api/v1/", 2*time.Second)
	require.NoError(t, err)
	return o
}

func TestSubmitSendsDepotAndStops(t *testing.T) {
	bodies := make(chan map[string]any, 1)
	o := newTestOptimizer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/optimize", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies <- body
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"task_id":"task-1","status":"PENDING"}`))
	})

	depot := domain.Stop{Lat: -34.6037, Lng: -58.3816, Address: "Obelisco"}
	handle, err := o.Submit(context.Background(), ports.OptimizeRequest{
		Depot: &depot,
		Stops: []domain.Stop{{Lat: -34.61, Lng: -58.37, Address: "A"}},
	})
	require.NoError(t, err)
	require.Equal(t, "task-1", handle.TaskID)
	require.Equal(t, "PENDING", handle.Status)

	got := <-bodies
	require.Equal(t, "Obelisco", got["depot"].(map[string]any)["address"])
	stops := got["stops"].([]any)
	require.Len(t, stops, 1)
	require.Equal(t, "A", stops[0].(map[string]any)["address"])
}

func TestSubmitEmptyStopsEncodesArray(t *testing.T) {
	bodies := make(chan string, 1)
	o := newTestOptimizer(t, func(w http.ResponseWriter, r *http.Request) {
		var body json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies <- string(body)
		_, _ = w.Write([]byte(`{"task_id":"t","status":"PENDING"}`))
	})

	_, err := o.Submit(context.Background(), ports.OptimizeRequest{})
	require.NoError(t, err)
	require.JSONEq(t, `{"stops":[]}`, <-bodies)
}

func TestSubmitServiceErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	o := newTestOptimizer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "broker unavailable", http.StatusServiceUnavailable)
	})

	_, err := o.Submit(context.Background(), ports.OptimizeRequest{})
	require.Error(t, err)
	require.Equal(t, int32(1), calls.Load())

	var he *HTTPStatusError
	require.True(t, errors.As(err, &he))
	require.Equal(t, http.StatusServiceUnavailable, he.Code)
	require.Equal(t, "broker unavailable", he.Body)
	require.False(t, o.Permanent(err))
}

func TestSubmitMissingTaskID(t *testing.T) {
	o := newTestOptimizer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"PENDING"}`))
	})

	_, err := o.Submit(context.Background(), ports.OptimizeRequest{})
	require.ErrorContains(t, err, "no task_id")
}

func TestTaskStatusDecodesResult(t *testing.T) {
	o := newTestOptimizer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/v1/tasks/task-9", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"task_id": "task-9",
			"status": "SUCCESS",
			"result": {
				"route_id": "r-1",
				"optimized_order": ["0", 2, "1"],
				"total_distance_km": 12.5,
				"estimated_travel_time_minutes": 37.5,
				"execution_time_seconds": 0.42,
				"status": "optimized"
			}
		}`))
	})

	st, err := o.TaskStatus(context.Background(), "task-9")
	require.NoError(t, err)
	require.Equal(t, ports.TaskStateSuccess, st.State)
	require.NotNil(t, st.Result)
	require.Equal(t, []string{"0", "2", "1"}, st.Result.OptimizedOrder)
	require.Equal(t, 12.5, st.Result.TotalDistanceKm)
	require.Equal(t, 37.5, st.Result.EstimatedTravelTimeMinutes)
	require.Equal(t, 0.42, st.Result.ExecutionTimeSeconds)
	require.Equal(t, "r-1", st.Result.RouteID)
}

func TestTaskStatusPendingHasNoResult(t *testing.T) {
	o := newTestOptimizer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"pending"}`))
	})

	st, err := o.TaskStatus(context.Background(), "abc")
	require.NoError(t, err)
	require.Equal(t, "abc", st.TaskID)
	require.Equal(t, ports.TaskStatePending, st.State)
	require.Nil(t, st.Result)
}

func TestTaskStatusNotFoundIsPermanent(t *testing.T) {
	o := newTestOptimizer(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := o.TaskStatus(context.Background(), "gone")
	require.Error(t, err)
	require.True(t, o.Permanent(err))
}

func TestPermanentClassification(t *testing.T) {
	o, err := NewHTTPOptimizer("http://optimizer.invalid", time.Second)
	require.NoError(t, err)

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"not found", &HTTPStatusError{Code: http.StatusNotFound}, true},
		{"bad request wrapped", fmt.Errorf("execute: %w", &HTTPStatusError{Code: http.StatusBadRequest}), true},
		{"too many requests", &HTTPStatusError{Code: http.StatusTooManyRequests}, false},
		{"request timeout", &HTTPStatusError{Code: http.StatusRequestTimeout}, false},
		{"bad gateway", &HTTPStatusError{Code: http.StatusBadGateway}, false},
		{"network", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, o.Permanent(tt.err))
		})
	}
}

func TestTaskStatusBadOrderEntry(t *testing.T) {
	o := newTestOptimizer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"SUCCESS","result":{"optimized_order":[{"x":1}]}}`))
	})

	_, err := o.TaskStatus(context.Background(), "t")
	require.ErrorContains(t, err, "decode task status response")
}

func TestNewHTTPOptimizerRejectsEmptyURL(t *testing.T) {
	_, err := NewHTTPOptimizer("  ", time.Second)
	require.Error(t, err)
}
