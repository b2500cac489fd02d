package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"route-map-client/internal/adapters/optimizer"
	"route-map-client/internal/api/dto"
	"route-map-client/internal/services"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

const testInput = `{
	"depot": {"lat": -34.6037, "lng": -58.3816, "address": "Obelisco"},
	"stops": [
		{"lat": -34.6083, "lng": -58.3712, "address": "A"},
		{"lat": -34.6010, "lng": -58.3831, "address": "B"}
	]
}`

func newTestServer(t *testing.T, m *optimizer.MockOptimizer) (*httptest.Server, *services.Session) {
	t.Helper()

	poller := services.NewPoller(m, services.PollerConfig{Interval: 5 * time.Millisecond})
	session := services.NewSession(services.NewSubmitter(m, nil), poller, nil)
	require.NoError(t, session.UpdateInput([]byte(testInput)))

	srv := httptest.NewServer(NewRouter(session, nil))
	t.Cleanup(func() {
		session.Close()
		srv.Close()
	})
	return srv, session
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, optimizer.NewMockOptimizer())

	resp := do(t, http.MethodGet, srv.URL+"/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	require.Equal(t, map[string]string{"status": "ok"}, decode[map[string]string](t, resp))
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv, _ := newTestServer(t, optimizer.NewMockOptimizer())

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "abc-123", resp.Header.Get("X-Request-ID"))
}

func TestOptimizeLifecycle(t *testing.T) {
	m := optimizer.NewMockOptimizer()
	m.Queue("job-1")
	m.Script("job-1", optimizer.PendingStep(), optimizer.SuccessStep("0", "2", "1"))
	srv, _ := newTestServer(t, m)

	resp := do(t, http.MethodPost, srv.URL+"/optimize", "")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	submitted := decode[dto.SubmitResponse](t, resp)
	require.Equal(t, "job-1", submitted.JobID)
	require.Equal(t, "PENDING", submitted.Status)

	var job dto.JobResponse
	require.Eventually(t, func() bool {
		r := do(t, http.MethodGet, srv.URL+"/job", "")
		job = decode[dto.JobResponse](t, r)
		return job.Status == "SUCCEEDED"
	}, 2*time.Second, 10*time.Millisecond)

	require.Equal(t, []string{"Obelisco", "B", "A"}, job.Sequence)
	require.NotNil(t, job.Metrics)
	require.Equal(t, "12m", job.Metrics.TravelTime)
	require.NotNil(t, job.SubmittedAt)
	require.NotNil(t, job.FinishedAt)

	route := decode[dto.RouteResponse](t, do(t, http.MethodGet, srv.URL+"/route", ""))
	require.Equal(t, []float64{-34.6037, -58.3816}, route.Center)
	require.Len(t, route.Markers, 3)
	require.Equal(t, [][]float64{
		{-34.6037, -58.3816},
		{-34.6010, -58.3831},
		{-34.6083, -58.3712},
	}, route.Path)
}

func TestOptimizeValidationError(t *testing.T) {
	m := optimizer.NewMockOptimizer()
	srv, _ := newTestServer(t, m)

	resp := do(t, http.MethodPost, srv.URL+"/optimize", `{"depot": {"lat": 1, "lng": 1, "address": "D"}}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "missing stops", decode[map[string]string](t, resp)["error"])
	require.Empty(t, m.Submitted())
}

func TestOptimizeSubmissionError(t *testing.T) {
	m := optimizer.NewMockOptimizer()
	m.FailSubmit(io.ErrUnexpectedEOF)
	srv, _ := newTestServer(t, m)

	resp := do(t, http.MethodPost, srv.URL+"/optimize", testInput)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	require.Contains(t, decode[map[string]string](t, resp)["error"], "submit optimization")

	job := decode[dto.JobResponse](t, do(t, http.MethodGet, srv.URL+"/job", ""))
	require.Equal(t, "NO_JOB", job.Status)
	require.Empty(t, job.Sequence)
}

func TestInputRoundTripKeepsMapOnInvalid(t *testing.T) {
	srv, _ := newTestServer(t, optimizer.NewMockOptimizer())

	resp := do(t, http.MethodPut, srv.URL+"/input", `[{"lat": 1, "lng": 2, "address": "Solo"}]`)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodPut, srv.URL+"/input", `{"stops": [`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/input", "")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, `{"stops": [`, string(body))
	require.Contains(t, resp.Header.Get("Content-Type"), "text/plain")

	route := decode[dto.RouteResponse](t, do(t, http.MethodGet, srv.URL+"/route", ""))
	require.Len(t, route.Markers, 1)
	require.Equal(t, "Solo", route.Markers[0].Address)
	require.Empty(t, route.Path)
}

func TestDeleteJob(t *testing.T) {
	m := optimizer.NewMockOptimizer()
	m.Queue("job-1")
	m.Script("job-1", optimizer.PendingStep())
	srv, _ := newTestServer(t, m)

	require.Equal(t, http.StatusAccepted, do(t, http.MethodPost, srv.URL+"/optimize", "").StatusCode)
	require.Equal(t, http.StatusNoContent, do(t, http.MethodDelete, srv.URL+"/job", "").StatusCode)

	job := decode[dto.JobResponse](t, do(t, http.MethodGet, srv.URL+"/job", ""))
	require.Equal(t, "NO_JOB", job.Status)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, optimizer.NewMockOptimizer())
	do(t, http.MethodGet, srv.URL+"/health", "")

	resp := do(t, http.MethodGet, srv.URL+"/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "routeclient_http_requests_total")
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, optimizer.NewMockOptimizer())
	require.Equal(t, http.StatusMethodNotAllowed, do(t, http.MethodPost, srv.URL+"/route", "").StatusCode)
}

func TestEventsStreamJobTransitions(t *testing.T) {
	m := optimizer.NewMockOptimizer()
	m.Queue("job-1")
	m.Script("job-1", optimizer.PendingStep(), optimizer.SuccessStep("0", "1"))
	srv, _ := newTestServer(t, m)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var first dto.JobResponse
	require.NoError(t, conn.ReadJSON(&first))
	require.Equal(t, "NO_JOB", first.Status)

	require.Equal(t, http.StatusAccepted, do(t, http.MethodPost, srv.URL+"/optimize", "").StatusCode)

	var statuses []string
	for {
		var ev dto.JobResponse
		require.NoError(t, conn.ReadJSON(&ev))
		require.Equal(t, "job-1", ev.JobID)
		statuses = append(statuses, ev.Status)
		if ev.Status == "SUCCEEDED" {
			require.Equal(t, []string{"Obelisco", "A"}, ev.Sequence)
			break
		}
	}
	require.Equal(t, "PENDING", statuses[0])
}
