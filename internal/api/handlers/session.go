package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"route-map-client/internal/api/dto"
	"route-map-client/internal/domain"
	"route-map-client/internal/services"
	"time"
)

// MapSession is the state the map UI drives.
type MapSession interface {
	UpdateInput(raw []byte) error
	Input() []byte
	Submit(ctx context.Context, raw []byte) (services.JobView, error)
	Abandon()
	View() services.JobView
	Route() domain.RenderedRoute
	Subscribe() (<-chan services.JobView, func())
}

type SessionHandler struct {
	Session MapSession
}

// GetInput returns the editor content as last stored, valid or not.
func (h *SessionHandler) GetInput(w http.ResponseWriter, r *http.Request) {
	raw := h.Session.Input()
	if json.Valid(raw) {
		w.Header().Set("Content-Type", "application/json")
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// PutInput replaces the editor content. Invalid content is stored but the
// map keeps the last valid stop set.
func (h *SessionHandler) PutInput(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(r)
	if err != nil {
		writeError(w, r, http.StatusRequestEntityTooLarge, err.Error())
		return
	}

	if err := h.Session.UpdateInput(raw); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Optimize submits the request body, or the stored editor content when the
// body is empty.
func (h *SessionHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(r)
	if err != nil {
		writeError(w, r, http.StatusRequestEntityTooLarge, err.Error())
		return
	}

	v, err := h.Session.Submit(r.Context(), raw)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusAccepted, dto.SubmitResponse{
		JobID:  v.JobID,
		Status: string(v.Status),
	})
}

func (h *SessionHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, toJobResponse(h.Session.View()))
}

func (h *SessionHandler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	h.Session.Abandon()
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) GetRoute(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, toRouteResponse(h.Session.Route()))
}

func toJobResponse(v services.JobView) dto.JobResponse {
	out := dto.JobResponse{
		JobID:      v.JobID,
		Status:     string(v.Status),
		TaskStatus: v.State,
		Checks:     v.Checks,
		FinishedAt: v.FinishedAt,
		Sequence:   v.Sequence,
	}
	if out.Sequence == nil {
		out.Sequence = []string{}
	}
	if !v.SubmittedAt.IsZero() {
		submitted := v.SubmittedAt.UTC().Truncate(time.Millisecond)
		out.SubmittedAt = &submitted
	}
	if v.Err != nil {
		out.Error = v.Err.Error()
	}
	if s := v.Summary; s != nil {
		out.Metrics = &dto.JobMetricsResponse{
			RouteID:                    s.RouteID,
			TotalDistanceKm:            s.TotalDistanceKm,
			EstimatedTravelTimeMinutes: s.TravelTimeMinutes,
			TravelTime:                 s.TravelTime,
			ExecutionTimeSeconds:       s.ExecutionTimeSeconds,
		}
	}
	return out
}

func toRouteResponse(rr domain.RenderedRoute) dto.RouteResponse {
	out := dto.RouteResponse{
		Center:  rr.Center.CoordsToList(),
		Markers: make([]dto.MarkerResponse, 0, len(rr.Markers)),
		Path:    make([][]float64, 0, len(rr.Path)),
	}
	for _, m := range rr.Markers {
		out.Markers = append(out.Markers, dto.MarkerResponse{Lat: m.Lat, Lng: m.Lng, Address: m.Address})
	}
	for _, c := range rr.Path {
		out.Path = append(out.Path, c.CoordsToList())
	}
	return out
}
