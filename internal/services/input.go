package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"route-map-client/internal/domain"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type stopInput struct {
	Lat     *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng     *float64 `json:"lng" validate:"required,gte=-180,lte=180"`
	Address string   `json:"address" validate:"required"`
}

type stopSetInput struct {
	Depot *stopInput      `json:"depot"`
	Stops json.RawMessage `json:"stops"`
}

// Messages for the validator tags stop input uses.
var fieldMessages = map[string]string{
	"required": "%s is required",
	"gte":      "%s must be greater than or equal to %s",
	"lte":      "%s must be less than or equal to %s",
}

// ParseStopInput turns raw editor content into a StopSet.
//
// Two shapes are accepted: an object {"depot": {...}, "stops": [...]} where
// the depot is optional, or a bare array of stops. Anything else, including
// an object without a stops array, is a *domain.ValidationError.
func ParseStopInput(raw []byte) (domain.StopSet, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return domain.StopSet{}, &domain.ValidationError{Reason: domain.ErrMissingStops.Error(), Err: domain.ErrMissingStops}
	}

	if trimmed[0] == '[' {
		stops, err := parseStops(trimmed)
		if err != nil {
			return domain.StopSet{}, err
		}
		return domain.StopSet{Stops: stops}, nil
	}

	var in stopSetInput
	if err := json.Unmarshal(trimmed, &in); err != nil {
		return domain.StopSet{}, &domain.ValidationError{Reason: "invalid input: " + err.Error(), Err: err}
	}

	stopsRaw := bytes.TrimSpace(in.Stops)
	if len(stopsRaw) == 0 || bytes.Equal(stopsRaw, []byte("null")) {
		return domain.StopSet{}, &domain.ValidationError{Reason: domain.ErrMissingStops.Error(), Err: domain.ErrMissingStops}
	}

	stops, err := parseStops(stopsRaw)
	if err != nil {
		return domain.StopSet{}, err
	}

	set := domain.StopSet{Stops: stops}
	if in.Depot != nil {
		depot, err := toStop("depot", *in.Depot)
		if err != nil {
			return domain.StopSet{}, err
		}
		set.Depot = &depot
	}

	return set, nil
}

func parseStops(raw []byte) ([]domain.Stop, error) {
	if raw[0] != '[' {
		return nil, &domain.ValidationError{Reason: "stops must be an array", Err: domain.ErrMissingStops}
	}

	var items []stopInput
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &domain.ValidationError{Reason: "invalid stops: " + err.Error(), Err: err}
	}

	stops := make([]domain.Stop, 0, len(items))
	for i, item := range items {
		s, err := toStop(fmt.Sprintf("stops[%d]", i), item)
		if err != nil {
			return nil, err
		}
		stops = append(stops, s)
	}
	return stops, nil
}

func toStop(where string, in stopInput) (domain.Stop, error) {
	in.Address = strings.TrimSpace(in.Address)
	if err := validate.Struct(in); err != nil {
		return domain.Stop{}, &domain.ValidationError{Reason: where + ": " + describe(err), Err: err}
	}
	return domain.Stop{Lat: *in.Lat, Lng: *in.Lng, Address: in.Address}, nil
}

// Turn validator errors into a short message keyed by JSON field names.
func describe(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		name := strings.ToLower(fe.StructField())
		msg, ok := fieldMessages[fe.Tag()]
		if !ok {
			msgs = append(msgs, fmt.Sprintf("%s is invalid: %s", name, fe.Tag()))
			continue
		}
		if strings.Count(msg, "%s") == 2 {
			msgs = append(msgs, fmt.Sprintf(msg, name, fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf(msg, name))
		}
	}
	return strings.Join(msgs, "; ")
}
