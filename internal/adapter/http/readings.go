package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/weather-reading-service/internal/domain"
	"github.com/couchcryptid/weather-reading-service/internal/pipeline"
)

const (
	maxBodyBytes = 1 << 20

	defaultReportLimit = 20
	maxReportLimit     = 500
)

// derivedReading is the response body of the derive endpoint.
type derivedReading struct {
	Temperature      int    `json:"temperature"`
	DewPoint         int    `json:"dew_point"`
	WindSpeed        int    `json:"wind_speed"`
	TotalRain        int    `json:"total_rain"`
	RelativeHumidity int    `json:"relative_humidity"`
	HeatIndex        int    `json:"heat_index"`
	WindChill        int    `json:"wind_chill"`
	Summary          string `json:"summary"`
}

type rejection struct {
	Index     int    `json:"index"`
	StationID string `json:"station_id,omitempty"`
	Reason    string `json:"reason"`
	Error     string `json:"error"`
}

type publishResponse struct {
	Reports  []domain.Report `json:"reports"`
	Rejected []rejection     `json:"rejected"`
	Error    string          `json:"error,omitempty"`
}

func (s *Server) handleDerive(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var errs []error
	temp := parseFloat(q.Get("temp"), "temp", &errs)
	dew := parseFloat(q.Get("dew"), "dew", &errs)
	wind := parseFloat(q.Get("wind"), "wind", &errs)
	rain, err := strconv.Atoi(strings.TrimSpace(q.Get("rain")))
	if err != nil {
		errs = append(errs, fmt.Errorf("rain must be a whole number, got %q", q.Get("rain")))
	}
	if len(errs) > 0 {
		writeError(w, http.StatusBadRequest, errors.Join(errs...).Error())
		return
	}

	reading, err := domain.NewReading(temp, dew, wind, rain)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, derivedReading{
		Temperature:      reading.Temperature(),
		DewPoint:         reading.DewPoint(),
		WindSpeed:        reading.WindSpeed(),
		TotalRain:        reading.TotalRain(),
		RelativeHumidity: reading.RelativeHumidity(),
		HeatIndex:        reading.HeatIndex(),
		WindChill:        reading.WindChill(),
		Summary:          reading.String(),
	})
}

func parseFloat(s, name string, errs *[]error) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s must be a number, got %q", name, s))
	}
	return v
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body too large (limit %d bytes)", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("read request body: %v", err))
		return
	}

	events, err := domain.DecodeObservations(body, "http", time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.publisher.Publish(r.Context(), events)
	resp := publishResponse{
		Reports:  result.Reports,
		Rejected: toRejections(result.Rejected),
	}
	if resp.Reports == nil {
		resp.Reports = []domain.Report{}
	}

	switch {
	case err != nil:
		s.logger.Error("publish failed", "error", err, "observations", len(events))
		resp.Error = err.Error()
		writeJSON(w, http.StatusBadGateway, resp)
	case len(result.Rejected) == len(events):
		writeJSON(w, http.StatusUnprocessableEntity, resp)
	default:
		writeJSON(w, http.StatusOK, resp)
	}
}

func toRejections(in []pipeline.Rejection) []rejection {
	out := make([]rejection, len(in))
	for i, rej := range in {
		out[i] = rejection{
			Index:     rej.Index,
			StationID: rej.StationID,
			Reason:    domain.RejectReason(rej.Err),
			Error:     rej.Err.Error(),
		}
	}
	return out
}

func (s *Server) handleStationReports(w http.ResponseWriter, r *http.Request) {
	station := strings.TrimSpace(r.PathValue("station"))
	if station == "" {
		writeError(w, http.StatusBadRequest, "station is required")
		return
	}

	limit := defaultReportLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxReportLimit {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("limit must be between 1 and %d", maxReportLimit))
			return
		}
		limit = n
	}

	reports, err := s.lister.Recent(r.Context(), station, limit)
	if err != nil {
		s.logger.Error("list reports failed", "error", err, "station_id", station)
		writeError(w, http.StatusInternalServerError, "could not list reports")
		return
	}
	if reports == nil {
		reports = []domain.Report{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"station_id": station,
		"reports":    reports,
	})
}
