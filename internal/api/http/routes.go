package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"vitals-monitor/internal/domain"
	"vitals-monitor/internal/infrastructure/chart"
	"vitals-monitor/internal/infrastructure/panel"
)

const (
	paramChannel = "channel"
	queryLimit   = "limit"
	maxLimit     = 100
)

// handler contains the HTTP handlers and shared dependencies for the REST API.
type handler struct {
	service domain.MonitorService
	charts  ChartStream
	regions RegionSource
	logger  Logger
}

func registerRoutes(router chi.Router, h *handler) {
	router.Get("/health", h.handleHealth)
	router.Get("/healthz", h.handleHealth)

	router.Route("/channels", func(r chi.Router) {
		r.Get("/", h.handleListChannels)
		r.Get("/{channel}", h.handleGetChannel)
		r.Get("/{channel}/chart", h.handleGetChart)
		r.Get("/{channel}/diagnosis", h.handleGetDiagnosis)
		r.Get("/{channel}/history", h.handleGetHistory)
	})

	router.Get("/ws/charts", h.handleChartStream)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

type readingResponse struct {
	Seq       int     `json:"seq"`
	Value     float64 `json:"value"`
	Unit      string  `json:"unit"`
	Timestamp string  `json:"timestamp"`
}

type channelResponse struct {
	Channel      string            `json:"channel"`
	SessionID    string            `json:"sessionId"`
	State        string            `json:"state"`
	Active       bool              `json:"active"`
	SamplesTaken int               `json:"samplesTaken"`
	SampleCap    int               `json:"sampleCap"`
	Policy       string            `json:"policy"`
	History      []readingResponse `json:"history"`
}

type frameResponse struct {
	Chart  string       `json:"chart"`
	Seq    uint64       `json:"seq"`
	Labels []int        `json:"labels"`
	Values []*float64   `json:"values"`
	Style  *chart.Style `json:"style,omitempty"`
}

type bandResponse struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

type diagnosisResponse struct {
	Channel        string        `json:"channel"`
	SessionID      string        `json:"sessionId"`
	Policy         string        `json:"policy"`
	Count          int           `json:"count"`
	Mean           *float64      `json:"mean,omitempty"`
	Min            *float64      `json:"min,omitempty"`
	Max            *float64      `json:"max,omitempty"`
	Reference      bandResponse  `json:"reference"`
	Unit           string        `json:"unit"`
	Classification string        `json:"classification"`
	Text           string        `json:"text"`
	CompletedAt    string        `json:"completedAt"`
	Region         *panel.Region `json:"region,omitempty"`
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) handleListChannels(w http.ResponseWriter, _ *http.Request) {
	states := h.service.Channels()
	response := make([]channelResponse, 0, len(states))
	for _, state := range states {
		response = append(response, toChannelResponse(state))
	}
	h.writeJSON(w, http.StatusOK, response)
}

func (h *handler) handleGetChannel(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.State(chi.URLParam(r, paramChannel))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toChannelResponse(state))
}

func (h *handler) handleGetChart(w http.ResponseWriter, r *http.Request) {
	frame, err := h.service.Chart(chi.URLParam(r, paramChannel))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.toFrameResponse(frame))
}

func (h *handler) handleGetDiagnosis(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Diagnosis(chi.URLParam(r, paramChannel))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	response := toDiagnosisResponse(summary)
	if h.regions != nil {
		if region, ok := h.regions.Region(panel.RegionName(summary.Channel)); ok {
			response.Region = &region
		}
	}
	h.writeJSON(w, http.StatusOK, response)
}

func (h *handler) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get(queryLimit); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxLimit {
			h.writeError(w, http.StatusBadRequest, "limit must be an integer between 1 and 100")
			return
		}
		limit = parsed
	}

	summaries, err := h.service.History(r.Context(), chi.URLParam(r, paramChannel), limit)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	response := make([]diagnosisResponse, 0, len(summaries))
	for _, summary := range summaries {
		response = append(response, toDiagnosisResponse(summary))
	}
	h.writeJSON(w, http.StatusOK, response)
}

func toChannelResponse(state domain.ChannelState) channelResponse {
	history := make([]readingResponse, 0, len(state.History))
	for _, reading := range state.History {
		history = append(history, readingResponse{
			Seq:       reading.Seq,
			Value:     reading.Value,
			Unit:      reading.Unit,
			Timestamp: reading.Timestamp.UTC().Format(time.RFC3339Nano),
		})
	}

	return channelResponse{
		Channel:      state.Channel,
		SessionID:    state.SessionID,
		State:        state.State.String(),
		Active:       state.Active,
		SamplesTaken: state.SamplesTaken,
		SampleCap:    state.SampleCap,
		Policy:       state.Policy.String(),
		History:      history,
	}
}

func (h *handler) toFrameResponse(frame domain.ChartFrame) frameResponse {
	response := frameResponse{
		Chart:  frame.Chart,
		Seq:    frame.Seq,
		Labels: frame.Labels,
		Values: frame.Values,
	}
	if response.Labels == nil {
		response.Labels = []int{}
	}
	if response.Values == nil {
		response.Values = []*float64{}
	}
	if h.charts != nil {
		if style, ok := h.charts.Style(frame.Chart); ok {
			response.Style = &style
		}
	}
	return response
}

func toDiagnosisResponse(summary domain.Summary) diagnosisResponse {
	response := diagnosisResponse{
		Channel:        summary.Channel,
		SessionID:      summary.SessionID,
		Policy:         summary.Policy.String(),
		Count:          summary.Count,
		Reference:      bandResponse{Low: summary.Reference.Low, High: summary.Reference.High},
		Unit:           summary.Unit,
		Classification: summary.Classification.String(),
		Text:           summary.Text,
		CompletedAt:    summary.CompletedAt.UTC().Format(time.RFC3339Nano),
	}

	if summary.HasData() {
		switch summary.Policy {
		case domain.PolicyOutOfRange:
			lowest, highest := summary.Min, summary.Max
			response.Min, response.Max = &lowest, &highest
		default:
			mean := summary.Mean
			response.Mean = &mean
		}
	}
	return response
}

func (h *handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownChannel):
		h.writeError(w, http.StatusNotFound, "unknown channel")
	case errors.Is(err, domain.ErrDiagnosisPending):
		h.writeError(w, http.StatusNotFound, "diagnosis not available yet")
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "no archived diagnoses")
	default:
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, errorResponse{Error: message, Code: status})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
