package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/doorbell-core/internal/doorbell"
	"github.com/nerrad567/doorbell-core/internal/store"
)

// eventWriteRequest is the webhook body: the record before and after the write.
type eventWriteRequest struct {
	Before any `json:"before"`
	After  any `json:"after"`
}

type reportResponse struct {
	SuccessCount int `json:"success_count"`
	FailureCount int `json:"failure_count"`
}

type dedupResponse struct {
	Canonical string   `json:"canonical,omitempty"`
	Removed   []string `json:"removed"`
}

type eventWriteResponse struct {
	DoorbellID string          `json:"doorbell_id"`
	Timestamp  string          `json:"timestamp"`
	Type       string          `json:"type,omitempty"`
	Ignored    string          `json:"ignored,omitempty"`
	StatePath  string          `json:"state_path,omitempty"`
	StateValue any             `json:"state_value,omitempty"`
	Dispatched bool            `json:"dispatched"`
	Report     *reportResponse `json:"report,omitempty"`
	Dedup      *dedupResponse  `json:"dedup,omitempty"`
}

// handleEventWrite forwards one event write to the handler.
func (s *Server) handleEventWrite(w http.ResponseWriter, r *http.Request) {
	doorbellID := chi.URLParam(r, "doorbellID")
	timestamp := chi.URLParam(r, "timestamp")
	for _, key := range []string{doorbellID, timestamp} {
		if err := store.ValidateKey(key); err != nil {
			writeBadRequest(w, err.Error())
			return
		}
	}

	var req eventWriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	res, err := s.handler.HandleEventWrite(r.Context(), doorbellID, timestamp, req.Before, req.After)
	if err != nil {
		s.logger.Warn("event write failed",
			"doorbell_id", doorbellID,
			"timestamp", timestamp,
			"request_id", requestID(r.Context()),
			"error", err,
		)
		writeHandlerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEventWriteResponse(doorbellID, timestamp, res))
}

func toEventWriteResponse(doorbellID, timestamp string, res doorbell.Result) eventWriteResponse {
	resp := eventWriteResponse{
		DoorbellID: doorbellID,
		Timestamp:  timestamp,
		Ignored:    res.Ignored,
		StatePath:  res.Outcome.StatePath,
		StateValue: res.Outcome.StateValue,
		Dispatched: res.Outcome.Dispatched,
	}
	if res.Event != nil {
		resp.Type = res.Event.Type.String()
	}
	if rep := res.Outcome.Report; rep != nil {
		resp.Report = &reportResponse{SuccessCount: rep.SuccessCount, FailureCount: rep.FailureCount}
	}
	if d := res.Dedup; d != nil && d.Changed() {
		resp.Dedup = &dedupResponse{Canonical: d.Canonical, Removed: d.Removed}
	}
	return resp
}
