package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/skilltree/internal/logger"
	"github.com/abhisek/skilltree/internal/metrics"
	"github.com/abhisek/skilltree/internal/store"
)

// Recorder receives one record per provider call. Any field may be nil.
type Recorder struct {
	Events  store.EventRepo
	Log     *logger.Logger
	Metrics *metrics.Metrics
}

type recordingProvider struct {
	Provider
	rec Recorder
}

// WithRecorder audits every call to p: an event row, a counter and a log
// line. Recording failures are logged and never fail the call.
func WithRecorder(p Provider, rec Recorder) Provider {
	if rec.Log == nil {
		rec.Log = logger.Nop()
	}
	return &recordingProvider{Provider: p, rec: rec}
}

func (r *recordingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := r.Provider.Generate(ctx, req)
	latency := time.Since(start)

	data := store.LLMRequestEventData{
		Provider:    r.Name(),
		Model:       r.ModelID(),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   latency.Milliseconds(),
		Success:     err == nil,
		RequestBody: describeRequest(req),
	}
	if resp != nil {
		data.Model = resp.Model
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		data.ResponseBody = string(resp.Content)
	}
	if err != nil {
		data.ErrorMessage = err.Error()
	}

	if r.rec.Metrics != nil {
		r.rec.Metrics.LLMRequest(data.Provider, err)
	}
	if r.rec.Events != nil {
		if logErr := r.rec.Events.AppendLLMRequest(ctx, data); logErr != nil {
			r.rec.Log.Warn("llm event not recorded", "error", logErr)
		}
	}
	r.rec.Log.Debug("llm request",
		"provider", data.Provider, "model", data.Model, "purpose", data.Purpose,
		"latency", latency, "input_tokens", data.InputTokens, "output_tokens", data.OutputTokens,
		"success", data.Success)

	return resp, err
}

// describeRequest renders a request for the audit log.
func describeRequest(req Request) string {
	var b strings.Builder
	if req.System != "" {
		fmt.Fprintf(&b, "[system]\n%s\n\n", req.System)
	}
	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", m.Role, m.Content)
	}
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n%s\n", req.Schema.Name, def)
		}
	}
	return b.String()
}
