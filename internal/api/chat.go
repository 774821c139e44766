package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/answerdesk/answerdesk/internal/generate"
	"github.com/answerdesk/answerdesk/internal/monitor"
)

type chatRequest struct {
	Messages []generate.Turn `json:"messages"`
}

// handleChat streams an answer as a line-delimited event stream. The
// request is rejected before any retrieval work when it is rate
// limited or malformed; those rejections never stream, but they are
// still recorded as error samples.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r, s.trustProxy)
	if !s.limiter.Allow(ip) {
		s.logger.Warn("rate limit exceeded", "ip", ip)
		s.monitor.Record(monitor.Sample{IsError: true})
		w.Header().Set("X-RateLimit-Remaining", "0")
		s.writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
		return
	}
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(s.limiter.Remaining(ip)))

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.monitor.Record(monitor.Sample{IsError: true})
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		s.monitor.Record(monitor.Sample{IsError: true})
		s.writeError(w, http.StatusBadRequest, "messages must not be empty")
		return
	}
	last := req.Messages[len(req.Messages)-1]
	if last.Role != generate.RoleUser {
		s.monitor.Record(monitor.Sample{Query: strings.TrimSpace(last.Content), IsError: true})
		s.writeError(w, http.StatusBadRequest, "last message must be from the user")
		return
	}
	query := strings.TrimSpace(last.Content)
	if query == "" {
		s.monitor.Record(monitor.Sample{IsError: true})
		s.writeError(w, http.StatusBadRequest, "message content must not be empty")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	start := time.Now()
	citations := s.retriever.Citations(query)
	history := req.Messages[:len(req.Messages)-1]

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// The sample is recorded exactly once per request, whether the
	// stream ends, errors, or the client walks away mid-answer.
	isError := false
	terminal := false
	for ev := range s.generator.Stream(r.Context(), query, citations, history) {
		if err := writeEvent(w, ev); err != nil {
			s.logger.Debug("client gone", "error", err)
			break
		}
		flusher.Flush()
		switch ev.Type {
		case generate.EventEnd:
			terminal = true
		case generate.EventError:
			terminal = true
			isError = true
		}
	}
	if !terminal {
		isError = true
	}

	cited := make([]string, len(citations))
	for i, c := range citations {
		cited[i] = c.Filename
	}
	s.monitor.Record(monitor.Sample{
		Query:     query,
		Latency:   time.Since(start),
		Citations: cited,
		IsError:   isError,
	})
}

func writeEvent(w http.ResponseWriter, ev generate.Event) error {
	frame, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", frame); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}
