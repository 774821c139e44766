package api

import (
	"net/http"

	"github.com/answerdesk/answerdesk/internal/rag"
)

func (s *Server) handleEval(w http.ResponseWriter, _ *http.Request) {
	summary := rag.RunEval(s.retriever, rag.DefaultEvalCases())
	s.logger.Info("eval suite finished", "passed", summary.PassedTests, "total", summary.TotalTests)
	s.writeJSON(w, http.StatusOK, summary)
}
