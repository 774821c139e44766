package api

import "net/http"

func (s *Server) handleIndexStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.retriever.Status())
}

func (s *Server) handleIndexRebuild(w http.ResponseWriter, _ *http.Request) {
	ok := s.retriever.Reindex()
	status := s.retriever.Status()
	if !ok {
		s.logger.Error("index rebuild failed")
		s.writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"status":  status,
		})
		return
	}
	s.logger.Info("index rebuilt", "chunks", status.ChunkCount, "documents", len(status.Documents))
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"status":  status,
	})
}
