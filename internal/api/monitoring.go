package api

import "net/http"

func (s *Server) handleMonitoring(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.monitor.Snapshot())
}

func (s *Server) handleMonitoringReset(w http.ResponseWriter, _ *http.Request) {
	s.monitor.Reset()
	s.logger.Info("monitoring stats reset")
	s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
