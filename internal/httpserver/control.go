package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// ControlState is the /control payload: a read of the server's runtime
// switches, also returned after a write.
type ControlState struct {
	AudioMuted  bool   `json:"audioMuted"`
	PrivateMode bool   `json:"privateMode"`
	Port        uint16 `json:"port"`
}

// handleControl reads and optionally writes the server-wide mute flag.
// State changes ride query parameters on GET; the response always carries
// the resulting state.
func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	if mute := r.URL.Query().Get("mute"); mute != "" {
		if v, err := strconv.Atoi(mute); err == nil {
			s.SetMuted(v != 0)
			log.Info("audio mute set", "muted", s.Muted(), "remoteAddr", r.RemoteAddr)
		}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(ControlState{
		AudioMuted:  s.Muted(),
		PrivateMode: s.auth != nil,
		Port:        s.opts.Port,
	})
}
