package server

import (
	"mime"
	"net/http"
	"strings"
)

// WithAllowedOrigins sets the browser origins that may call the server. An
// entry ending in "*" matches any origin with that prefix. Requests without
// an Origin header are always accepted.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.origins = nil
		for _, o := range origins {
			if o = strings.TrimSpace(o); o != "" {
				s.origins = append(s.origins, o)
			}
		}
	}
}

func (s *Server) originAllowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.origins {
		if prefix, ok := strings.CutSuffix(allowed, "*"); ok {
			if strings.HasPrefix(origin, prefix) {
				return true
			}
			continue
		}
		if origin == allowed {
			return true
		}
	}
	return false
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}
