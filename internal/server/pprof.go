package server

import (
	"net"
	"net/http"
	hpprof "net/http/pprof"
	"strings"

	"github.com/gorilla/mux"
)

// mountPprof registers net/http/pprof under prefix (which ends with "/").
func mountPprof(r *mux.Router, prefix, token string) {
	base := strings.TrimSuffix(prefix, "/")
	r.Handle(base, http.RedirectHandler(prefix, http.StatusPermanentRedirect))

	sub := r.PathPrefix(base).Subrouter()
	sub.Use(pprofAuth(token))

	sub.HandleFunc("/cmdline", hpprof.Cmdline)
	sub.HandleFunc("/profile", hpprof.Profile)
	sub.HandleFunc("/symbol", hpprof.Symbol)
	sub.HandleFunc("/trace", hpprof.Trace)
	sub.PathPrefix("/").HandlerFunc(pprofIndexAt(prefix))
}

// pprof.Index assumes requests are rooted at /debug/pprof/, so the path is
// rewritten for custom prefixes.
func pprofIndexAt(prefix string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r2 := r.Clone(r.Context())
		r2.URL.Path = "/debug/pprof/" + strings.TrimPrefix(r.URL.Path, prefix)
		hpprof.Index(w, r2)
	}
}

// pprofAuth requires the bearer token (header or ?token=) when one is set.
// Without a token only loopback clients are served.
func pprofAuth(token string) mux.MiddlewareFunc {
	tok := strings.TrimSpace(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok == "" {
				if !isLoopbackRemote(r.RemoteAddr) {
					writeError(w, http.StatusForbidden, "pprof is restricted to loopback clients")
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			if got := r.URL.Query().Get("token"); got != "" {
				if got == tok {
					next.ServeHTTP(w, r)
					return
				}
				unauthorized(w)
				return
			}
			const p = "Bearer "
			if ah := r.Header.Get("Authorization"); strings.HasPrefix(ah, p) && strings.TrimSpace(strings.TrimPrefix(ah, p)) == tok {
				next.ServeHTTP(w, r)
				return
			}
			unauthorized(w)
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, "unauthorized")
}

func isLoopbackRemote(addr string) bool {
	h, _, err := net.SplitHostPort(addr)
	if err != nil {
		h = addr
	}
	h = strings.TrimSpace(h)
	if strings.EqualFold(h, "localhost") {
		return true
	}
	ip := net.ParseIP(h)
	return ip != nil && ip.IsLoopback()
}
