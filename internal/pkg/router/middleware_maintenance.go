package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/pkg/config"
)

// maintenanceSet parses app.maintenance.endpoints. An entry is either a route
// pattern ("/api/v1/users/register") blocking every method, or a method and a
// pattern ("POST /api/v1/users/otp/send").
func maintenanceSet(cfg config.Config) map[string]struct{} {
	set := map[string]struct{}{}
	if cfg == nil {
		return set
	}

	for _, entry := range cfg.GetArray("app.maintenance.endpoints") {
		fields := strings.Fields(entry)
		switch len(fields) {
		case 1:
			set[fields[0]] = struct{}{}
		case 2:
			set[strings.ToUpper(fields[0])+" "+fields[1]] = struct{}{}
		}
	}
	return set
}

// middlewareMaintenance is evaluated per request, so a config reload takes
// effect without a restart.
func middlewareMaintenance(cfg config.Config) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			set := maintenanceSet(cfg)
			route := matchedRoutePath(r)

			_, all := set[route]
			_, one := set[r.Method+" "+route]
			if all || one {
				writeJSON(w, errorResponse{Message: "Service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
