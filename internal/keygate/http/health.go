package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/keygate/internal/keygate/store"
	"github.com/aussiebroadwan/keygate/pkg/authsdk"
	"github.com/aussiebroadwan/keygate/pkg/httpx"
)

// LivezHandler always answers 200 while the process is up.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, authsdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler reports 503 when the database is unreachable. The
// verification check is informational: a disabled second factor is a
// valid deployment.
func ReadyzHandler(startTime time.Time, version string, st store.Store, verificationOn bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &authsdk.HealthChecks{
			Database:     "ok",
			Verification: "disabled",
		}
		if verificationOn {
			checks.Verification = "ok"
		}

		status := "ok"
		code := http.StatusOK
		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, authsdk.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
