package httpx_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/keygate/pkg/httpx"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	token string
	err   error
}

func (s stubResolver) ResolveSession(_ context.Context, token string) (string, string, bool, error) {
	if s.err != nil {
		return "", "", false, s.err
	}
	if token != s.token {
		return "", "", false, nil
	}
	return "user-1", "sess-1", true, nil
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(okHandler(), mark("outer"), mark("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"outer", "inner"}, order)
}

func TestRecover(t *testing.T) {
	h := httpx.Recover()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAuthnMiddleware(t *testing.T) {
	var gotUser, gotSession string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = httpx.UserIDFromContext(r.Context())
		gotSession = httpx.SessionIDFromContext(r.Context())
	})

	tests := []struct {
		name     string
		resolver stubResolver
		header   string
		want     int
	}{
		{"missing header", stubResolver{token: "good"}, "", http.StatusUnauthorized},
		{"wrong scheme", stubResolver{token: "good"}, "Basic good", http.StatusUnauthorized},
		{"unknown token", stubResolver{token: "good"}, "Bearer bad", http.StatusUnauthorized},
		{"lookup failure", stubResolver{err: errors.New("db down")}, "Bearer good", http.StatusInternalServerError},
		{"valid session", stubResolver{token: "good"}, "Bearer good", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUser, gotSession = "", ""
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			httpx.AuthnMiddleware(tt.resolver)(inner).ServeHTTP(rec, req)

			require.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				require.Equal(t, "user-1", gotUser)
				require.Equal(t, "sess-1", gotSession)
			} else {
				require.Empty(t, gotUser)
			}
		})
	}
}
