package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gioservice_backend/internal/metrics"
	"gioservice_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const testSecret = "middleware-test-secret-0123456789abcdef"

func init() {
	gin.SetMode(gin.TestMode)
}

func errorCode(t *testing.T, body string) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", body, err)
	}
	return resp.Error.Code
}

func guardedEngine(tokens *utils.TokenIssuer, roles ...string) *gin.Engine {
	r := gin.New()
	handlers := []gin.HandlerFunc{AuthMiddleware(tokens)}
	if len(roles) > 0 {
		handlers = append(handlers, RoleAuthMiddleware(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetInt64("userID")})
	})
	r.GET("/guarded", handlers...)
	return r
}

func TestAuthMiddleware(t *testing.T) {
	tokens := utils.NewTokenIssuer(testSecret, time.Hour)
	valid, _, err := tokens.Issue(42, "gio", "admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	expired, _, err := utils.NewTokenIssuer(testSecret, -time.Minute).Issue(42, "gio", "admin")
	if err != nil {
		t.Fatalf("issue expired: %v", err)
	}
	foreign, _, err := utils.NewTokenIssuer("another-secret-another-secret-another", time.Hour).Issue(42, "gio", "admin")
	if err != nil {
		t.Fatalf("issue foreign: %v", err)
	}

	cases := []struct {
		name       string
		header     string
		wantStatus int
		wantCode   string
	}{
		{"valid token", "Bearer " + valid, http.StatusOK, ""},
		{"missing header", "", http.StatusUnauthorized, utils.ErrCodeUnauthorized},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized, utils.ErrCodeUnauthorized},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized, utils.ErrCodeSessionExpired},
		{"foreign signature", "Bearer " + foreign, http.StatusUnauthorized, utils.ErrCodeUnauthorized},
	}
	r := guardedEngine(tokens)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.wantStatus {
				t.Fatalf("status: got %d, want %d (%s)", w.Code, tc.wantStatus, w.Body.String())
			}
			if tc.wantCode != "" {
				if got := errorCode(t, w.Body.String()); got != tc.wantCode {
					t.Fatalf("code: got %s, want %s", got, tc.wantCode)
				}
			} else if !strings.Contains(w.Body.String(), `"user_id":42`) {
				t.Fatalf("claims not propagated: %s", w.Body.String())
			}
		})
	}
}

func TestRoleAuthMiddleware(t *testing.T) {
	tokens := utils.NewTokenIssuer(testSecret, time.Hour)
	staff, _, _ := tokens.Issue(1, "luis", "staff")
	admin, _, _ := tokens.Issue(2, "gio", "Admin")
	r := guardedEngine(tokens, "admin")

	for token, want := range map[string]int{staff: http.StatusForbidden, admin: http.StatusOK} {
		req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != want {
			t.Fatalf("status: got %d, want %d", w.Code, want)
		}
	}
}

func TestMetricsMiddlewareUsesRouteTemplate(t *testing.T) {
	m := metrics.New()
	r := gin.New()
	r.Use(MetricsMiddleware(m))
	r.GET("/jobs/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, path := range []string{"/jobs/1", "/jobs/2", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	counts := map[string]float64{}
	for _, f := range families {
		if f.GetName() != "gioservice_http_requests_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			var route string
			for _, l := range metric.GetLabel() {
				if l.GetName() == "route" {
					route = l.GetValue()
				}
			}
			counts[route] += metric.GetCounter().GetValue()
		}
	}
	if counts["/jobs/:id"] != 2 || counts["unmatched"] != 1 {
		t.Fatalf("request counts by route: %v", counts)
	}
}
