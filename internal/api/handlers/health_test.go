package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"trajectory-service/internal/services"

	"github.com/stretchr/testify/assert"
)

type fixedStatus services.ExecutorStatus

func (s fixedStatus) Status() services.ExecutorStatus { return services.ExecutorStatus(s) }

func TestHealth(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		executor ExecutorStatusReporter
		code     int
		body     string
	}{
		{"idle", http.MethodGet, fixedStatus{}, http.StatusOK, `{"status":"ok"}`},
		{"executing", http.MethodGet, fixedStatus{ActivePlanID: "p-1"}, http.StatusOK, `{"status":"ok","active_plan_id":"p-1"}`},
		{"no executor", http.MethodGet, nil, http.StatusOK, `{"status":"ok"}`},
		{"wrong method", http.MethodPost, fixedStatus{}, http.StatusMethodNotAllowed, `{"error":"method not allowed"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Health(tt.executor)(rec, httptest.NewRequest(tt.method, "/health", nil))

			assert.Equal(t, tt.code, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
			if tt.code == http.StatusMethodNotAllowed {
				assert.Equal(t, http.MethodGet, rec.Header().Get("Allow"))
			}
		})
	}
}
