package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/hongminglow/bank-customer-api/internal/models"
)

func TestAuthCounters(t *testing.T) {
	m := NewAuth(prometheus.NewRegistry())

	m.LoginAttempt("success")
	m.LoginAttempt("success")
	m.LoginAttempt("locked")
	m.Lockout()
	m.Registered(models.KindViewOnly)
	m.Denied("admin")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LoginAttempts.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoginAttempts.WithLabelValues("locked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Lockouts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Registrations.WithLabelValues("ViewOnlyUser")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Denials.WithLabelValues("admin")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewAuth(prometheus.NewRegistry())
	m.Lockout()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bank_auth_lockouts_total 1")
}
