package metrics

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	s := New(Config{})

	s.GestureDetected(GestureDoubleTap)
	s.GestureDetected(GestureDoubleTap)
	s.GestureDetected(GestureKeyCombo)
	s.Transition(true)
	s.CapabilityFailure("release")

	assert.Equal(t, 2.0, testutil.ToFloat64(s.gestures.WithLabelValues(GestureDoubleTap)))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.gestures.WithLabelValues(GestureKeyCombo)))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.transitions.WithLabelValues("locked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.locked))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.failures.WithLabelValues("release")))

	s.Transition(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(s.locked))
}

func TestMetricsEndpoint(t *testing.T) {
	s := New(Config{Namespace: "test"})
	s.Transition(true)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `test_transitions_total{to="locked"} 1`)
	assert.Contains(t, body, "test_locked 1")
}

func TestStatusEndpoint(t *testing.T) {
	s := New(Config{})
	s.Transition(true)
	s.Transition(false)
	s.Transition(true)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var st status
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&st))
	assert.True(t, st.Locked)
	assert.Equal(t, uint64(3), st.Transitions)
	require.NotNil(t, st.LastTransition)
	assert.False(t, st.LastTransition.IsZero())
}

func TestStatusBeforeFirstTransition(t *testing.T) {
	s := New(Config{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "last_transition")
	assert.JSONEq(t, `{"locked":false,"transitions":0}`, rec.Body.String())
}

func TestServerStartStop(t *testing.T) {
	s := New(Config{Address: "127.0.0.1:0"})
	require.NoError(t, s.Start())
	require.NotEmpty(t, s.Addr())

	resp, err := http.Get("http://" + s.Addr() + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.True(t, strings.Contains(string(body), "kioskguard_locked"))

	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop(), "second stop is a no-op")
}

func TestDisabledServer(t *testing.T) {
	s := New(Config{})
	assert.NoError(t, s.Start())
	assert.Empty(t, s.Addr())
	assert.NoError(t, s.Stop())

	n := NewNoop()
	n.GestureDetected(GestureKeyCombo)
	assert.NoError(t, n.Start())
	assert.NoError(t, n.Stop())
}
