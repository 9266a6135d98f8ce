package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	return string(body)
}

func TestInstrumentCountsByRouteAndStatus(t *testing.T) {
	c := New("galaxy_test")
	h := c.Instrument("/api/documents", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	for i := 0; i < 3; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/documents", nil))
	}
	want := `galaxy_test_http_requests_total{method="POST",route="/api/documents",status="201"} 3`
	if out := scrape(t, c); !strings.Contains(out, want) {
		t.Fatalf("metrics output missing %q", want)
	}
}

func TestHandlerExposesRegistry(t *testing.T) {
	c := New("galaxy_test")
	c.DocumentsCreated.Inc()
	c.Logins.WithLabelValues("success").Inc()

	body := scrape(t, c)
	for _, want := range []string{"galaxy_test_documents_created_total 1", `galaxy_test_logins_total{outcome="success"} 1`} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

func TestNilCollectorInstrumentIsPassthrough(t *testing.T) {
	var c *Collector
	called := false
	h := c.Instrument("/x", http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	if !called {
		t.Fatalf("expected wrapped handler to run")
	}
}
