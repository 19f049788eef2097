package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"budgeteer/internal/cache"
	"budgeteer/internal/core"
	"budgeteer/internal/services"
)

// flushOnMark flushes the view cache synchronously on every mutation, the
// way the debounced fan-out does asynchronously in production.
type flushOnMark struct {
	views *cache.TTLCache[services.MonthView]
}

func (f flushOnMark) MarkDirty() {
	f.views.Flush()
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	now := time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)
	views := cache.NewTTLCache[services.MonthView](16, time.Minute)
	ledgers := services.NewLedgerService(core.NewLedger(now), nil, flushOnMark{views: views})
	lifecycle := services.NewLifecycleService(ledgers, nil)
	return NewServer(":0", ledgers, lifecycle, views)
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := doRequest(t, srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rr.Code)
		}
	}
}

func TestMonthViewReflectsMutations(t *testing.T) {
	srv := newTestServer(t)

	rr := doRequest(t, srv, http.MethodPost, "/api/categories", `{"name":"Groceries","goal":"500.00"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create category status = %d, body %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, srv, http.MethodGet, "/api/month", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("month status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"Groceries"`) {
		t.Fatalf("month view missing category: %s", rr.Body.String())
	}

	// Second read must come from cache and still show the category.
	rr = doRequest(t, srv, http.MethodGet, "/api/month", "")
	if !strings.Contains(rr.Body.String(), `"Groceries"`) {
		t.Fatalf("cached month view missing category: %s", rr.Body.String())
	}

	rr = doRequest(t, srv, http.MethodPost, "/api/expenses",
		`{"category":"Groceries","amount":"42.50","note":"weekly shop"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create expense status = %d, body %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, srv, http.MethodGet, "/api/month", "")
	if !strings.Contains(rr.Body.String(), `"spentCents":4250`) {
		t.Fatalf("month view not refreshed after expense: %s", rr.Body.String())
	}
}

func TestValidationErrorsReportUnprocessable(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"zero amount income", http.MethodPost, "/api/income", `{"amount":"0","note":"x"}`},
		{"empty note income", http.MethodPost, "/api/income", `{"amount":"10.00","note":"  "}`},
		{"unknown category expense", http.MethodPost, "/api/expenses", `{"category":"Nope","amount":"5.00","note":"x"}`},
		{"bad goal", http.MethodPost, "/api/categories", `{"name":"A","goal":"abc"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := doRequest(t, srv, tc.method, tc.path, tc.body)
			if rr.Code != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want 422; body %s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestTransferInsufficientFunds(t *testing.T) {
	srv := newTestServer(t)

	doRequest(t, srv, http.MethodPost, "/api/categories", `{"name":"A","goal":"10.00"}`)
	doRequest(t, srv, http.MethodPost, "/api/categories", `{"name":"B","goal":"10.00"}`)

	rr := doRequest(t, srv, http.MethodPost, "/api/transfer", `{"from":"A","to":"B","amount":"50.00"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422; body %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, srv, http.MethodPost, "/api/transfer", `{"from":"A","to":"B","amount":"5.00"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("valid transfer status = %d, body %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"Transfer to B"`) {
		t.Fatalf("transfer response missing expense leg note: %s", rr.Body.String())
	}
}

func TestCloseMonthAndHistory(t *testing.T) {
	srv := newTestServer(t)

	doRequest(t, srv, http.MethodPost, "/api/categories", `{"name":"A","goal":"100.00"}`)

	rr := doRequest(t, srv, http.MethodGet, "/api/close", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("preview status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"2025-08"`) {
		t.Fatalf("preview missing month: %s", rr.Body.String())
	}

	rr = doRequest(t, srv, http.MethodPost, "/api/close",
		`{"month":"2025-08","resolutions":{"A":{"action":"carry"}}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("close status = %d, body %s", rr.Code, rr.Body.String())
	}

	// Closing the same month twice is a conflict.
	rr = doRequest(t, srv, http.MethodPost, "/api/close", `{"month":"2025-08"}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("re-close status = %d, want 409; body %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, srv, http.MethodGet, "/api/history", "")
	if !strings.Contains(rr.Body.String(), `"2025-08"`) {
		t.Fatalf("history keys missing closed month: %s", rr.Body.String())
	}

	rr = doRequest(t, srv, http.MethodGet, "/api/history/2025-08", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("history month status = %d", rr.Code)
	}

	rr = doRequest(t, srv, http.MethodGet, "/api/history/2025-01", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing history month status = %d, want 404", rr.Code)
	}

	rr = doRequest(t, srv, http.MethodGet, "/api/history/not-a-month", "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad history key status = %d, want 422", rr.Code)
	}
}

func TestExportAndRestore(t *testing.T) {
	srv := newTestServer(t)

	doRequest(t, srv, http.MethodPost, "/api/categories", `{"name":"A","goal":"100.00"}`)
	doRequest(t, srv, http.MethodPost, "/api/expenses", `{"category":"A","amount":"12.34","note":"lunch, with tip"}`)

	rr := doRequest(t, srv, http.MethodGet, "/api/export/csv", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("csv status = %d", rr.Code)
	}
	if !strings.HasPrefix(rr.Body.String(), "Type,Category,Amount,Note,Date") {
		t.Fatalf("csv missing header: %s", rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"lunch, with tip"`) {
		t.Fatalf("csv note not quoted: %s", rr.Body.String())
	}

	rr = doRequest(t, srv, http.MethodGet, "/api/export/backup", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("backup status = %d", rr.Code)
	}
	backup := rr.Body.String()

	rr = doRequest(t, srv, http.MethodPost, "/api/restore", `{"not":"a backup"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad restore status = %d, want 400; body %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, srv, http.MethodPost, "/api/restore", backup)
	if rr.Code != http.StatusOK {
		t.Fatalf("restore status = %d, body %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"A"`) {
		t.Fatalf("restored view missing category: %s", rr.Body.String())
	}
}

func TestSecurityHeadersPresent(t *testing.T) {
	srv := newTestServer(t)

	rr := doRequest(t, srv, http.MethodGet, "/api/month", "")
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rr.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}
