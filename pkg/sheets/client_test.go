package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"google.golang.org/api/option"
)

type recordedCall struct {
	method string
	path   string
	query  string
	body   map[string]any
}

func newTestClient(t *testing.T, status int) (*Client, *[]recordedCall) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []recordedCall
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := recordedCall{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery}
		_ = json.NewDecoder(r.Body).Decode(&call.body)
		mu.Lock()
		calls = append(calls, call)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status >= 400 {
			_, _ = w.Write([]byte(`{"error":{"code":403,"message":"The caller does not have permission"}}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(context.Background(), "", option.WithEndpoint(srv.URL+"/"), option.WithoutAuthentication())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c, &calls
}

func TestClearRange(t *testing.T) {
	c, calls := newTestClient(t, http.StatusOK)

	if err := c.ClearRange("sheet-1", "Chat!A1:D"); err != nil {
		t.Fatalf("ClearRange: %v", err)
	}
	if len(*calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(*calls))
	}
	got := (*calls)[0]
	if got.method != http.MethodPost || !strings.Contains(got.path, "/spreadsheets/sheet-1/values/") || !strings.HasSuffix(got.path, ":clear") {
		t.Errorf("unexpected request %s %s", got.method, got.path)
	}
}

func TestUpdateValues(t *testing.T) {
	c, calls := newTestClient(t, http.StatusOK)

	rows := [][]interface{}{{"Time", "Role", "Text"}, {"12:00", "user", "Who scored?"}}
	if err := c.UpdateValues("sheet-1", "A1", rows); err != nil {
		t.Fatalf("UpdateValues: %v", err)
	}
	got := (*calls)[0]
	if got.method != http.MethodPut {
		t.Errorf("method = %s, want PUT", got.method)
	}
	if !strings.Contains(got.query, "valueInputOption=RAW") {
		t.Errorf("query = %q", got.query)
	}
	values, ok := got.body["values"].([]any)
	if !ok || len(values) != 2 {
		t.Fatalf("body values = %v", got.body["values"])
	}
}

func TestErrorsAreWrapped(t *testing.T) {
	c, _ := newTestClient(t, http.StatusForbidden)

	err := c.UpdateValues("sheet-1", "A1", [][]interface{}{{"x"}})
	if err == nil || !strings.Contains(err.Error(), "failed to update range A1") {
		t.Fatalf("err = %v", err)
	}
}
