package metrics

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCollector_Sessions(t *testing.T) {
	c := New()

	c.SessionOpened()
	c.SessionOpened()
	if c.ActiveSessions() != 2 {
		t.Errorf("active = %d, want 2", c.ActiveSessions())
	}
	if c.TotalSessions() != 2 {
		t.Errorf("total = %d, want 2", c.TotalSessions())
	}

	c.SessionClosed()
	if c.ActiveSessions() != 1 {
		t.Errorf("active = %d, want 1", c.ActiveSessions())
	}
	if c.TotalSessions() != 2 {
		t.Errorf("total should remain 2, got %d", c.TotalSessions())
	}
}

func TestCollector_Bytes(t *testing.T) {
	c := New()

	c.BytesReceived(1024)
	c.BytesSent(512)
	c.BytesReceived(100)

	if c.TotalBytesIn() != 1124 {
		t.Errorf("bytes in = %d, want 1124", c.TotalBytesIn())
	}
	if c.TotalBytesOut() != 512 {
		t.Errorf("bytes out = %d, want 512", c.TotalBytesOut())
	}
}

func TestCollector_Commands(t *testing.T) {
	c := New()

	c.CommandDispatched(false)
	c.CommandDispatched(true)
	c.CommandDispatched(false)

	if c.Commands() != 3 {
		t.Errorf("commands = %d, want 3", c.Commands())
	}
	if c.CommandFailures() != 1 {
		t.Errorf("failures = %d, want 1", c.CommandFailures())
	}
}

func TestCollector_Rejected(t *testing.T) {
	c := New()
	c.ConnectionRejected()
	c.ConnectionRejected()
	if c.RejectedConnections() != 2 {
		t.Errorf("rejected = %d, want 2", c.RejectedConnections())
	}
}

func TestCollector_Errors(t *testing.T) {
	c := New()

	c.RecordError("first error")
	c.RecordError("second error")

	if c.ErrorCount() != 2 {
		t.Errorf("errors = %d, want 2", c.ErrorCount())
	}
}

func TestCollector_Snapshot(t *testing.T) {
	c := New()
	c.SessionOpened()
	c.BytesReceived(100)
	c.BytesSent(50)
	c.CommandDispatched(true)
	c.RecordError("test")

	snap := c.Snapshot()
	if snap.SessionsActive != 1 {
		t.Errorf("snap active = %d", snap.SessionsActive)
	}
	if snap.BytesIn != 100 {
		t.Errorf("snap bytes in = %d", snap.BytesIn)
	}
	if snap.CommandFailures != 1 {
		t.Errorf("snap failures = %d", snap.CommandFailures)
	}
	if snap.ErrorsTotal != 1 {
		t.Errorf("snap errors = %d", snap.ErrorsTotal)
	}
	if snap.LastErrorMessage != "test" {
		t.Errorf("snap error msg = %q", snap.LastErrorMessage)
	}
}

func TestCollector_JSON(t *testing.T) {
	c := New()
	c.SessionOpened()
	c.BytesSent(42)

	raw := c.JSON()
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		t.Fatalf("JSON parse error: %v", err)
	}
	if snap.SessionsActive != 1 {
		t.Errorf("JSON active = %d", snap.SessionsActive)
	}
	if snap.BytesOut != 42 {
		t.Errorf("JSON bytes out = %d", snap.BytesOut)
	}
}

func TestCollector_Handler(t *testing.T) {
	c := New()
	c.SessionOpened()
	c.CommandDispatched(false)
	c.CommandDispatched(true)

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	text := string(body)

	for _, want := range []string{
		"sshconsole_sessions_active 1",
		"sshconsole_commands_total 2",
		"sshconsole_command_failures_total 1",
		"sshconsole_uptime_seconds",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestNilCollector_NoOps(t *testing.T) {
	var c *Collector

	// None of these should panic.
	c.SessionOpened()
	c.SessionClosed()
	c.ConnectionRejected()
	c.BytesReceived(100)
	c.BytesSent(100)
	c.CommandDispatched(true)
	c.RecordError("test")

	if c.ActiveSessions() != 0 {
		t.Error("nil collector should return 0")
	}
	if c.TotalBytesIn() != 0 {
		t.Error("nil collector should return 0")
	}
	if c.ErrorCount() != 0 {
		t.Error("nil collector should return 0")
	}
	if c.Uptime() != 0 {
		t.Error("nil collector should report zero uptime")
	}

	snap := c.Snapshot()
	if snap.SessionsActive != 0 {
		t.Error("nil snapshot should be zero")
	}

	j := c.JSON()
	if j == "" {
		t.Error("nil JSON should return valid JSON")
	}
}
