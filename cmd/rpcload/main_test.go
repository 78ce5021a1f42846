package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRootCmdRunsLoadtest(t *testing.T) {
	var hits atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{}}`))
	}))
	defer srv.Close()

	var out bytes.Buffer

	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{srv.URL, "-c", "8", "-t", "3", "-a", "token"})

	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}

	if hits.Load() != 8 {
		t.Fatalf("expected 8 requests, got %d", hits.Load())
	}

	s := out.String()
	for _, want := range []string{"Progress: 100.0%", "Number of calls: 8", "Total errors: 0", "Total timeouts: 0"} {
		if !strings.Contains(s, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, s)
		}
	}
}

func TestRootCmdUnauthorizedStillReports(t *testing.T) {
	var hits atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	var out bytes.Buffer

	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{srv.URL, "-c", "50", "-t", "1", "-a", "expired"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("an unauthorized run must still exit cleanly, got %v", err)
	}

	if hits.Load() != 1 {
		t.Fatalf("expected the run to halt after the first 401, got %d requests", hits.Load())
	}

	if !strings.Contains(out.String(), "Total errors: 1") {
		t.Fatalf("expected one error in report, got:\n%s", out.String())
	}
}

func TestRootCmdRejectsInvalidInput(t *testing.T) {
	cases := [][]string{
		{"http://localhost:1", "-c", "0", "-a", "x"},
		{"http://localhost:1", "-t", "0", "-a", "x"},
		{"http://localhost:1"},
		{"-a", "x"},
	}

	for _, args := range cases {
		cmd := newRootCmd()
		cmd.SetOut(io.Discard)
		cmd.SetErr(io.Discard)
		cmd.SetArgs(args)

		if err := cmd.Execute(); err == nil {
			t.Errorf("%v: expected an error", args)
		}
	}
}

func TestMetricsRouter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "rpcload_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	srv := httptest.NewServer(newMetricsRouter(reg))
	defer srv.Close()

	res, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()

	if !strings.Contains(string(body), "rpcload_test_total 1") {
		t.Fatalf("expected counter in metrics output, got:\n%s", body)
	}

	res, err = http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected healthz 200, got %d", res.StatusCode)
	}
}
