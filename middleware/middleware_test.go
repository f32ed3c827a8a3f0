// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/dikshapatel15/Decentralized-Voting-System/auth"
	"github.com/dikshapatel15/Decentralized-Voting-System/election"
	"github.com/dikshapatel15/Decentralized-Voting-System/metrics"
	"github.com/dikshapatel15/Decentralized-Voting-System/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWithLogging_PreservesResponse(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
		body       string
	}{
		{"OK", http.StatusOK, "ok"},
		{"Created", http.StatusCreated, `{"candidate_id":1}`},
		{"Conflict", http.StatusConflict, `{"error":"Conflict"}`},
		{"InternalError", http.StatusInternalServerError, "error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var logs bytes.Buffer
			handler := WithLogging(slog.New(slog.NewJSONHandler(&logs, nil)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
				w.Write([]byte(tc.body))
			}))

			req := httptest.NewRequest("POST", "/election/votes", nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}
			if w.Body.String() != tc.body {
				t.Errorf("Expected body '%s', got '%s'", tc.body, w.Body.String())
			}

			var entry map[string]any
			if err := json.Unmarshal(logs.Bytes(), &entry); err != nil {
				t.Fatalf("Failed to decode log entry: %v", err)
			}
			if entry["msg"] != "request completed" {
				t.Errorf("Expected 'request completed' log, got %v", entry["msg"])
			}
			if entry["status"] != float64(tc.statusCode) {
				t.Errorf("Expected logged status %d, got %v", tc.statusCode, entry["status"])
			}
		})
	}
}

func TestJSONResponse(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
		data       any
		expected   string
	}{
		{
			name:       "simple struct",
			statusCode: http.StatusOK,
			data:       map[string]string{"message": "hello"},
			expected:   `{"message":"hello"}`,
		},
		{
			name:       "created response",
			statusCode: http.StatusCreated,
			data:       models.AddCandidateResponse{CandidateID: 2},
			expected:   `{"candidate_id":2}`,
		},
		{
			name:       "phase as text",
			statusCode: http.StatusOK,
			data:       models.StatusResponse{Name: "Board", Administrator: "0xadmin", Phase: election.PhaseOpen, CandidateCount: 2, TotalVotes: 3},
			expected:   `{"name":"Board","administrator":"0xadmin","phase":"open","candidate_count":2,"total_votes":3}`,
		},
		{
			name:       "error response",
			statusCode: http.StatusConflict,
			data:       models.ErrorResponse{Error: "Conflict", Code: "already_voted", Message: "p1"},
			expected:   `{"error":"Conflict","code":"already_voted","message":"p1"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			JSONResponse(w, tc.statusCode, tc.data)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
			}

			// Encode appends a newline
			body := strings.TrimSpace(w.Body.String())
			if body != tc.expected {
				t.Errorf("Expected body '%s', got '%s'", tc.expected, body)
			}
		})
	}
}

func TestErrorResponse(t *testing.T) {
	testCases := []struct {
		name          string
		statusCode    int
		code          string
		message       string
		expectedError string
	}{
		{"bad request", http.StatusBadRequest, "invalid_argument", "candidate name is required", "Bad Request"},
		{"forbidden", http.StatusForbidden, "unauthorized", "restricted to the administrator", "Forbidden"},
		{"not found", http.StatusNotFound, "candidate_not_found", "7", "Not Found"},
		{"conflict", http.StatusConflict, "invalid_phase", "election is closed", "Conflict"},
		{"internal error", http.StatusInternalServerError, "internal", "database error", "Internal Server Error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			ErrorResponse(w, tc.statusCode, tc.code, tc.message)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}

			var resp models.ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			if resp.Error != tc.expectedError {
				t.Errorf("Expected error '%s', got '%s'", tc.expectedError, resp.Error)
			}
			if resp.Code != tc.code {
				t.Errorf("Expected code '%s', got '%s'", tc.code, resp.Code)
			}
			if resp.Message != tc.message {
				t.Errorf("Expected message '%s', got '%s'", tc.message, resp.Message)
			}
		})
	}
}

func TestParseJSONBody(t *testing.T) {
	testCases := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{"valid JSON", `{"name":"Alice"}`, "Alice", false},
		{"invalid JSON", `{invalid json}`, "", true},
		{"empty body", ``, "", true},
		{"unknown field", `{"name":"Alice","votes":100}`, "", true},
		{"trailing data", `{"name":"Alice"}{"name":"Bob"}`, "", true},
		{"too large", `{"name":"` + strings.Repeat("a", MaxBodyBytes) + `"}`, "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", strings.NewReader(tc.body))
			w := httptest.NewRecorder()

			var parsed models.AddCandidateRequest
			err := ParseJSONBody(w, req, &parsed)

			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseJSONBody() error = %v, wantErr %v", err, tc.wantErr)
			}
			if parsed.Name != tc.want && !tc.wantErr {
				t.Errorf("Expected name '%s', got '%s'", tc.want, parsed.Name)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("handled"))
	})
	corsHandler := CORS(nextHandler)

	t.Run("preflight OPTIONS request", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/election/votes", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()

		corsHandler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
		if w.Body.String() != "" {
			t.Errorf("Expected empty body for preflight, got '%s'", w.Body.String())
		}
		if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
			t.Error("Expected Access-Control-Allow-Origin to match request origin")
		}
		if !strings.Contains(w.Header().Get("Access-Control-Allow-Headers"), "Authorization") {
			t.Error("Expected Authorization in allowed headers")
		}
	})

	t.Run("regular request without origin", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/election", nil)
		w := httptest.NewRecorder()

		corsHandler.ServeHTTP(w, req)

		if w.Body.String() != "handled" {
			t.Error("Expected next handler to be called")
		}
		if w.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Error("Expected Access-Control-Allow-Origin to default to '*'")
		}
	})
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

		if len(seen) != 36 {
			t.Errorf("Expected a uuid request ID, got '%s'", seen)
		}
		if w.Header().Get(RequestIDHeader) != seen {
			t.Errorf("Expected response header to echo '%s', got '%s'", seen, w.Header().Get(RequestIDHeader))
		}
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(RequestIDHeader, "trace-123")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if seen != "trace-123" {
			t.Errorf("Expected incoming request ID, got '%s'", seen)
		}
	})

	t.Run("oversized replaced", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("x", 500))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if len(seen) != 36 {
			t.Errorf("Expected a fresh uuid, got %d chars", len(seen))
		}
	})
}

func TestRecovery(t *testing.T) {
	handler := Recovery(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
	var resp models.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	if resp.Code != "internal" {
		t.Errorf("Expected code 'internal', got '%s'", resp.Code)
	}
}

type fakeVerifier map[string]election.Principal

func (f fakeVerifier) Verify(token string) (election.Principal, error) {
	if token == "expired" {
		return "", auth.ErrTokenExpired
	}
	p, ok := f[token]
	if !ok {
		return "", errors.New("unknown token")
	}
	return p, nil
}

func TestRequireCaller(t *testing.T) {
	handler := RequireCaller(fakeVerifier{"good": "p1"}, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := CallerFrom(r.Context())
		if !ok {
			t.Error("Expected caller in context")
		}
		w.Write([]byte(caller))
	}))

	testCases := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid token", "Bearer good", http.StatusOK, "p1"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic good", http.StatusUnauthorized, ""},
		{"unknown token", "Bearer bad", http.StatusUnauthorized, ""},
		{"expired token", "Bearer expired", http.StatusUnauthorized, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/election/votes", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tc.wantStatus {
				t.Errorf("Expected status %d, got %d", tc.wantStatus, w.Code)
			}
			if tc.wantStatus == http.StatusOK && w.Body.String() != tc.wantBody {
				t.Errorf("Expected body '%s', got '%s'", tc.wantBody, w.Body.String())
			}
			if tc.wantStatus == http.StatusUnauthorized {
				var resp models.ErrorResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("Failed to decode error response: %v", err)
				}
				if resp.Code != "unauthenticated" {
					t.Errorf("Expected code 'unauthenticated', got '%s'", resp.Code)
				}
			}
		})
	}
}

func TestCallerFromEmptyContext(t *testing.T) {
	if _, ok := CallerFrom(httptest.NewRequest("GET", "/", nil).Context()); ok {
		t.Error("Expected no caller in a bare context")
	}
}

func TestLatency(t *testing.T) {
	m := metrics.New()
	r := chi.NewRouter()
	r.Use(Latency(m))
	r.Get("/election/candidates/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, path := range []string{"/election/candidates/1", "/election/candidates/2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))
	}

	got := testutil.CollectAndCount(m.RequestDuration, "ballot_http_request_duration_seconds")
	if got != 1 {
		t.Errorf("Expected one series for the route pattern, got %d", got)
	}
}

func TestGetClientIP(t *testing.T) {
	testCases := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expectedIP string
	}{
		{"X-Forwarded-For chain", map[string]string{"X-Forwarded-For": "203.0.113.195, 70.41.3.18"}, "127.0.0.1:12345", "203.0.113.195"},
		{"X-Real-IP", map[string]string{"X-Real-IP": "203.0.113.50"}, "10.0.0.1:12345", "203.0.113.50"},
		{"X-Forwarded-For wins over X-Real-IP", map[string]string{"X-Forwarded-For": "192.168.1.100", "X-Real-IP": "203.0.113.50"}, "10.0.0.1:12345", "192.168.1.100"},
		{"RemoteAddr with port", nil, "192.168.1.50:54321", "192.168.1.50"},
		{"RemoteAddr without port", nil, "192.168.1.50", "192.168.1.50"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remoteAddr
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}

			if ip := GetClientIP(req); ip != tc.expectedIP {
				t.Errorf("Expected IP '%s', got '%s'", tc.expectedIP, ip)
			}
		})
	}
}
