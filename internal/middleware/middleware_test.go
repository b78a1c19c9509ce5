package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/warduel/internal/testutil"
)

type MiddlewareSuite struct {
	suite.Suite
	logs   *testutil.LogBuffer
	logger *slog.Logger
}

func TestMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(MiddlewareSuite))
}

func (s *MiddlewareSuite) SetupTest() {
	s.logger, s.logs = testutil.BufferLogger()
}

func (s *MiddlewareSuite) serve(h http.Handler) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	return rr
}

func (s *MiddlewareSuite) TestRecoveryUsesPanicHandler() {
	var got any
	h := Recovery(s.logger, func(w http.ResponseWriter, _ *http.Request, recovered any) {
		got = recovered
		w.WriteHeader(http.StatusTeapot)
	})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := s.serve(h)
	s.Equal(http.StatusTeapot, rr.Code)
	s.Equal("boom", got)
	s.Contains(s.logs.String(), "panic recovered")
}

func (s *MiddlewareSuite) TestRecoveryReraisesAbort() {
	h := Recovery(s.logger, func(http.ResponseWriter, *http.Request, any) {
		s.Fail("abort must not reach the panic handler")
	})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	s.PanicsWithValue(http.ErrAbortHandler, func() { s.serve(h) })
}

func (s *MiddlewareSuite) TestLoggingLevels() {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "level=INFO"},
		{http.StatusBadRequest, "level=WARN"},
		{http.StatusInternalServerError, "level=ERROR"},
	}

	for _, tt := range tests {
		s.Run(http.StatusText(tt.status), func() {
			s.logs.Reset()
			h := Logging(s.logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("body"))
			}))

			rr := s.serve(h)
			s.Equal(tt.status, rr.Code)
			s.Contains(s.logs.String(), tt.level)
			s.Contains(s.logs.String(), "size=4")
			s.Contains(s.logs.String(), "path=/api/v1/stats")
		})
	}
}

func (s *MiddlewareSuite) TestHijackRequiresSupport() {
	rw := &ResponseWriter{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}

	_, _, err := rw.Hijack()
	s.Error(err)
	s.Equal(http.StatusOK, rw.Status())
}
