package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type NBPClientSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *NBPClientSuite) SetupTest() {
	s.ctx = context.Background()
}

func TestNBPClientSuite(t *testing.T) {
	suite.Run(t, new(NBPClientSuite))
}

func (s *NBPClientSuite) client(handler http.HandlerFunc) (*NBPClient, *httptest.Server) {
	srv := httptest.NewServer(handler)
	s.T().Cleanup(srv.Close)
	return NewNBPClient(time.Second, WithBaseURL(srv.URL)), srv
}

// TestMidRate verifies request shape and response decoding.
func (s *NBPClientSuite) TestMidRate() {
	s.Run("decodes the published mid rate", func() {
		c, _ := s.client(func(w http.ResponseWriter, r *http.Request) {
			s.Equal("/api/exchangerates/rates/a/EUR/2025-01-15/", r.URL.Path)
			s.Equal("json", r.URL.Query().Get("format"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"table":"A","currency":"euro","code":"EUR","rates":[{"no":"010/A/NBP/2025","effectiveDate":"2025-01-15","mid":4.2512}]}`))
		})

		mid, err := c.MidRate(s.ctx, "EUR", day(2025, 1, 15))
		s.Require().NoError(err)
		s.True(decimal.RequireFromString("4.2512").Equal(mid), "got %s", mid)
	})

	s.Run("404 means no quote for the date", func() {
		c, _ := s.client(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "404 NotFound", http.StatusNotFound)
		})

		_, err := c.MidRate(s.ctx, "EUR", day(2025, 1, 11))
		s.Require().ErrorIs(err, ErrNoRate)
	})

	s.Run("empty rate list means no quote", func() {
		c, _ := s.client(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"rates":[]}`))
		})

		_, err := c.MidRate(s.ctx, "EUR", day(2025, 1, 11))
		s.Require().ErrorIs(err, ErrNoRate)
	})

	s.Run("server errors are not calendar misses", func() {
		c, _ := s.client(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		})

		_, err := c.MidRate(s.ctx, "EUR", day(2025, 1, 15))
		s.Require().Error(err)
		s.NotErrorIs(err, ErrNoRate)
	})

	s.Run("context cancellation aborts the request", func() {
		c, _ := s.client(func(w http.ResponseWriter, _ *http.Request) {
			time.Sleep(50 * time.Millisecond)
			_, _ = w.Write([]byte(`{"rates":[{"mid":4.25}]}`))
		})

		ctx, cancel := context.WithCancel(s.ctx)
		cancel()
		_, err := c.MidRate(ctx, "EUR", day(2025, 1, 15))
		s.Require().Error(err)
	})
}
