package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"taxrelief/internal/audit"
	"taxrelief/internal/classification"
	"taxrelief/internal/rates"
	"taxrelief/internal/record/service"
	eventstore "taxrelief/internal/record/store/event"
	"taxrelief/internal/record/store/projection"
	"taxrelief/internal/validation"
	id "taxrelief/pkg/domain"
	"taxrelief/pkg/testutil"
)

const companyTaxID = "5881918662"

// localRate keeps conversion deterministic in handler tests.
type localRate struct{}

func (localRate) MidRate(context.Context, string, time.Time) (decimal.Decimal, error) {
	return decimal.RequireFromString("4.25"), nil
}

type HandlerSuite struct {
	suite.Suite
	router chi.Router
	svc    *service.Service
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc, err := service.New(eventstore.NewMemory(), projection.NewMemory(), audit.NopFeed{}, companyTaxID, logger)
	s.Require().NoError(err)
	s.svc = svc

	pipeline, err := validation.Default(validation.NewCurrencyValidator(rates.NewConverter(localRate{})))
	s.Require().NoError(err)
	engine := classification.NewEngine(nil, logger)

	s.router = chi.NewRouter()
	New(svc, pipeline, engine, logger).Register(s.router)
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) createBody() map[string]any {
	return map[string]any{
		"project_id":     id.NewProjectID().String(),
		"invoice_number": "FV/123/01/2025",
		"invoice_date":   "2025-01-15",
		"currency":       "PLN",
		"gross_amount":   "123.00",
		"net_amount":     "100.00",
		"tax_amount":     "23.00",
		"description":    "Laptop do prac badawczych",
		"seller_name":    "Dostawca Sp. z o.o.",
		"seller_tax_id":  "123-456-32-18",
		"buyer_name":     "Nasza Firma SA",
		"buyer_tax_id":   companyTaxID,
	}
}

func (s *HandlerSuite) createRecord() RecordResponse {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/records", s.createBody())
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	return *testutil.UnmarshalResponse[RecordResponse](s.T(), rr)
}

// TestCreate covers POST /records.
func (s *HandlerSuite) TestCreate() {
	s.Run("creates a draft expense record", func() {
		created := s.createRecord()
		s.Equal("draft", created.Status)
		s.Equal("expense", created.Direction)
		s.Equal("1234563218", created.Counterpart.TaxID)
		s.Equal(int64(1), created.Version)
	})

	s.Run("rejects malformed dates", func() {
		body := s.createBody()
		body["invoice_date"] = "15.01.2025"
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/records", body)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})

	s.Run("rejects unknown fields", func() {
		body := s.createBody()
		body["surprise"] = true
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/records", body)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})

	s.Run("rejects a missing project id", func() {
		body := s.createBody()
		body["project_id"] = ""
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/records", body)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})
}

// TestGet covers GET /records/{id}, including as-of reconstruction.
func (s *HandlerSuite) TestGet() {
	created := s.createRecord()

	s.Run("returns the live projection", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/records/"+created.ID)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
		got := testutil.UnmarshalResponse[RecordResponse](s.T(), rr)
		s.Equal(created.ID, got.ID)
	})

	s.Run("unknown id is 404", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/records/"+id.NewRecordID().String())
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("malformed id is 400", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/records/not-a-uuid")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})

	s.Run("as_of before creation is 404", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet,
			"/records/"+created.ID+"?as_of=2020-01-01T00:00:00Z")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
	})

	s.Run("malformed as_of is 400", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/records/"+created.ID+"?as_of=yesterday")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})
}

// TestValidateAndClassify covers the two engine endpoints.
func (s *HandlerSuite) TestValidateAndClassify() {
	created := s.createRecord()

	s.Run("validate appends and returns the result", func() {
		req := testutil.NewRequest(s.T(), http.MethodPost, "/records/"+created.ID+"/validate")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)

		resp := testutil.UnmarshalResponse[ValidationResponse](s.T(), rr)
		s.Require().NotNil(resp.Result)
		s.True(resp.Result.Valid)
		s.NotZero(resp.Score.Total)
	})

	s.Run("classify assigns the rule category", func() {
		req := testutil.NewRequest(s.T(), http.MethodPost, "/records/"+created.ID+"/classify")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)

		resp := testutil.UnmarshalResponse[ClassifyResponse](s.T(), rr)
		s.True(resp.Classified)
		s.Equal("equipment", resp.Category)
		s.Equal("rule", resp.Source)
	})

	s.Run("history shows every append", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/records/"+created.ID+"/history")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)

		type eventHead struct {
			Sequence int64  `json:"sequence"`
			Kind     string `json:"kind"`
		}
		events := testutil.UnmarshalResponse[[]eventHead](s.T(), rr)
		s.Require().Len(*events, 3)
		s.Equal("created", (*events)[0].Kind)
		s.Equal("validated", (*events)[1].Kind)
		s.Equal("classified", (*events)[2].Kind)
	})
}

// TestStatusAndJustify covers the lifecycle endpoints.
func (s *HandlerSuite) TestStatusAndJustify() {
	created := s.createRecord()

	validate := testutil.NewRequest(s.T(), http.MethodPost, "/records/"+created.ID+"/validate")
	testutil.AssertStatusOK(s.T(), testutil.DoRequest(s.router, validate))
	classify := testutil.NewRequest(s.T(), http.MethodPost, "/records/"+created.ID+"/classify")
	testutil.AssertStatusOK(s.T(), testutil.DoRequest(s.router, classify))

	s.Run("justification attaches text", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost,
			"/records/"+created.ID+"/justification", JustifyRequest{Text: "Prace B+R nad prototypem"})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
		got := testutil.UnmarshalResponse[RecordResponse](s.T(), rr)
		s.Require().NotNil(got.Justification)
	})

	s.Run("ordered transition succeeds", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost,
			"/records/"+created.ID+"/status", StatusRequest{Status: "classified"})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
		got := testutil.UnmarshalResponse[RecordResponse](s.T(), rr)
		s.Equal("classified", got.Status)
	})

	s.Run("stage skipping is 409", func() {
		other := s.createRecord()
		req := testutil.NewJSONRequest(s.T(), http.MethodPost,
			"/records/"+other.ID+"/status", StatusRequest{Status: "approved"})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "invariant_violation")
	})

	s.Run("unknown status is 400", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost,
			"/records/"+created.ID+"/status", StatusRequest{Status: "archived"})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})
}

// TestBatchEndpoints covers the two sweep endpoints.
func (s *HandlerSuite) TestBatchEndpoints() {
	s.createRecord()
	s.createRecord()

	s.Run("validate-batch reports per-record outcomes", func() {
		req := testutil.NewRequest(s.T(), http.MethodPost, "/records/validate-batch")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)

		result := testutil.UnmarshalResponse[validation.BatchResult](s.T(), rr)
		s.Len(result.Details, 2)
		s.Zero(result.Failed)
	})

	s.Run("classify-batch sweeps unclassified records", func() {
		req := testutil.NewRequest(s.T(), http.MethodPost, "/records/classify-batch")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)

		result := testutil.UnmarshalResponse[service.ClassifyBatchResult](s.T(), rr)
		s.Equal(2, result.Succeeded)
	})
}
