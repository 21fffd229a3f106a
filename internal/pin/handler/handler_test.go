package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"pinpool/internal/pin/handler/mocks"
	pinmodels "pinpool/internal/pin/models"
	"pinpool/internal/platform/metrics"
	dErrors "pinpool/pkg/domain-errors"
	httptestutil "pinpool/pkg/testutil"
)

type PINHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	metrics *metrics.Metrics
	router  chi.Router
}

func TestPINHandlerSuite(t *testing.T) {
	suite.Run(t, new(PINHandlerSuite))
}

func (s *PINHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())

	s.router = chi.NewRouter()
	New(s.service, nil, s.metrics, 0).Register(s.router)
}

func allocated(codes ...pinmodels.Code) []*pinmodels.PIN {
	out := make([]*pinmodels.PIN, 0, len(codes))
	for _, c := range codes {
		out = append(out, &pinmodels.PIN{ID: "id-" + string(c), Code: c, State: pinmodels.StateAllocated})
	}
	return out
}

func (s *PINHandlerSuite) TestRequestPINs() {
	s.Run("returns the allocated codes", func() {
		t := s.T()
		s.service.EXPECT().RequestPINs(gomock.Any(), 3).Return(allocated("0135", "7290", "4862"), nil)

		rr := httptestutil.DoRequest(s.router, httptestutil.NewJSONRequest(t, http.MethodPost, "/pins", map[string]int{"quantity": 3}))
		httptestutil.AssertStatus(t, rr, http.StatusOK)
		httptestutil.AssertRequestID(t, rr)

		resp := httptestutil.UnmarshalResponse[pinmodels.GenerateResponse](t, rr)
		s.Equal([]pinmodels.Code{"0135", "7290", "4862"}, resp.PINs)
		s.Equal(3, resp.Count)
	})

	s.Run("omitted quantity defaults to one", func() {
		t := s.T()
		s.service.EXPECT().RequestPINs(gomock.Any(), 1).Return(allocated("3759"), nil)

		rr := httptestutil.DoRequest(s.router, httptestutil.NewJSONRequest(t, http.MethodPost, "/pins", map[string]any{}))
		httptestutil.AssertStatus(t, rr, http.StatusOK)
	})

	s.Run("empty body defaults to one", func() {
		t := s.T()
		s.service.EXPECT().RequestPINs(gomock.Any(), 1).Return(allocated("3759"), nil)

		rr := httptestutil.DoRequest(s.router, httptestutil.NewRequest(t, http.MethodPost, "/pins"))
		httptestutil.AssertStatus(t, rr, http.StatusOK)
	})

	s.Run("malformed body is a bad request", func() {
		t := s.T()
		req := httptestutil.NewJSONRequest(t, http.MethodPost, "/pins", map[string]string{"quantity": "five"})
		rr := httptestutil.DoRequest(s.router, req)
		httptestutil.AssertStatusAndError(t, rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	})

	s.Run("non JSON content type is rejected", func() {
		t := s.T()
		req := httptestutil.NewJSONRequest(t, http.MethodPost, "/pins", map[string]int{"quantity": 1})
		req.Header.Set("Content-Type", "text/plain")
		rr := httptestutil.DoRequest(s.router, req)
		httptestutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	s.Run("invalid quantity maps to 400", func() {
		t := s.T()
		s.service.EXPECT().RequestPINs(gomock.Any(), 0).
			Return(nil, dErrors.New(dErrors.CodeInvalidArgument, "quantity must be at least 1"))

		rr := httptestutil.DoRequest(s.router, httptestutil.NewJSONRequest(t, http.MethodPost, "/pins", map[string]int{"quantity": 0}))
		httptestutil.AssertStatusAndError(t, rr, http.StatusBadRequest, string(dErrors.CodeInvalidArgument))
	})

	s.Run("capacity exceeded maps to 409 with description", func() {
		t := s.T()
		s.service.EXPECT().RequestPINs(gomock.Any(), 9999).
			Return(nil, dErrors.New(dErrors.CodeCapacityExceeded, "requested 9999 codes but only 9571 can ever be served"))

		rr := httptestutil.DoRequest(s.router, httptestutil.NewJSONRequest(t, http.MethodPost, "/pins", map[string]int{"quantity": 9999}))
		httptestutil.AssertStatus(t, rr, http.StatusConflict)
		body := httptestutil.UnmarshalErrorResponse(t, rr)
		s.Equal(string(dErrors.CodeCapacityExceeded), body["error"])
		s.Contains(body["error_description"], "9571")
	})

	s.Run("store failure surfaces the store message as 502", func() {
		t := s.T()
		storeErr := &pinmodels.StoreError{Message: "JWT expired", Code: "PGRST301"}
		s.service.EXPECT().RequestPINs(gomock.Any(), 2).
			Return(nil, dErrors.Wrap(storeErr, dErrors.CodeStore, storeErr.Message))

		rr := httptestutil.DoRequest(s.router, httptestutil.NewJSONRequest(t, http.MethodPost, "/pins", map[string]int{"quantity": 2}))
		httptestutil.AssertStatus(t, rr, http.StatusBadGateway)
		httptestutil.AssertJSONContains(t, rr, "error_description", "JWT expired")
	})

	s.Run("internal errors hide their description", func() {
		t := s.T()
		s.service.EXPECT().RequestPINs(gomock.Any(), 1).Return(nil, errors.New("boom"))

		rr := httptestutil.DoRequest(s.router, httptestutil.NewRequest(t, http.MethodPost, "/pins"))
		httptestutil.AssertStatus(t, rr, http.StatusInternalServerError)
		body := httptestutil.UnmarshalErrorResponse(t, rr)
		s.Equal(string(dErrors.CodeInternal), body["error"])
		s.Empty(body["error_description"])
	})
}

func (s *PINHandlerSuite) TestStats() {
	t := s.T()
	s.service.EXPECT().Stats(gomock.Any()).Return(&pinmodels.PoolStats{
		Total: 10000, Unallocated: 9566, Allocated: 5, NotAllowed: 429, AllowedPool: 9571,
	}, nil)

	rr := httptestutil.DoRequest(s.router, httptestutil.NewRequest(t, http.MethodGet, "/pins/stats"))
	httptestutil.AssertStatus(t, rr, http.StatusOK)
	stats := httptestutil.UnmarshalResponse[pinmodels.PoolStats](t, rr)
	s.Equal(429, stats.NotAllowed)
	s.Equal(9571, stats.AllowedPool)
}

func (s *PINHandlerSuite) TestRollover() {
	s.Run("success is 204", func() {
		t := s.T()
		s.service.EXPECT().Rollover(gomock.Any()).Return(nil)
		rr := httptestutil.DoRequest(s.router, httptestutil.NewRequest(t, http.MethodPost, "/admin/pins/rollover"))
		httptestutil.AssertStatus(t, rr, http.StatusNoContent)
	})

	s.Run("store failure is 502", func() {
		t := s.T()
		s.service.EXPECT().Rollover(gomock.Any()).
			Return(dErrors.Wrap(&pinmodels.StoreError{Message: "timeout"}, dErrors.CodeStore, "timeout"))
		rr := httptestutil.DoRequest(s.router, httptestutil.NewRequest(t, http.MethodPost, "/admin/pins/rollover"))
		httptestutil.AssertStatusAndError(t, rr, http.StatusBadGateway, string(dErrors.CodeStore))
	})
}

func (s *PINHandlerSuite) TestHealth() {
	t := s.T()
	s.service.EXPECT().IsBootstrapped().Return(true)

	req := httptestutil.NewRequest(t, http.MethodGet, "/healthz")
	req.Header.Set("X-Request-ID", "req-123")
	rr := httptestutil.DoRequest(s.router, req)

	httptestutil.AssertStatus(t, rr, http.StatusOK)
	s.Equal("req-123", httptestutil.AssertRequestID(t, rr))
	health := httptestutil.UnmarshalResponse[pinmodels.HealthResponse](t, rr)
	s.Equal("ok", health.Status)
	s.True(health.Bootstrapped)
}

func (s *PINHandlerSuite) TestLatencyRecordedByRoutePattern() {
	t := s.T()
	s.service.EXPECT().IsBootstrapped().Return(false)

	httptestutil.DoRequest(s.router, httptestutil.NewRequest(t, http.MethodGet, "/healthz"))

	n := testutil.ToFloat64(s.metrics.RequestsTotal.WithLabelValues(http.MethodGet, "/healthz", "200"))
	s.Equal(float64(1), n)
}

func (s *PINHandlerSuite) TestPanicIsRecovered() {
	t := s.T()
	s.service.EXPECT().Stats(gomock.Any()).DoAndReturn(func(context.Context) (*pinmodels.PoolStats, error) {
		panic("store exploded")
	})

	rr := httptestutil.DoRequest(s.router, httptestutil.NewRequest(t, http.MethodGet, "/pins/stats"))
	httptestutil.AssertStatusAndError(t, rr, http.StatusInternalServerError, string(dErrors.CodeInternal))
}
