package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stayhub/partneredge/internal/config"
	gatedomain "github.com/stayhub/partneredge/internal/gate/domain"
	orderdomain "github.com/stayhub/partneredge/internal/order/domain"
	partnerdomain "github.com/stayhub/partneredge/internal/partner/domain"
	pricingdomain "github.com/stayhub/partneredge/internal/pricing/domain"
	ruledomain "github.com/stayhub/partneredge/internal/rule/domain"
	settlementdomain "github.com/stayhub/partneredge/internal/settlement/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRuleService struct {
	resolveErr error
}

func (f *fakeRuleService) Create(ctx context.Context, req ruledomain.CreateRequest) (*ruledomain.MarkupRule, error) {
	_ = ctx
	_ = req
	return &ruledomain.MarkupRule{}, nil
}

func (f *fakeRuleService) SetStatus(ctx context.Context, id string, status ruledomain.RuleStatus) (*ruledomain.MarkupRule, error) {
	_ = ctx
	_ = id
	_ = status
	return &ruledomain.MarkupRule{}, nil
}

func (f *fakeRuleService) List(ctx context.Context, owner ruledomain.RuleOwner, partnerID snowflake.ID) ([]ruledomain.MarkupRule, error) {
	_ = ctx
	_ = owner
	_ = partnerID
	return nil, nil
}

func (f *fakeRuleService) Resolve(ctx context.Context, pctx ruledomain.PricingContext, owner ruledomain.RuleOwner) (*ruledomain.MarkupRule, error) {
	_ = ctx
	_ = pctx
	_ = owner
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	return &ruledomain.MarkupRule{}, nil
}

type fakePricingService struct {
	err error
}

func (f *fakePricingService) ComputeWaterfall(ctx context.Context, pctx ruledomain.PricingContext, supplierCost decimal.Decimal) (*pricingdomain.Waterfall, error) {
	_ = ctx
	_ = pctx
	_ = supplierCost
	if f.err != nil {
		return nil, f.err
	}
	return &pricingdomain.Waterfall{}, nil
}

type fakeOrderService struct {
	getErr error
}

func (f *fakeOrderService) Create(ctx context.Context, req orderdomain.CreateRequest) (*orderdomain.Order, error) {
	_ = ctx
	_ = req
	return &orderdomain.Order{}, nil
}

func (f *fakeOrderService) Get(ctx context.Context, id string) (*orderdomain.Order, error) {
	_ = ctx
	_ = id
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &orderdomain.Order{}, nil
}

type fakePartnerService struct{}

func (f *fakePartnerService) Create(ctx context.Context, name string) (*partnerdomain.Partner, error) {
	_ = ctx
	_ = name
	return &partnerdomain.Partner{}, nil
}

func (f *fakePartnerService) Get(ctx context.Context, id string) (*partnerdomain.Partner, error) {
	_ = ctx
	_ = id
	return &partnerdomain.Partner{}, nil
}

func (f *fakePartnerService) SetStatus(ctx context.Context, id string, status partnerdomain.AccountStatus) (*partnerdomain.Partner, error) {
	_ = ctx
	_ = id
	_ = status
	return &partnerdomain.Partner{}, nil
}

type fakeGateService struct {
	err error
}

func (f *fakeGateService) ApplyGateEvent(ctx context.Context, orderID string, gate orderdomain.Gate, value bool) (*orderdomain.Order, error) {
	_ = ctx
	_ = orderID
	_ = gate
	_ = value
	if f.err != nil {
		return nil, f.err
	}
	return &orderdomain.Order{}, nil
}

func (f *fakeGateService) Evaluate(ctx context.Context, orderID string) (*orderdomain.Order, error) {
	_ = ctx
	_ = orderID
	return &orderdomain.Order{}, nil
}

type fakeSettlementService struct {
	createErr  error
	approveErr error
	creditErr  error
}

func (f *fakeSettlementService) CreateBatch(ctx context.Context, partnerID string) (*settlementdomain.SettlementBatch, error) {
	_ = ctx
	_ = partnerID
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &settlementdomain.SettlementBatch{}, nil
}

func (f *fakeSettlementService) ApproveBatch(ctx context.Context, batchID string) (*settlementdomain.SettlementBatch, error) {
	_ = ctx
	_ = batchID
	if f.approveErr != nil {
		return nil, f.approveErr
	}
	return &settlementdomain.SettlementBatch{}, nil
}

func (f *fakeSettlementService) CreditBatch(ctx context.Context, batchID string) (*settlementdomain.SettlementBatch, error) {
	_ = ctx
	_ = batchID
	if f.creditErr != nil {
		return nil, f.creditErr
	}
	return &settlementdomain.SettlementBatch{}, nil
}

type testServices struct {
	rule       *fakeRuleService
	pricing    *fakePricingService
	order      *fakeOrderService
	partner    *fakePartnerService
	gate       *fakeGateService
	settlement *fakeSettlementService
}

func newTestServer(t *testing.T) (*Server, *testServices) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svcs := &testServices{
		rule:       &fakeRuleService{},
		pricing:    &fakePricingService{},
		order:      &fakeOrderService{},
		partner:    &fakePartnerService{},
		gate:       &fakeGateService{},
		settlement: &fakeSettlementService{},
	}

	cfg := config.Config{Environment: "test", HTTPAddr: ":0"}
	s := NewServer(ServerParams{
		Gin:           NewEngine(cfg),
		Cfg:           cfg,
		Log:           zap.NewNop(),
		GenID:         node,
		RuleSvc:       svcs.rule,
		PricingSvc:    svcs.pricing,
		OrderSvc:      svcs.order,
		PartnerSvc:    svcs.partner,
		GateSvc:       svcs.gate,
		SettlementSvc: svcs.settlement,
	})
	s.RegisterAPIRoutes()
	return s, svcs
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateRule_MalformedBody(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/rules", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation_error")
}

func TestErrorMapping(t *testing.T) {
	s, svcs := newTestServer(t)

	tests := []struct {
		name     string
		setup    func()
		method   string
		path     string
		body     string
		expected int
	}{
		{
			name:     "invalid rate is a validation error",
			setup:    func() { svcs.pricing.err = ruledomain.ErrInvalidRate },
			method:   http.MethodPost,
			path:     "/api/pricing/resolve",
			body:     `{"partner_id":"1","supplier_cost":"100"}`,
			expected: http.StatusBadRequest,
		},
		{
			name:     "no applicable rule is unprocessable",
			setup:    func() { svcs.pricing.err = ruledomain.ErrNoApplicableRule },
			method:   http.MethodPost,
			path:     "/api/pricing/resolve",
			body:     `{"partner_id":"1","supplier_cost":"100"}`,
			expected: http.StatusUnprocessableEntity,
		},
		{
			name:     "missing order is not found",
			setup:    func() { svcs.order.getErr = orderdomain.ErrNotFound },
			method:   http.MethodGet,
			path:     "/api/orders/42",
			body:     "",
			expected: http.StatusNotFound,
		},
		{
			name:     "batch in progress is a conflict",
			setup:    func() { svcs.settlement.createErr = settlementdomain.ErrBatchInProgress },
			method:   http.MethodPost,
			path:     "/api/partners/42/settlement-batches",
			body:     "",
			expected: http.StatusConflict,
		},
		{
			name:     "nothing to settle is a conflict",
			setup:    func() { svcs.settlement.createErr = settlementdomain.ErrNothingToSettle },
			method:   http.MethodPost,
			path:     "/api/partners/42/settlement-batches",
			body:     "",
			expected: http.StatusConflict,
		},
		{
			name:     "invalid transition is a conflict",
			setup:    func() { svcs.settlement.approveErr = settlementdomain.ErrInvalidTransition },
			method:   http.MethodPost,
			path:     "/api/settlement-batches/42/approve",
			body:     "",
			expected: http.StatusConflict,
		},
		{
			name:     "non-resettable gate is a conflict",
			setup:    func() { svcs.gate.err = gatedomain.ErrGateNotResettable },
			method:   http.MethodPost,
			path:     "/api/orders/42/gate-events",
			body:     `{"gate":"serviceCompleted","value":false}`,
			expected: http.StatusConflict,
		},
		{
			name:     "unknown gate is a validation error",
			setup:    func() { svcs.gate.err = gatedomain.ErrUnknownGate },
			method:   http.MethodPost,
			path:     "/api/orders/42/gate-events",
			body:     `{"gate":"paperworkFiled","value":true}`,
			expected: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			rec := doRequest(s, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.expected, rec.Code)
		})
	}
}

func TestApplyGateEvent_RequiresValue(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/orders/42/gate-events", `{"gate":"noDispute"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
