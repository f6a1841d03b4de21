package service

import (
	"context"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	ruledomain "github.com/stayhub/partneredge/internal/rule/domain"
	"github.com/stayhub/partneredge/internal/rule/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (ruledomain.Service, *snowflake.Node) {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&ruledomain.MarkupRule{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
	return svc, node
}

func rate(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCreate_Validation(t *testing.T) {
	svc, node := newTestService(t)
	ctx := context.Background()
	partnerID := node.Generate()

	tests := []struct {
		name        string
		req         ruledomain.CreateRequest
		expectedErr error
	}{
		{
			name: "rate above 100",
			req: ruledomain.CreateRequest{
				Owner: ruledomain.OwnerPlatform,
				Scope: ruledomain.ScopeGlobal,
				Rate:  rate("100.01"),
			},
			expectedErr: ruledomain.ErrInvalidRate,
		},
		{
			name: "negative rate",
			req: ruledomain.CreateRequest{
				Owner: ruledomain.OwnerPlatform,
				Scope: ruledomain.ScopeGlobal,
				Rate:  rate("-1"),
			},
			expectedErr: ruledomain.ErrInvalidRate,
		},
		{
			name: "scoped rule without target",
			req: ruledomain.CreateRequest{
				Owner: ruledomain.OwnerPlatform,
				Scope: ruledomain.ScopeCity,
				Rate:  rate("10"),
			},
			expectedErr: ruledomain.ErrMissingTarget,
		},
		{
			name: "unknown scope",
			req: ruledomain.CreateRequest{
				Owner: ruledomain.OwnerPlatform,
				Scope: ruledomain.RuleScope("COUNTRY"),
				Rate:  rate("10"),
			},
			expectedErr: ruledomain.ErrInvalidScope,
		},
		{
			name: "unknown owner",
			req: ruledomain.CreateRequest{
				Owner: ruledomain.RuleOwner("SUPPLIER"),
				Scope: ruledomain.ScopeGlobal,
				Rate:  rate("10"),
			},
			expectedErr: ruledomain.ErrInvalidOwner,
		},
		{
			name: "partner owner without partner id",
			req: ruledomain.CreateRequest{
				Owner: ruledomain.OwnerPartner,
				Scope: ruledomain.ScopeGlobal,
				Rate:  rate("10"),
			},
			expectedErr: ruledomain.ErrInvalidPartner,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.req)
			assert.ErrorIs(t, err, tt.expectedErr)
		})
	}

	// Boundary rates are accepted.
	_, err := svc.Create(ctx, ruledomain.CreateRequest{
		Owner:     ruledomain.OwnerPartner,
		PartnerID: partnerID.String(),
		Scope:     ruledomain.ScopeGlobal,
		Rate:      rate("0"),
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, ruledomain.CreateRequest{
		Owner:     ruledomain.OwnerPartner,
		PartnerID: partnerID.String(),
		Scope:     ruledomain.ScopeBrand,
		Target:    "Hilton",
		Rate:      rate("100"),
	})
	require.NoError(t, err)
}

func TestCreate_DuplicateGlobal(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, ruledomain.CreateRequest{
		Owner: ruledomain.OwnerPlatform,
		Scope: ruledomain.ScopeGlobal,
		Rate:  rate("10"),
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, ruledomain.CreateRequest{
		Owner: ruledomain.OwnerPlatform,
		Scope: ruledomain.ScopeGlobal,
		Rate:  rate("12"),
	})
	assert.ErrorIs(t, err, ruledomain.ErrDuplicateGlobalRule)

	// Deactivating the active global frees the slot.
	_, err = svc.SetStatus(ctx, first.ID.String(), ruledomain.RuleStatusInactive)
	require.NoError(t, err)

	second, err := svc.Create(ctx, ruledomain.CreateRequest{
		Owner: ruledomain.OwnerPlatform,
		Scope: ruledomain.ScopeGlobal,
		Rate:  rate("12"),
	})
	require.NoError(t, err)

	// Reactivating the old global would leave two active globals.
	_, err = svc.SetStatus(ctx, first.ID.String(), ruledomain.RuleStatusActive)
	assert.ErrorIs(t, err, ruledomain.ErrDuplicateGlobalRule)

	_, err = svc.SetStatus(ctx, second.ID.String(), ruledomain.RuleStatusInactive)
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, first.ID.String(), ruledomain.RuleStatusActive)
	require.NoError(t, err)
}

func TestResolve_SpecificityWins(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, ruledomain.CreateRequest{
		Owner: ruledomain.OwnerPlatform,
		Scope: ruledomain.ScopeGlobal,
		Rate:  rate("5"),
	})
	require.NoError(t, err)

	brandRule, err := svc.Create(ctx, ruledomain.CreateRequest{
		Owner:    ruledomain.OwnerPlatform,
		Scope:    ruledomain.ScopeBrand,
		Target:   "Hilton",
		Rate:     rate("8"),
		Priority: 1,
	})
	require.NoError(t, err)

	supplierRule, err := svc.Create(ctx, ruledomain.CreateRequest{
		Owner:    ruledomain.OwnerPlatform,
		Scope:    ruledomain.ScopeSupplier,
		Target:   "sup-1",
		Rate:     rate("12"),
		Priority: 500,
	})
	require.NoError(t, err)

	pctx := ruledomain.PricingContext{
		Brand:      "Hilton",
		City:       "Tokyo",
		SupplierID: "sup-1",
	}

	// Supplier scope beats brand even with a worse priority.
	selected, err := svc.Resolve(ctx, pctx, ruledomain.OwnerPlatform)
	require.NoError(t, err)
	assert.Equal(t, supplierRule.ID, selected.ID)

	// Without the supplier match, the brand rule wins over global.
	pctx.SupplierID = "sup-other"
	selected, err = svc.Resolve(ctx, pctx, ruledomain.OwnerPlatform)
	require.NoError(t, err)
	assert.Equal(t, brandRule.ID, selected.ID)
}

func TestResolve_PriorityBreaksTies(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, ruledomain.CreateRequest{
		Owner:    ruledomain.OwnerPlatform,
		Scope:    ruledomain.ScopeCity,
		Target:   "Tokyo",
		Rate:     rate("9"),
		Priority: 20,
	})
	require.NoError(t, err)

	preferred, err := svc.Create(ctx, ruledomain.CreateRequest{
		Owner:    ruledomain.OwnerPlatform,
		Scope:    ruledomain.ScopeCity,
		Target:   "Tokyo",
		Rate:     rate("7"),
		Priority: 10,
	})
	require.NoError(t, err)

	selected, err := svc.Resolve(ctx, ruledomain.PricingContext{City: "Tokyo"}, ruledomain.OwnerPlatform)
	require.NoError(t, err)
	assert.Equal(t, preferred.ID, selected.ID)
}

func TestResolve_InactiveRulesIgnored(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	global, err := svc.Create(ctx, ruledomain.CreateRequest{
		Owner: ruledomain.OwnerPlatform,
		Scope: ruledomain.ScopeGlobal,
		Rate:  rate("5"),
	})
	require.NoError(t, err)

	cityRule, err := svc.Create(ctx, ruledomain.CreateRequest{
		Owner:  ruledomain.OwnerPlatform,
		Scope:  ruledomain.ScopeCity,
		Target: "Tokyo",
		Rate:   rate("9"),
	})
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, cityRule.ID.String(), ruledomain.RuleStatusInactive)
	require.NoError(t, err)

	selected, err := svc.Resolve(ctx, ruledomain.PricingContext{City: "Tokyo"}, ruledomain.OwnerPlatform)
	require.NoError(t, err)
	assert.Equal(t, global.ID, selected.ID)
}

func TestResolve_NoApplicableRule(t *testing.T) {
	svc, node := newTestService(t)
	ctx := context.Background()
	partnerID := node.Generate()

	// Scoped rule exists but nothing matches and there is no global fallback.
	_, err := svc.Create(ctx, ruledomain.CreateRequest{
		Owner:     ruledomain.OwnerPartner,
		PartnerID: partnerID.String(),
		Scope:     ruledomain.ScopeBrand,
		Target:    "Hilton",
		Rate:      rate("10"),
	})
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, ruledomain.PricingContext{
		Brand:     "Marriott",
		PartnerID: partnerID,
	}, ruledomain.OwnerPartner)
	assert.ErrorIs(t, err, ruledomain.ErrNoApplicableRule)
}

func TestResolve_PartnerNamespaceIsolated(t *testing.T) {
	svc, node := newTestService(t)
	ctx := context.Background()
	partnerA := node.Generate()
	partnerB := node.Generate()

	ruleA, err := svc.Create(ctx, ruledomain.CreateRequest{
		Owner:     ruledomain.OwnerPartner,
		PartnerID: partnerA.String(),
		Scope:     ruledomain.ScopeGlobal,
		Rate:      rate("10"),
	})
	require.NoError(t, err)

	selected, err := svc.Resolve(ctx, ruledomain.PricingContext{PartnerID: partnerA}, ruledomain.OwnerPartner)
	require.NoError(t, err)
	assert.Equal(t, ruleA.ID, selected.ID)

	_, err = svc.Resolve(ctx, ruledomain.PricingContext{PartnerID: partnerB}, ruledomain.OwnerPartner)
	assert.ErrorIs(t, err, ruledomain.ErrNoApplicableRule)
}

func TestSetStatus_NotFound(t *testing.T) {
	svc, node := newTestService(t)

	_, err := svc.SetStatus(context.Background(), node.Generate().String(), ruledomain.RuleStatusInactive)
	assert.ErrorIs(t, err, ruledomain.ErrNotFound)

	_, err = svc.SetStatus(context.Background(), "not-a-number", ruledomain.RuleStatusInactive)
	assert.ErrorIs(t, err, ruledomain.ErrInvalidID)
}
