package service

import (
	"testing"
	"time"

	"amora-go/internal/config"
	"amora-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeContentRepo struct {
	questions []model.DiscoveryQuestion
	coupons   map[string]*model.Coupon
	rates     map[string]*model.CreditRate
	blogs     []model.Blog
	contacts  []model.ContactDetail
}

func (f *fakeContentRepo) Questions() ([]model.DiscoveryQuestion, error) {
	return f.questions, nil
}

func (f *fakeContentRepo) FindCouponByCode(code string) (*model.Coupon, error) {
	if c, ok := f.coupons[code]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeContentRepo) FindCreditRate(creditType string) (*model.CreditRate, error) {
	if r, ok := f.rates[creditType]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeContentRepo) CreditRates() ([]model.CreditRate, error) {
	var out []model.CreditRate
	for _, r := range f.rates {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeContentRepo) Blogs(offset, limit int) ([]model.Blog, int64, error) {
	return f.blogs, int64(len(f.blogs)), nil
}

func (f *fakeContentRepo) FindBlogByID(blogID uint) (*model.Blog, error) {
	for i := range f.blogs {
		if f.blogs[i].ID == blogID {
			return &f.blogs[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeContentRepo) CreateBlog(blog *model.Blog) error {
	blog.ID = uint(len(f.blogs) + 1)
	f.blogs = append(f.blogs, *blog)
	return nil
}

func (f *fakeContentRepo) Contacts() ([]model.ContactDetail, error) {
	return f.contacts, nil
}

func newPaymentFixture(usage *model.UserUsage) (*paymentService, *fakeUsageRepo) {
	usageRepo := &fakeUsageRepo{usage: usage}
	contentRepo := &fakeContentRepo{
		coupons: map[string]*model.Coupon{
			"WELCOME20": {Code: "WELCOME20", PercentOff: 20, IsActive: true},
		},
		rates: map[string]*model.CreditRate{
			model.CreditTypeCustom: {CreditType: model.CreditTypeCustom, UnitPrice: 15, MinimumUnits: 10},
			model.CreditTypeVoice:  {CreditType: model.CreditTypeVoice, UnitPrice: 50, MinimumUnits: 5},
		},
	}
	usageService := NewUsageService(usageRepo, config.UsageConfig{})
	svc := NewPaymentService(contentRepo, usageService, config.StripeConfig{SecretKey: "sk_test"}).(*paymentService)
	return svc, usageRepo
}

func TestPriceForCreditsUsesRateTable(t *testing.T) {
	svc, _ := newPaymentFixture(&model.UserUsage{UserID: 7})

	amount, _, err := svc.priceFor(CheckoutRequest{
		Type:       CheckoutTypeCredits,
		Credits:    20,
		CreditType: model.CreditTypeCustom,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(300), amount)
}

func TestPriceForCreditsBelowMinimum(t *testing.T) {
	svc, _ := newPaymentFixture(&model.UserUsage{UserID: 7})

	_, _, err := svc.priceFor(CheckoutRequest{
		Type:       CheckoutTypeCredits,
		Credits:    3,
		CreditType: model.CreditTypeCustom,
	})
	assert.ErrorIs(t, err, ErrBelowMinimumUnits)
}

func TestPriceForUnknownCreditType(t *testing.T) {
	svc, _ := newPaymentFixture(&model.UserUsage{UserID: 7})

	_, _, err := svc.priceFor(CheckoutRequest{
		Type:       CheckoutTypeCredits,
		Credits:    10,
		CreditType: "diamond",
	})
	assert.ErrorIs(t, err, ErrUnknownCreditType)
}

func TestPriceForPlanRejectsNonPositiveAmount(t *testing.T) {
	svc, _ := newPaymentFixture(&model.UserUsage{UserID: 7})

	_, _, err := svc.priceFor(CheckoutRequest{Type: CheckoutTypePlan, Amount: 0})
	assert.Error(t, err)
}

func TestValidateCoupon(t *testing.T) {
	svc, _ := newPaymentFixture(&model.UserUsage{UserID: 7})

	coupon, err := svc.ValidateCoupon("WELCOME20")
	require.NoError(t, err)
	assert.Equal(t, 20, coupon.PercentOff)

	_, err = svc.ValidateCoupon("NOPE")
	assert.ErrorIs(t, err, ErrInvalidCoupon)
}

func TestValidateCouponExpired(t *testing.T) {
	svc, _ := newPaymentFixture(&model.UserUsage{UserID: 7})
	expired := time.Now().Add(-time.Hour)
	svc.contentRepo.(*fakeContentRepo).coupons["OLD"] = &model.Coupon{
		Code: "OLD", PercentOff: 50, IsActive: true, ExpiresAt: &expired,
	}

	_, err := svc.ValidateCoupon("OLD")
	assert.ErrorIs(t, err, ErrInvalidCoupon)
}

func TestFulfillPlanPurchase(t *testing.T) {
	svc, usageRepo := newPaymentFixture(&model.UserUsage{UserID: 7, PlanType: model.PlanFree})

	err := svc.fulfill(map[string]string{
		"userId":   "7",
		"type":     CheckoutTypePlan,
		"planType": model.PlanPro,
	})
	require.NoError(t, err)
	assert.Equal(t, model.PlanPro, usageRepo.usage.PlanType)
	assert.Equal(t, 500, usageRepo.usage.MessagesLeft)
}

func TestFulfillCreditTopUp(t *testing.T) {
	svc, usageRepo := newPaymentFixture(&model.UserUsage{UserID: 7, CustomMessagesBalance: 2})

	err := svc.fulfill(map[string]string{
		"userId":     "7",
		"type":       CheckoutTypeCredits,
		"credits":    "20",
		"creditType": model.CreditTypeCustom,
	})
	require.NoError(t, err)
	assert.Equal(t, 22, usageRepo.usage.CustomMessagesBalance)
}

func TestFulfillRejectsGarbageMetadata(t *testing.T) {
	svc, _ := newPaymentFixture(&model.UserUsage{UserID: 7})

	assert.Error(t, svc.fulfill(map[string]string{"userId": "x", "type": CheckoutTypePlan}))
	assert.Error(t, svc.fulfill(map[string]string{"userId": "7", "type": "mystery"}))
	assert.Error(t, svc.fulfill(map[string]string{"userId": "7", "type": CheckoutTypePlan, "planType": "gold"}))
	assert.Error(t, svc.fulfill(map[string]string{"userId": "7", "type": CheckoutTypeCredits, "credits": "-1"}))
}
