package handlers_test

import (
	"context"
	"net/http"
	"time"

	"go-shop-api/internal/api/middleware"
	"go-shop-api/internal/models"
	"go-shop-api/internal/services"
	"go-shop-api/internal/transport/dto"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

const testSecret = "handler-test-secret"

func generateTestToken(userID, shopID uuid.UUID, secret string, expiration time.Duration) (string, error) {
	now := time.Now()
	claims := &middleware.Claims{
		ShopID: shopID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// authorize signs a token for shopID and sets it on the request.
func authorize(req *http.Request, shopID uuid.UUID) *http.Request {
	token, err := generateTestToken(uuid.New(), shopID, testSecret, time.Hour)
	if err != nil {
		panic(err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func authMiddleware() gin.HandlerFunc {
	return middleware.JWTAuthMiddleware(testSecret)
}

// --- Service mocks ---

type MockInventoryService struct {
	mock.Mock
}

func (m *MockInventoryService) AttachInventoryToJob(ctx context.Context, req *dto.AttachInventoryRequest) (*services.AttachResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AttachResult), args.Error(1)
}

func (m *MockInventoryService) DetachJobPart(ctx context.Context, req *dto.DetachJobPartRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockInventoryService) ListJobParts(ctx context.Context, req *dto.ListJobPartsRequest) ([]models.JobPartLink, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.JobPartLink), args.Error(1)
}

var _ services.InventoryService = (*MockInventoryService)(nil)

type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) GetInvoice(ctx context.Context, req *dto.GetInvoiceRequest) (*services.InvoiceWithTotals, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.InvoiceWithTotals), args.Error(1)
}

func (m *MockInvoiceService) UpdateInvoiceStatus(ctx context.Context, req *dto.UpdateInvoiceStatusRequest) (*models.Invoice, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

var _ services.InvoiceService = (*MockInvoiceService)(nil)

type MockEstimateService struct {
	mock.Mock
}

func (m *MockEstimateService) SendEstimate(ctx context.Context, req *dto.SendEstimateRequest) (*services.SendEstimateResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SendEstimateResult), args.Error(1)
}

func (m *MockEstimateService) ApproveEstimateItem(ctx context.Context, req *dto.EstimateItemRequest) (*models.LineItem, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LineItem), args.Error(1)
}

func (m *MockEstimateService) DeclineEstimateItem(ctx context.Context, req *dto.EstimateItemRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

var _ services.EstimateService = (*MockEstimateService)(nil)
