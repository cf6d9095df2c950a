package routes_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go-shop-api/internal/api/handlers"
	"go-shop-api/internal/api/routes"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockJobPartHandler struct{ mock.Mock }

func (m *MockJobPartHandler) AttachInventory(c *gin.Context) { m.Called(c) }
func (m *MockJobPartHandler) ListJobParts(c *gin.Context)    { m.Called(c) }
func (m *MockJobPartHandler) DetachJobPart(c *gin.Context)   { m.Called(c) }

var _ handlers.JobPartHandlerInterface = (*MockJobPartHandler)(nil)

type MockInvoiceHandler struct{ mock.Mock }

func (m *MockInvoiceHandler) GetInvoiceByID(c *gin.Context)      { m.Called(c) }
func (m *MockInvoiceHandler) UpdateInvoiceStatus(c *gin.Context) { m.Called(c) }

var _ handlers.InvoiceHandlerInterface = (*MockInvoiceHandler)(nil)

type MockEstimateHandler struct{ mock.Mock }

func (m *MockEstimateHandler) SendEstimate(c *gin.Context) { m.Called(c) }
func (m *MockEstimateHandler) ApproveItem(c *gin.Context)  { m.Called(c) }
func (m *MockEstimateHandler) DeclineItem(c *gin.Context)  { m.Called(c) }

var _ handlers.EstimateHandlerInterface = (*MockEstimateHandler)(nil)

type route struct {
	Method string
	Path   string
}

func assertRoutes(t *testing.T, router *gin.Engine, expected []route) {
	t.Helper()
	registered := make(map[string]bool)
	for _, r := range router.Routes() {
		registered[r.Method+" "+r.Path] = true
		t.Logf("Registered: %s %s", r.Method, r.Path)
	}
	assert.Len(t, router.Routes(), len(expected), "Number of registered routes should match expected")
	for _, e := range expected {
		assert.True(t, registered[e.Method+" "+e.Path], "Expected route %s %s to be registered", e.Method, e.Path)
	}
}

func noAuth(c *gin.Context) { c.Next() }

func TestRegisterJobPartRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	routes.RegisterJobPartRoutes(router.Group("/api/v1"), new(MockJobPartHandler), noAuth)

	assertRoutes(t, router, []route{
		{http.MethodPost, "/api/v1/jobs/:id/parts"},
		{http.MethodGet, "/api/v1/jobs/:id/parts"},
		{http.MethodDelete, "/api/v1/job-parts/:id"},
	})
}

func TestRegisterInvoiceRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	routes.RegisterInvoiceRoutes(router.Group("/api/v1"), new(MockInvoiceHandler), new(MockEstimateHandler), noAuth)

	assertRoutes(t, router, []route{
		{http.MethodGet, "/api/v1/invoices/:id"},
		{http.MethodPatch, "/api/v1/invoices/:id/status"},
		{http.MethodPost, "/api/v1/invoices/:id/estimate/send"},
	})
}

func TestRegisterEstimateRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	routes.RegisterEstimateRoutes(router.Group("/api/v1"), new(MockEstimateHandler), noAuth)

	assertRoutes(t, router, []route{
		{http.MethodPost, "/api/v1/invoice-items/:id/estimate/approve"},
		{http.MethodPost, "/api/v1/invoice-items/:id/estimate/decline"},
	})
}

func TestRoutesRunAuthBeforeHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := new(MockJobPartHandler)
	deny := func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) }

	routes.RegisterJobPartRoutes(router.Group("/api/v1"), handler, deny)

	recorder := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/jobs/x/parts", nil)
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	handler.AssertNotCalled(t, "ListJobParts", mock.Anything)
}
