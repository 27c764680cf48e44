package http_health

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
)

type HealthControllerSuite struct {
	suite.Suite
}

type outcomesStub struct {
	succeeded int
	failed    int
}

func (s outcomesStub) Outcomes() (int, int) {
	return s.succeeded, s.failed
}

func (suite *HealthControllerSuite) TestHealthz(t provider.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	New(outcomesStub{succeeded: 3, failed: 1}).RegisterRoutes(router.Group("/api/v1"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","tasks_succeeded":3,"tasks_failed":1}`, rec.Body.String())
}

func TestHealthControllerSuite(t *testing.T) {
	suite.RunSuite(t, new(HealthControllerSuite))
}
