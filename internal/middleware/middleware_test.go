package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID_GeraQuandoAusente(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	var visto string
	r.GET("/", func(c *gin.Context) { visto = c.GetString(RequestIDKey) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))

	_, err := uuid.Parse(visto)
	require.NoError(t, err)
	assert.Equal(t, visto, w.Header().Get(RequestIDHeader))
}

func TestRequestID_PropagaValido(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {})
	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, id)

	w := serve(r, req)

	assert.Equal(t, id, w.Header().Get(RequestIDHeader))
}

func TestRateLimiter_BloqueiaAcimaDoLimite(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := gin.New()
	r.Use(RateLimiter(ctx, 2))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	}
	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRecovery_RetornaErroGenerico(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/", func(c *gin.Context) { panic("segredo interno") })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "segredo")
}

func TestErrorHandler_ErroSemRespostaVira500(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/", func(c *gin.Context) { _ = c.Error(errors.New("dial tcp: senha incorreta")) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Erro interno do servidor")
	assert.NotContains(t, w.Body.String(), "senha")
}

func TestErrorHandler_PreservaRespostaJaEscrita(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/", func(c *gin.Context) {
		_ = c.Error(errors.New("deadline"))
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "Erro interno do servidor"})
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCORS_Preflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodOptions, "/", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
