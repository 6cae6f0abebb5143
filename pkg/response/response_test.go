package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestEnvelope(t *testing.T) {
	t.Run("success carries data", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		Success(c, gin.H{"balance": 100})

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decode(t, w)
		assert.Equal(t, CodeSuccess, resp.Code)
		assert.Equal(t, "success", resp.Message)
		assert.Equal(t, map[string]interface{}{"balance": float64(100)}, resp.Data)
	})

	t.Run("business error keeps status 200", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		BusinessError(c, CodeBalanceNotEnough, "insufficient balance")

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decode(t, w)
		assert.Equal(t, CodeBalanceNotEnough, resp.Code)
		assert.Nil(t, resp.Data)
	})

	t.Run("abort sets status", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		Abort(c, http.StatusForbidden, CodeForbidden, "admin only")

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.True(t, c.IsAborted())
		assert.Equal(t, CodeForbidden, decode(t, w).Code)
	})

	t.Run("not implemented", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		NotImplemented(c, "not available")

		assert.Equal(t, http.StatusNotImplemented, w.Code)
		assert.Equal(t, CodeNotImplemented, decode(t, w).Code)
	})
}
