package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Melkor-1/Fin-Vista/internal/credentials"
	"github.com/Melkor-1/Fin-Vista/internal/engine"
	"github.com/Melkor-1/Fin-Vista/internal/ledger"
	"github.com/Melkor-1/Fin-Vista/internal/quote"
)

func newTestRouter(t *testing.T) (*gin.Engine, *engine.Processor) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := ledger.NewMemStore()
	prices := quote.NewStaticProvider()
	prices.Set("AAPL", decimal.RequireFromString("150.00"))
	eng := engine.New(store, prices)

	processor := engine.NewProcessor(eng, 1)
	processor.Start()

	api := NewAPI(store, eng, processor, credentials.NewValidator(), NewTradeFeed(), []byte("test-secret"))
	router := gin.New()
	api.RegisterRoutes(router)

	return router, processor
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func registerAndLogin(t *testing.T, router *gin.Engine) string {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/api/register", "", gin.H{
		"username":     "alice",
		"password":     "Abcdefg1!",
		"confirmation": "Abcdefg1!",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/api/login", "", gin.H{
		"username": "alice",
		"password": "Abcdefg1!",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestRegister_WeakPassword(t *testing.T) {
	router, processor := newTestRouter(t)
	defer processor.Stop()

	rec := doJSON(t, router, http.MethodPost, "/api/register", "", gin.H{
		"username":     "alice",
		"password":     "weak",
		"confirmation": "weak",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "at least 8 characters")
}

func TestRegister_DuplicateUsername(t *testing.T) {
	router, processor := newTestRouter(t)
	defer processor.Stop()

	body := gin.H{"username": "alice", "password": "Abcdefg1!", "confirmation": "Abcdefg1!"}

	rec := doJSON(t, router, http.MethodPost, "/api/register", "", body)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/register", "", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "username already exists")
}

func TestLogin_WrongPassword(t *testing.T) {
	router, processor := newTestRouter(t)
	defer processor.Stop()

	registerAndLogin(t, router)

	rec := doJSON(t, router, http.MethodPost, "/api/login", "", gin.H{
		"username": "alice",
		"password": "Wrong-password1",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_RejectsMissingAndBadTokens(t *testing.T) {
	router, processor := newTestRouter(t)
	defer processor.Stop()

	rec := doJSON(t, router, http.MethodGet, "/api/portfolio", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/portfolio", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTradeFlow_EndToEnd(t *testing.T) {
	router, processor := newTestRouter(t)
	defer processor.Stop()

	token := registerAndLogin(t, router)

	// Buy 10 AAPL at $150
	rec := doJSON(t, router, http.MethodPost, "/api/trades/buy", token, gin.H{
		"symbol": "AAPL",
		"shares": "10",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Bought!")

	// Portfolio shows the position and the reduced cash
	rec = doJSON(t, router, http.MethodGet, "/api/portfolio", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var view struct {
		Holdings []struct {
			Symbol string `json:"symbol"`
			Shares int64  `json:"shares"`
		} `json:"holdings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Holdings, 1)
	assert.Equal(t, "AAPL", view.Holdings[0].Symbol)
	assert.Equal(t, int64(10), view.Holdings[0].Shares)

	// Sell 4, leaving 6
	rec = doJSON(t, router, http.MethodPost, "/api/trades/sell", token, gin.H{
		"symbol": "AAPL",
		"shares": "4",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Sold!")

	// History has both trades, newest first
	rec = doJSON(t, router, http.MethodGet, "/api/trades", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var history struct {
		Count  int `json:"count"`
		Trades []struct {
			Shares int64 `json:"shares"`
		} `json:"trades"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Equal(t, 2, history.Count)
	assert.Equal(t, int64(-4), history.Trades[0].Shares)
	assert.Equal(t, int64(10), history.Trades[1].Shares)
}

func TestTrade_ErrorStatusMapping(t *testing.T) {
	router, processor := newTestRouter(t)
	defer processor.Stop()

	token := registerAndLogin(t, router)

	// Unknown symbol → 404
	rec := doJSON(t, router, http.MethodPost, "/api/trades/buy", token, gin.H{
		"symbol": "NOPE",
		"shares": "1",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Fractional shares → 400
	rec = doJSON(t, router, http.MethodPost, "/api/trades/buy", token, gin.H{
		"symbol": "AAPL",
		"shares": "1.5",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unaffordable buy → 422
	rec = doJSON(t, router, http.MethodPost, "/api/trades/buy", token, gin.H{
		"symbol": "AAPL",
		"shares": "1000",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Selling what you don't own → 422
	rec = doJSON(t, router, http.MethodPost, "/api/trades/sell", token, gin.H{
		"symbol": "AAPL",
		"shares": "1",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestQuoteEndpoint(t *testing.T) {
	router, processor := newTestRouter(t)
	defer processor.Stop()

	token := registerAndLogin(t, router)

	rec := doJSON(t, router, http.MethodGet, "/api/quote/aapl", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"symbol":"AAPL"`)

	rec = doJSON(t, router, http.MethodGet, "/api/quote/NOPE", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
