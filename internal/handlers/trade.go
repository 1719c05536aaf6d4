package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Melkor-1/Fin-Vista/internal/credentials"
	"github.com/Melkor-1/Fin-Vista/internal/engine"
	"github.com/Melkor-1/Fin-Vista/internal/ledger"
	"github.com/Melkor-1/Fin-Vista/internal/models"
)

// API holds the wired dependencies for all HTTP handlers.
type API struct {
	store     ledger.Store
	engine    *engine.Engine
	processor *engine.Processor
	creds     *credentials.Validator
	feed      *TradeFeed
	jwtSecret []byte
}

// NewAPI wires the handlers.
func NewAPI(store ledger.Store, eng *engine.Engine, processor *engine.Processor, creds *credentials.Validator, feed *TradeFeed, jwtSecret []byte) *API {
	return &API{
		store:     store,
		engine:    eng,
		processor: processor,
		creds:     creds,
		feed:      feed,
		jwtSecret: jwtSecret,
	}
}

// RegisterRoutes mounts everything on the router.
func (a *API) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.POST("/register", a.Register)
		api.POST("/login", a.Login)

		authed := api.Group("", a.Auth)
		{
			authed.POST("/trades/buy", a.Buy)
			authed.POST("/trades/sell", a.Sell)
			authed.GET("/trades", a.History)
			authed.GET("/portfolio", a.Portfolio)
			authed.GET("/quote/:symbol", a.Quote)
		}
	}

	router.GET("/ws/trades", a.Auth, a.TradeStream)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
}

// statusFor maps engine error kinds to HTTP status codes.
func statusFor(err error) int {
	switch engine.KindOf(err) {
	case engine.KindValidation:
		return http.StatusBadRequest
	case engine.KindNotFound:
		return http.StatusNotFound
	case engine.KindInsufficientFunds, engine.KindInsufficientHoldings:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func renderError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

// Buy handles POST /api/trades/buy
func (a *API) Buy(c *gin.Context) {
	a.submitTrade(c, models.TradeTypeBuy)
}

// Sell handles POST /api/trades/sell
func (a *API) Sell(c *gin.Context) {
	a.submitTrade(c, models.TradeTypeSell)
}

func (a *API) submitTrade(c *gin.Context, tradeType string) {
	var req models.TradeRequest

	// Parse JSON request body
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := a.processor.Submit(c.Request.Context(), engine.Order{
		UserID: currentUser(c),
		Symbol: req.Symbol,
		Shares: req.Shares,
		Type:   tradeType,
	})

	if result.Err != nil {
		renderError(c, result.Err)
		return
	}

	message := "Bought!"
	if tradeType == models.TradeTypeSell {
		message = "Sold!"
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     message,
		"symbol":      result.Receipt.Symbol,
		"shares":      result.Receipt.Shares,
		"price":       result.Receipt.Price,
		"total":       result.Receipt.Total,
		"new_balance": result.Receipt.NewBalance,
	})
}

// Quote handles GET /api/quote/:symbol
func (a *API) Quote(c *gin.Context) {
	q, err := a.engine.Quote(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// Portfolio handles GET /api/portfolio
func (a *API) Portfolio(c *gin.Context) {
	view, err := a.engine.Portfolio(c.Request.Context(), currentUser(c))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// History handles GET /api/trades
func (a *API) History(c *gin.Context) {
	transactions, err := a.engine.History(c.Request.Context(), currentUser(c))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"trades": transactions,
		"count":  len(transactions),
	})
}
