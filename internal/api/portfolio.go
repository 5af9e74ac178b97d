package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/market"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/models"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/tools"
)

type portfolioRequest struct {
	Name          string  `json:"name" binding:"required,max=120"`
	Description   string  `json:"description" binding:"max=500"`
	RiskTolerance string  `json:"risk_tolerance" binding:"omitempty,oneof=conservative moderate aggressive"`
	Cash          float64 `json:"cash" binding:"gte=0"`
}

type stockRequest struct {
	Ticker        string  `json:"ticker" binding:"required,max=16"`
	Shares        float64 `json:"shares" binding:"gt=0"`
	PurchasePrice float64 `json:"purchase_price" binding:"gte=0"`
	PurchaseDate  string  `json:"purchase_date" binding:"omitempty,datetime=2006-01-02"`
	Notes         string  `json:"notes" binding:"max=500"`
}

func (r stockRequest) apply(s *models.Stock) {
	s.Ticker = strings.ToUpper(strings.TrimSpace(r.Ticker))
	s.Shares = r.Shares
	s.PurchasePrice = r.PurchasePrice
	s.Notes = r.Notes
	s.PurchaseDate = time.Time{}
	if r.PurchaseDate != "" {
		if d, err := time.Parse(time.DateOnly, r.PurchaseDate); err == nil {
			s.PurchaseDate = d
		}
	}
}

func (h *Handler) handleListPortfolios(c *gin.Context) {
	portfolios, err := h.portfolios.ListPortfolios(c.Request.Context(), userID(c))
	if err != nil {
		h.writeStoreError(c, "failed to list portfolios", err)
		return
	}
	c.JSON(http.StatusOK, portfolios)
}

func (h *Handler) handleCreatePortfolio(c *gin.Context) {
	var req portfolioRequest
	if !bindJSON(c, &req) {
		return
	}

	p := &models.Portfolio{
		UserID:        userID(c),
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		RiskTolerance: req.RiskTolerance,
		Cash:          req.Cash,
	}
	if p.RiskTolerance == "" {
		p.RiskTolerance = "moderate"
	}
	if err := h.portfolios.CreatePortfolio(c.Request.Context(), p); err != nil {
		h.writeStoreError(c, "failed to create portfolio", err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) handleGetPortfolio(c *gin.Context) {
	p, err := h.portfolios.GetPortfolio(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		h.writeStoreError(c, "failed to load portfolio", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) handleUpdatePortfolio(c *gin.Context) {
	var req portfolioRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	p, err := h.portfolios.GetPortfolio(ctx, c.Param("id"), userID(c))
	if err != nil {
		h.writeStoreError(c, "failed to load portfolio", err)
		return
	}

	p.Name = strings.TrimSpace(req.Name)
	p.Description = req.Description
	p.Cash = req.Cash
	if req.RiskTolerance != "" {
		p.RiskTolerance = req.RiskTolerance
	}
	if err := h.portfolios.UpdatePortfolio(ctx, p); err != nil {
		h.writeStoreError(c, "failed to update portfolio", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) handleDeletePortfolio(c *gin.Context) {
	if err := h.portfolios.DeletePortfolio(c.Request.Context(), c.Param("id"), userID(c)); err != nil {
		h.writeStoreError(c, "failed to delete portfolio", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "id": c.Param("id")})
}

func (h *Handler) handleListStocks(c *gin.Context) {
	stocks, err := h.portfolios.ListStocks(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		h.writeStoreError(c, "failed to list stocks", err)
		return
	}
	c.JSON(http.StatusOK, stocks)
}

func (h *Handler) handleAddStock(c *gin.Context) {
	var req stockRequest
	if !bindJSON(c, &req) {
		return
	}

	s := &models.Stock{PortfolioID: c.Param("id")}
	req.apply(s)
	if err := h.portfolios.AddStock(c.Request.Context(), userID(c), s); err != nil {
		h.writeStoreError(c, "failed to add stock", err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h *Handler) handleUpdateStock(c *gin.Context) {
	var req stockRequest
	if !bindJSON(c, &req) {
		return
	}

	s := &models.Stock{ID: c.Param("stockId"), PortfolioID: c.Param("id")}
	req.apply(s)
	if err := h.portfolios.UpdateStock(c.Request.Context(), userID(c), s); err != nil {
		h.writeStoreError(c, "failed to update stock", err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) handleDeleteStock(c *gin.Context) {
	if err := h.portfolios.DeleteStock(c.Request.Context(), c.Param("id"), c.Param("stockId"), userID(c)); err != nil {
		h.writeStoreError(c, "failed to delete stock", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "id": c.Param("stockId")})
}

// handlePerformance values the holdings over the requested range and returns a line chart.
func (h *Handler) handlePerformance(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := h.portfolios.GetPortfolio(ctx, c.Param("id"), userID(c))
	if err != nil {
		h.writeStoreError(c, "failed to load portfolio", err)
		return
	}
	if h.quotes == nil {
		writeError(c, http.StatusServiceUnavailable, "market data is not configured", market.ErrNotConfigured)
		return
	}

	rangeParam := strings.TrimSpace(c.Query("range"))
	if rangeParam == "" {
		rangeParam = h.market.PerformanceRange
	}

	quotes, _ := h.marketFor(c)
	series, err := tools.PortfolioSeries(ctx, quotes, *p, rangeParam)
	if err != nil {
		h.writeMarketError(c, "failed to load price history", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"portfolio_id": p.ID,
		"range":        rangeParam,
		"series":       series,
		"chart":        tools.NewPerformanceChart(series),
	})
}

func (h *Handler) writeMarketError(c *gin.Context, message string, err error) {
	var apiErr *market.APIError
	switch {
	case errors.Is(err, market.ErrSymbolRequired):
		writeError(c, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, market.ErrNotConfigured):
		writeError(c, http.StatusServiceUnavailable, "market data is not configured", err)
	case errors.Is(err, market.ErrNoData):
		writeError(c, http.StatusNotFound, "no market data found", err)
	case errors.As(err, &apiErr):
		h.logger.Warnw(message, "provider", apiErr.Provider, "status", apiErr.StatusCode, "error", err)
		writeError(c, http.StatusBadGateway, message, err)
	default:
		h.logger.Errorw(message, "error", err)
		writeError(c, http.StatusBadGateway, message, err)
	}
}
