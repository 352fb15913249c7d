package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"xrates-sync-service/internal/application/dto"
	"xrates-sync-service/internal/domain/interfaces"
	"xrates-sync-service/internal/infrastructure/logging"
	"xrates-sync-service/internal/infrastructure/web/respond"
)

// RatesHandler expone cotizaciones: última, histórica y top de mercados
type RatesHandler struct {
	service interfaces.MarketInfoService
	now     func() time.Time
}

func NewRatesHandler(service interfaces.MarketInfoService) *RatesHandler {
	return &RatesHandler{
		service: service,
		now:     time.Now,
	}
}

func (h *RatesHandler) fail(w http.ResponseWriter, r *http.Request, err error, fields logging.Fields) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		logging.ErrorWithError(r.Context(), "Rate request failed", err, fields)
	}
	respond.Error(w, r, status, code, err.Error())
}

// GetRate godoc
// @Summary Latest rate
// @Description Latest market info for an asset/currency pair. Served from cache while not expired.
// @Tags rates
// @Produce json
// @Param asset path string true "Asset id" example(BTC)
// @Param currency path string true "Currency code" example(USD)
// @Success 200 {object} dto.MarketInfoResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/rates/{asset}/{currency} [get]
func (h *RatesHandler) GetRate(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	req, err := dto.NewRateRequest(vars["asset"], vars["currency"])
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, CodeInvalidParameter, err.Error())
		return
	}

	info, err := h.service.Latest(r.Context(), req.Asset, req.Currency)
	if err != nil {
		h.fail(w, r, err, logging.Fields{logging.FieldAsset: req.Asset, logging.FieldCurrency: req.Currency})
		return
	}

	respond.JSON(w, r, http.StatusOK, dto.ToMarketInfoResponse(info))
}

// GetHistoricalRate godoc
// @Summary Historical rate
// @Description Rate of the pair at the given unix timestamp (seconds). Stored after the first lookup.
// @Tags rates
// @Produce json
// @Param asset path string true "Asset id" example(BTC)
// @Param currency path string true "Currency code" example(USD)
// @Param timestamp query int true "Unix timestamp in seconds, not in the future"
// @Success 200 {object} dto.HistoricalRateResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 501 {object} dto.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/rates/{asset}/{currency}/historical [get]
func (h *RatesHandler) GetHistoricalRate(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	req, err := dto.NewHistoricalRequest(vars["asset"], vars["currency"], r.URL.Query().Get("timestamp"), h.now())
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, CodeInvalidParameter, err.Error())
		return
	}

	rate, err := h.service.Historical(r.Context(), req.Asset, req.Currency, req.At)
	if err != nil {
		h.fail(w, r, err, logging.Fields{
			logging.FieldAsset:    req.Asset,
			logging.FieldCurrency: req.Currency,
			"at":                  req.At.Unix(),
		})
		return
	}

	respond.JSON(w, r, http.StatusOK, dto.ToHistoricalRateResponse(rate))
}

// GetTopMarkets godoc
// @Summary Top markets
// @Description Markets ranked by capitalization. Requires a CoinMarketCap API key.
// @Tags markets
// @Produce json
// @Param limit query int false "Number of markets (1-100)" default(10)
// @Param currency query string false "Quote currency" default(USD)
// @Success 200 {object} dto.TopMarketsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 501 {object} dto.ErrorResponse "Top markets provider not configured"
// @Security ApiKeyAuth
// @Router /api/v1/markets/top [get]
func (h *RatesHandler) GetTopMarkets(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req, err := dto.NewTopMarketsRequest(query.Get("limit"), query.Get("currency"))
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, CodeInvalidParameter, err.Error())
		return
	}

	markets, err := h.service.TopMarkets(r.Context(), req.Limit, req.Currency)
	if err != nil {
		h.fail(w, r, err, logging.Fields{"limit": req.Limit, logging.FieldCurrency: req.Currency})
		return
	}

	respond.JSON(w, r, http.StatusOK, dto.ToTopMarketsResponse(req.Currency, markets))
}
