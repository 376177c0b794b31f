// Package handler exposes the nexus ratio computation over HTTP.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"taxrelief/internal/nexus"
	id "taxrelief/pkg/domain"
	dErrors "taxrelief/pkg/domain-errors"
	"taxrelief/pkg/platform/httputil"
)

const periodLayout = "2006-01"

// Handler serves nexus calculations. The computation is pure, so the handler
// carries no dependencies beyond the request itself.
type Handler struct{}

func New() *Handler { return &Handler{} }

// Register mounts nexus endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/nexus/ratio", h.HandleRatio)
}

// RatioRequest carries the four cost buckets for one asset and period.
type RatioRequest struct {
	AssetID           string          `json:"asset_id"`
	Period            string          `json:"period"`
	DirectRD          decimal.Decimal `json:"direct_rd"`
	UnrelatedAcquired decimal.Decimal `json:"unrelated_acquired"`
	RelatedAcquired   decimal.Decimal `json:"related_acquired"`
	AcquiredIP        decimal.Decimal `json:"acquired_ip"`
	QualifyingIncome  decimal.Decimal `json:"qualifying_income"`
}

// RatioResponse returns the bounded ratio and, when income was supplied, the
// preferentially-taxed amount.
type RatioResponse struct {
	AssetID         string           `json:"asset_id"`
	Period          string           `json:"period"`
	Ratio           decimal.Decimal  `json:"ratio"`
	PreferredIncome *decimal.Decimal `json:"preferred_income,omitempty"`
}

// HandleRatio handles POST /nexus/ratio.
func (h *Handler) HandleRatio(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.Decode[RatioRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	assetID, err := id.ParseAssetID(req.AssetID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	period, err := time.Parse(periodLayout, req.Period)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "period must be formatted YYYY-MM"))
		return
	}

	inputs := nexus.Inputs{
		AssetID:           assetID,
		Period:            period,
		DirectRD:          req.DirectRD,
		UnrelatedAcquired: req.UnrelatedAcquired,
		RelatedAcquired:   req.RelatedAcquired,
		AcquiredIP:        req.AcquiredIP,
	}
	ratio, err := nexus.Ratio(inputs)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := RatioResponse{
		AssetID: req.AssetID,
		Period:  req.Period,
		Ratio:   ratio,
	}
	if !req.QualifyingIncome.IsZero() {
		preferred := req.QualifyingIncome.Mul(ratio).Round(2)
		resp.PreferredIncome = &preferred
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
