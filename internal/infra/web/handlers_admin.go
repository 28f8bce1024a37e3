package web

import (
	"net/http"

	"loyalty-campaign/internal/usecase"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	cs, err := s.campaigns.List(r.Context())
	if err != nil {
		writeError(w, r, s.log, "list_campaigns", err)
		return
	}
	out := make([]*campaignDTO, 0, len(cs))
	for _, c := range cs {
		out = append(out, toCampaignDTO(c))
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "campaigns": out})
}

func (s *Server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	var in usecase.CampaignInput
	if err := decodeJSON(r, &in); err != nil {
		writeMessage(w, r, http.StatusBadRequest, false, msgInvalidBody)
		return
	}
	c, err := s.campaigns.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, s.log, "create_campaign", err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"success": true, "message": msg(r, "campaign.created"), "campaign": toCampaignDTO(c)})
}

func (s *Server) handleUpdateCampaign(w http.ResponseWriter, r *http.Request) {
	var in usecase.CampaignInput
	if err := decodeJSON(r, &in); err != nil {
		writeMessage(w, r, http.StatusBadRequest, false, msgInvalidBody)
		return
	}
	c, err := s.campaigns.Update(r.Context(), chi.URLParam(r, "code"), in)
	if err != nil {
		writeError(w, r, s.log, "update_campaign", err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": msg(r, "campaign.updated"), "campaign": toCampaignDTO(c)})
}

func (s *Server) handleCampaignStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.campaigns.Stats(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, s.log, "campaign_stats", err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "stats": st})
}

type resetRequest struct {
	BarcodeIDs []string `json:"barcode_ids"`
}

// handleResetBarcodes answers 200 with per-barcode results; refused resets
// are not request errors.
func (s *Server) handleResetBarcodes(w http.ResponseWriter, r *http.Request) {
	var in resetRequest
	if err := decodeJSON(r, &in); err != nil || len(in.BarcodeIDs) == 0 {
		writeMessage(w, r, http.StatusBadRequest, false, "barcode.ids_required")
		return
	}
	results, err := s.barcodes.ResetAssignment(r.Context(), in.BarcodeIDs)
	if err != nil {
		writeError(w, r, s.log, "reset_barcodes", err)
		return
	}
	reset := 0
	for _, res := range results {
		if res.Reset {
			reset++
		}
	}
	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"message": msg(r, "barcode.reset_finished"),
		"reset":   reset,
		"results": results,
	})
}

type activeRequest struct {
	IsActive *bool `json:"is_active"`
}

func (s *Server) handleSetBarcodeActive(w http.ResponseWriter, r *http.Request) {
	var in activeRequest
	if err := decodeJSON(r, &in); err != nil || in.IsActive == nil {
		writeMessage(w, r, http.StatusBadRequest, false, "barcode.is_active_required")
		return
	}
	if err := s.barcodes.SetActive(r.Context(), chi.URLParam(r, "id"), *in.IsActive); err != nil {
		writeError(w, r, s.log, "set_barcode_active", err)
		return
	}
	writeMessage(w, r, http.StatusOK, true, "barcode.updated")
}

func (s *Server) handleCreateOpportunity(w http.ResponseWriter, r *http.Request) {
	var in usecase.OpportunityInput
	if err := decodeJSON(r, &in); err != nil {
		writeMessage(w, r, http.StatusBadRequest, false, msgInvalidBody)
		return
	}
	p, err := s.opportunities.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, s.log, "create_opportunity", err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"success": true, "message": msg(r, "product.created"), "product": toOpportunityDTO(p)})
}
