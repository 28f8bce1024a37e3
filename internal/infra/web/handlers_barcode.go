package web

import (
	"errors"
	"net/http"
	"strconv"

	"loyalty-campaign/internal/domain"
	"loyalty-campaign/internal/infra/logging"
)

// handleUserBarcode returns the caller's barcode, allocating one on first use.
func (s *Server) handleUserBarcode(w http.ResponseWriter, r *http.Request) {
	userID := logging.UserID(r.Context())
	v, err := s.barcodes.GetOrAssign(r.Context(), userID)
	if err != nil {
		if domain.IsNoAssignment(err) {
			writeJSON(w, http.StatusNotFound, envelope{"success": false, "message": msg(r, msgNoBarcode), "barcode": nil})
			return
		}
		writeError(w, r, s.log, "user_barcode", err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"message": msg(r, "barcode.retrieved"),
		"barcode": toUserBarcodeDTO(v),
	})
}

func (s *Server) handleActiveCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := s.campaigns.GetActive(r.Context(), s.now())
	if errors.Is(err, domain.ErrNoActiveCampaign) {
		writeJSON(w, http.StatusNotFound, envelope{"success": false, "message": msg(r, msgNoCampaign), "campaign": nil})
		return
	}
	if err != nil {
		writeError(w, r, s.log, "active_campaign", err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "campaign": toCampaignDTO(c)})
}

// handleAssignBarcode allocates only for users without a binding; bound
// users get 400 together with the barcode they already hold.
func (s *Server) handleAssignBarcode(w http.ResponseWriter, r *http.Request) {
	userID := logging.UserID(r.Context())
	v, err := s.barcodes.ForceAssign(r.Context(), userID)
	switch {
	case errors.Is(err, domain.ErrAlreadyAssigned):
		dto := toUserBarcodeDTO(v)
		text := msg(r, "barcode.already_assigned")
		if dto != nil {
			text = msg(r, "barcode.already_assigned_code", dto.Code)
		}
		writeJSON(w, http.StatusBadRequest, envelope{"success": false, "message": text, "barcode": dto})
	case domain.IsNoAssignment(err):
		writeMessage(w, r, http.StatusNotFound, false, msgNoBarcode)
	case err != nil:
		writeError(w, r, s.log, "assign_barcode", err)
	default:
		writeJSON(w, http.StatusCreated, envelope{
			"success": true,
			"message": msg(r, "barcode.assigned"),
			"barcode": toUserBarcodeDTO(v),
		})
	}
}

// handleBarcodeStatus is a public debug view of the pool.
func (s *Server) handleBarcodeStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.barcodes.Status(r.Context(), s.now())
	if err != nil {
		writeError(w, r, s.log, "barcode_status", err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"success":    true,
		"message":    msg(r, "barcode.service_running"),
		"app":        "barcodes",
		"debug_info": st,
	})
}

func (s *Server) handleListOpportunities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page_size"))

	items, meta, err := s.opportunities.ListActive(r.Context(), page, size)
	if err != nil {
		writeError(w, r, s.log, "list_opportunities", err)
		return
	}
	out := make([]opportunityDTO, 0, len(items))
	for _, p := range items {
		out = append(out, toOpportunityDTO(p))
	}
	writeJSON(w, http.StatusOK, envelope{
		"success":    true,
		"results":    out,
		"pagination": meta,
	})
}
