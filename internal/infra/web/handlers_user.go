package web

import (
	"net/http"

	"loyalty-campaign/internal/domain/model"
	"loyalty-campaign/internal/infra/logging"
	"loyalty-campaign/internal/usecase"

	"github.com/go-chi/chi/v5"
)

func (s *Server) issueTokens(w http.ResponseWriter, r *http.Request, status int, key string, u *model.User) {
	pair, err := s.auth.Mint(u.ID)
	if err != nil {
		writeError(w, r, s.log, "mint_tokens", err)
		return
	}
	writeJSON(w, status, envelope{
		"success": true,
		"message": msg(r, key),
		"user":    toUserDTO(u),
		"tokens":  pair,
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in usecase.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		writeMessage(w, r, http.StatusBadRequest, false, msgInvalidBody)
		return
	}
	u, err := s.users.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, s.log, "register", err)
		return
	}
	s.issueTokens(w, r, http.StatusCreated, "user.created", u)
}

type loginRequest struct {
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeJSON(r, &in); err != nil || in.PhoneNumber == "" || in.Password == "" {
		writeMessage(w, r, http.StatusBadRequest, false, "user.login_required")
		return
	}
	u, err := s.users.Authenticate(r.Context(), in.PhoneNumber, in.Password)
	if err != nil {
		writeError(w, r, s.log, "login", err)
		return
	}
	s.issueTokens(w, r, http.StatusOK, "user.login_ok", u)
}

type verifyRequest struct {
	PhoneNumber      string `json:"phone_number"`
	VerificationCode string `json:"verification_code"`
}

func (s *Server) handleVerifyPhone(w http.ResponseWriter, r *http.Request) {
	var in verifyRequest
	if err := decodeJSON(r, &in); err != nil || in.PhoneNumber == "" || in.VerificationCode == "" {
		writeMessage(w, r, http.StatusBadRequest, false, "user.verify_required")
		return
	}
	if err := s.users.VerifyPhone(r.Context(), in.PhoneNumber, in.VerificationCode); err != nil {
		writeError(w, r, s.log, "verify_phone", err)
		return
	}
	writeMessage(w, r, http.StatusOK, true, "user.verified")
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

func (s *Server) handleTokenRefresh(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if err := decodeJSON(r, &in); err != nil || in.Refresh == "" {
		writeMessage(w, r, http.StatusBadRequest, false, "auth.refresh_required")
		return
	}
	pair, err := s.auth.Refresh(r.Context(), in.Refresh)
	if err != nil {
		writeError(w, r, s.log, "token_refresh", err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "tokens": pair})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if err := decodeJSON(r, &in); err != nil || in.Refresh == "" {
		writeMessage(w, r, http.StatusBadRequest, false, "auth.refresh_required")
		return
	}
	if err := s.auth.Revoke(r.Context(), in.Refresh); err != nil {
		writeError(w, r, s.log, "logout", err)
		return
	}
	writeMessage(w, r, http.StatusOK, true, "user.logged_out")
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	u, err := s.users.Profile(r.Context(), logging.UserID(r.Context()))
	if err != nil {
		writeError(w, r, s.log, "profile", err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "user": toUserDTO(u)})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in usecase.UpdateProfileInput
	if err := decodeJSON(r, &in); err != nil {
		writeMessage(w, r, http.StatusBadRequest, false, msgInvalidBody)
		return
	}
	u, err := s.users.UpdateProfile(r.Context(), logging.UserID(r.Context()), in)
	if err != nil {
		writeError(w, r, s.log, "update_profile", err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": msg(r, "user.profile_updated"), "user": toUserDTO(u)})
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.users.DeleteAccount(r.Context(), logging.UserID(r.Context())); err != nil {
		writeError(w, r, s.log, "delete_account", err)
		return
	}
	writeMessage(w, r, http.StatusOK, true, "user.deleted")
}

func (s *Server) handleListChildren(w http.ResponseWriter, r *http.Request) {
	cs, err := s.users.ListChildren(r.Context(), logging.UserID(r.Context()))
	if err != nil {
		writeError(w, r, s.log, "list_children", err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "children": toChildDTOs(cs)})
}

func (s *Server) handleAddChild(w http.ResponseWriter, r *http.Request) {
	var in model.ChildInput
	if err := decodeJSON(r, &in); err != nil {
		writeMessage(w, r, http.StatusBadRequest, false, msgInvalidBody)
		return
	}
	c, err := s.users.AddChild(r.Context(), logging.UserID(r.Context()), in)
	if err != nil {
		writeError(w, r, s.log, "add_child", err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"success": true, "message": msg(r, "child.added"), "child": toChildDTO(c)})
}

func (s *Server) handleUpdateChild(w http.ResponseWriter, r *http.Request) {
	var in model.ChildInput
	if err := decodeJSON(r, &in); err != nil {
		writeMessage(w, r, http.StatusBadRequest, false, msgInvalidBody)
		return
	}
	c, err := s.users.UpdateChild(r.Context(), logging.UserID(r.Context()), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, s.log, "update_child", err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": msg(r, "child.updated"), "child": toChildDTO(c)})
}

func (s *Server) handleDeleteChild(w http.ResponseWriter, r *http.Request) {
	if err := s.users.DeleteChild(r.Context(), logging.UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, s.log, "delete_child", err)
		return
	}
	writeMessage(w, r, http.StatusOK, true, "child.deleted")
}
