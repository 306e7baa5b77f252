package api

import (
	"net/http"

	"github.com/fgeck/panelsync/internal/models"
	"github.com/fgeck/panelsync/internal/services/reconcile"
	"github.com/go-chi/chi/v5"
)

type passwordRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleListEmail(w http.ResponseWriter, r *http.Request, svc reconcile.Service) {
	respondData(w, svc.ListEmailAccounts(r.Context(), chi.URLParam(r, "domain")))
}

func (s *Server) handleCreateEmail(w http.ResponseWriter, r *http.Request, svc reconcile.Service) {
	var acct models.EmailAccount
	if err := decodeJSON(r, &acct); err != nil {
		respondError(w, err)
		return
	}
	acct.Domain = chi.URLParam(r, "domain")
	if acct.User == "" || acct.Password == "" {
		respondError(w, badRequest("user and password are required"))
		return
	}
	s.finish(w, r, "create_email", svc.CreateEmailAccount(r.Context(), acct))
}

func (s *Server) handleUpdateEmailPassword(w http.ResponseWriter, r *http.Request, svc reconcile.Service) {
	var req passwordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.Password == "" {
		respondError(w, badRequest("password is required"))
		return
	}
	s.finish(w, r, "update_email_password", svc.UpdateEmailPassword(r.Context(), chi.URLParam(r, "domain"), chi.URLParam(r, "user"), req.Password))
}

func (s *Server) handleDeleteEmail(w http.ResponseWriter, r *http.Request, svc reconcile.Service) {
	s.finish(w, r, "delete_email", svc.DeleteEmailAccount(r.Context(), chi.URLParam(r, "domain"), chi.URLParam(r, "user")))
}
