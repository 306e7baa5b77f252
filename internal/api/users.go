package api

import (
	"net/http"

	"github.com/fgeck/panelsync/internal/models"
	"github.com/fgeck/panelsync/internal/services/reconcile"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request, svc reconcile.Service) {
	list := svc.ListUsers(r.Context())
	if list.Error != "" {
		respondJSON(w, http.StatusOK, Envelope{Status: statusWarning, Message: list.Error, Data: list})
		return
	}
	respondData(w, list)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request, svc reconcile.Service) {
	details, err := svc.GetUserDetails(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, details)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request, svc reconcile.Service) {
	var u models.User
	if err := decodeJSON(r, &u); err != nil {
		respondError(w, err)
		return
	}
	switch {
	case u.Username == "":
		respondError(w, badRequest("username is required"))
		return
	case u.Domain == "":
		respondError(w, badRequest("domain is required"))
		return
	case u.Password == "":
		respondError(w, badRequest("password is required"))
		return
	}
	s.finish(w, r, "create_user", svc.CreateUser(r.Context(), u))
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request, svc reconcile.Service) {
	var upd models.UserUpdate
	if err := decodeJSON(r, &upd); err != nil {
		respondError(w, err)
		return
	}
	if upd.Package == "" && upd.Email == "" {
		respondError(w, badRequest("nothing to update: set package or email"))
		return
	}
	s.finish(w, r, "update_user", svc.UpdateUser(r.Context(), chi.URLParam(r, "username"), upd))
}

func (s *Server) handleSuspendUser(w http.ResponseWriter, r *http.Request, svc reconcile.Service) {
	s.finish(w, r, "suspend_user", svc.SuspendUser(r.Context(), chi.URLParam(r, "username")))
}

func (s *Server) handleUnsuspendUser(w http.ResponseWriter, r *http.Request, svc reconcile.Service) {
	s.finish(w, r, "unsuspend_user", svc.UnsuspendUser(r.Context(), chi.URLParam(r, "username")))
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request, svc reconcile.Service) {
	s.finish(w, r, "delete_user", svc.DeleteUser(r.Context(), chi.URLParam(r, "username")))
}
