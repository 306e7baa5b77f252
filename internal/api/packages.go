package api

import (
	"net/http"
	"strings"

	"github.com/fgeck/panelsync/internal/models"
	"github.com/fgeck/panelsync/internal/services/reconcile"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListPackages(w http.ResponseWriter, r *http.Request, svc reconcile.Service) {
	pkgs, err := svc.ListPackages(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, pkgs)
}

func (s *Server) handleGetPackage(w http.ResponseWriter, r *http.Request, svc reconcile.Service) {
	details, err := svc.GetPackageDetails(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, details)
}

func (s *Server) handleCreatePackage(w http.ResponseWriter, r *http.Request, svc reconcile.Service) {
	var pkg models.Package
	if err := decodeJSON(r, &pkg); err != nil {
		respondError(w, err)
		return
	}
	pkg.Name = strings.TrimSpace(pkg.Name)
	if pkg.Name == "" {
		respondError(w, badRequest("package name is required"))
		return
	}
	s.finish(w, r, "create_package", svc.CreatePackage(r.Context(), pkg))
}

// handleUpdatePackage renames when the body carries a different name.
func (s *Server) handleUpdatePackage(w http.ResponseWriter, r *http.Request, svc reconcile.Service) {
	name := chi.URLParam(r, "name")
	var pkg models.Package
	if err := decodeJSON(r, &pkg); err != nil {
		respondError(w, err)
		return
	}

	newName := strings.TrimSpace(pkg.Name)
	if newName != "" && newName != name {
		s.finish(w, r, "rename_package", svc.RenamePackage(r.Context(), name, newName, pkg))
		return
	}
	s.finish(w, r, "update_package", svc.UpdatePackage(r.Context(), name, pkg))
}

func (s *Server) handleDeletePackage(w http.ResponseWriter, r *http.Request, svc reconcile.Service) {
	s.finish(w, r, "delete_package", svc.DeletePackage(r.Context(), chi.URLParam(r, "name")))
}
