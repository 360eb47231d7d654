package http

import (
	"net/http"

	"kantong/internal/core"
	"kantong/internal/log"
)

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request, uid string) {
	var d core.CategoryDraft
	if err := DecodeJSON(r, &d); err != nil {
		WriteError(r.Context(), w, err, log.OpCreate)
		return
	}
	c, err := s.svc.Categories.Create(r.Context(), uid, d)
	if err != nil {
		WriteError(r.Context(), w, err, log.OpCreate)
		return
	}
	Created(w, c)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request, uid string) {
	cats, err := s.svc.Categories.List(r.Context(), uid)
	if err != nil {
		WriteError(r.Context(), w, err, log.OpList)
		return
	}
	OK(w, cats)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request, uid string) {
	c, err := s.svc.Categories.Get(r.Context(), r.PathValue("id"), uid)
	if err != nil {
		WriteError(r.Context(), w, err, log.OpRead)
		return
	}
	OK(w, c)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request, uid string) {
	var p core.CategoryPatch
	if err := DecodeJSON(r, &p); err != nil {
		WriteError(r.Context(), w, err, log.OpUpdate)
		return
	}
	c, err := s.svc.Categories.Update(r.Context(), r.PathValue("id"), uid, p)
	if err != nil {
		WriteError(r.Context(), w, err, log.OpUpdate)
		return
	}
	OK(w, c)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request, uid string) {
	if err := s.svc.Categories.Remove(r.Context(), r.PathValue("id"), uid); err != nil {
		WriteError(r.Context(), w, err, log.OpDelete)
		return
	}
	Message(w, "Category deleted")
}
