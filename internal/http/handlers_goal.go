package http

import (
	"net/http"

	"kantong/internal/core"
	"kantong/internal/log"
)

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request, uid string) {
	var d core.GoalDraft
	if err := DecodeJSON(r, &d); err != nil {
		WriteError(r.Context(), w, err, log.OpCreate)
		return
	}
	g, err := s.svc.Goals.Create(r.Context(), uid, d)
	if err != nil {
		WriteError(r.Context(), w, err, log.OpCreate)
		return
	}
	Created(w, g)
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request, uid string) {
	goals, err := s.svc.Goals.List(r.Context(), uid)
	if err != nil {
		WriteError(r.Context(), w, err, log.OpList)
		return
	}
	OK(w, goals)
}

func (s *Server) handleListActiveGoals(w http.ResponseWriter, r *http.Request, uid string) {
	goals, err := s.svc.Goals.ListActive(r.Context(), uid)
	if err != nil {
		WriteError(r.Context(), w, err, log.OpList)
		return
	}
	OK(w, goals)
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request, uid string) {
	g, err := s.svc.Goals.Get(r.Context(), r.PathValue("id"), uid)
	if err != nil {
		WriteError(r.Context(), w, err, log.OpRead)
		return
	}
	OK(w, g)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request, uid string) {
	var p core.GoalPatch
	if err := DecodeJSON(r, &p); err != nil {
		WriteError(r.Context(), w, err, log.OpUpdate)
		return
	}
	g, err := s.svc.Goals.Update(r.Context(), r.PathValue("id"), uid, p)
	if err != nil {
		WriteError(r.Context(), w, err, log.OpUpdate)
		return
	}
	OK(w, g)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request, uid string) {
	res, err := s.svc.Goals.Remove(r.Context(), r.PathValue("id"), uid)
	if err != nil {
		WriteError(r.Context(), w, err, log.OpDelete)
		return
	}
	OK(w, res)
}

func (s *Server) handleAchieveGoal(w http.ResponseWriter, r *http.Request, uid string) {
	g, err := s.svc.Goals.MarkAsAchieved(r.Context(), r.PathValue("id"), uid)
	if err != nil {
		WriteError(r.Context(), w, err, log.OpAchieve)
		return
	}
	OK(w, g)
}

func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request, uid string) {
	p, err := s.svc.Goals.Progress(r.Context(), r.PathValue("id"), uid)
	if err != nil {
		WriteError(r.Context(), w, err, log.OpProgress)
		return
	}
	OK(w, p)
}
