package handlers

import (
	"net/http"

	"github.com/fedeportes/torneo-engine/services"
)

type StandingsHandler struct {
	groupService services.GroupService
}

func NewStandingsHandler(groupService services.GroupService) *StandingsHandler {
	return &StandingsHandler{groupService: groupService}
}

type initRoundRobinRequest struct {
	RegistrationRefs []int64 `json:"registration_refs"`
}

func (h *StandingsHandler) InitRoundRobinHandler(w http.ResponseWriter, r *http.Request) {
	phaseID, err := getIDFromURL(r, "phaseID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input initRoundRobinRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	standings, err := h.groupService.InitRoundRobin(r.Context(), phaseID, input.RegistrationRefs)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"standings": standings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StandingsHandler) RecomputeStandingsHandler(w http.ResponseWriter, r *http.Request) {
	phaseID, err := getIDFromURL(r, "phaseID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	standings, err := h.groupService.RecomputeStandings(r.Context(), phaseID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StandingsHandler) ListStandingsHandler(w http.ResponseWriter, r *http.Request) {
	phaseID, err := getIDFromURL(r, "phaseID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	standings, err := h.groupService.ListStandings(r.Context(), phaseID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type manualRankRequest struct {
	Position *int `json:"position"`
}

func (h *StandingsHandler) SetManualRankHandler(w http.ResponseWriter, r *http.Request) {
	phaseID, err := getIDFromURL(r, "phaseID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	registrationRef, err := getRefFromURL(r, "registrationRef")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input manualRankRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.groupService.SetManualRank(r.Context(), phaseID, registrationRef, input.Position); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"updated": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StandingsHandler) ClearManualRanksHandler(w http.ResponseWriter, r *http.Request) {
	phaseID, err := getIDFromURL(r, "phaseID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.groupService.ClearManualRanks(r.Context(), phaseID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"cleared": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
