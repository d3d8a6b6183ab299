package handlers

import (
	"net/http"

	"github.com/fedeportes/torneo-engine/services"
)

type SeriesHandler struct {
	seriesService services.SeriesService
}

func NewSeriesHandler(seriesService services.SeriesService) *SeriesHandler {
	return &SeriesHandler{seriesService: seriesService}
}

type initSeriesRequest struct {
	RegistrationRefs []int64 `json:"registration_refs"`
}

func (h *SeriesHandler) InitSeriesHandler(w http.ResponseWriter, r *http.Request) {
	phaseID, err := getIDFromURL(r, "phaseID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input initSeriesRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.seriesService.InitBestOf3(r.Context(), phaseID, input.RegistrationRefs)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type seriesResultRequest struct {
	WinnerRegistrationRef int64 `json:"winner_registration_ref"`
}

func (h *SeriesHandler) RecordSeriesResultHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input seriesResultRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.seriesService.RecordSeriesResult(r.Context(), matchID, input.WinnerRegistrationRef)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
