package handlers

import (
	"context"
	"net/http"

	"github.com/fedeportes/torneo-engine/services"
)

type BracketHandler struct {
	bracketService     services.BracketService
	progressionService services.ProgressionService
}

func NewBracketHandler(bracketService services.BracketService, progressionService services.ProgressionService) *BracketHandler {
	return &BracketHandler{
		bracketService:     bracketService,
		progressionService: progressionService,
	}
}

type buildBracketRequest struct {
	RegistrationRefs  []int64 `json:"registration_refs"`
	IncludeThirdPlace bool    `json:"include_third_place"`
}

func (h *BracketHandler) BuildBracketHandler(w http.ResponseWriter, r *http.Request) {
	phaseID, err := getIDFromURL(r, "phaseID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input buildBracketRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.bracketService.BuildBracket(r.Context(), phaseID, input.RegistrationRefs, input.IncludeThirdPlace)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type advanceWinnerRequest struct {
	WinnerRegistrationRef int64 `json:"winner_registration_ref"`
	Score1                *int  `json:"score1"`
	Score2                *int  `json:"score2"`
}

func (h *BracketHandler) AdvanceWinnerHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input advanceWinnerRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.progressionService.AdvanceWinner(r.Context(), matchID, input.WinnerRegistrationRef, input.Score1, input.Score2)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) ProcessByesHandler(w http.ResponseWriter, r *http.Request) {
	phaseID, err := getIDFromURL(r, "phaseID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	processed, err := h.progressionService.ProcessPhaseByes(r.Context(), phaseID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"processed_count": processed}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) GetBracketStructureHandler(w http.ResponseWriter, r *http.Request) {
	phaseID, err := getIDFromURL(r, "phaseID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	structure, err := h.bracketService.GetBracketStructure(r.Context(), phaseID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, structure, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) IsCompleteHandler(w http.ResponseWriter, r *http.Request) {
	phaseID, err := getIDFromURL(r, "phaseID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	complete, err := h.bracketService.IsBracketComplete(r.Context(), phaseID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"complete": complete}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) GetChampionHandler(w http.ResponseWriter, r *http.Request) {
	h.winnerLookup(w, r, h.bracketService.GetChampion, "champion")
}

func (h *BracketHandler) GetThirdPlaceHandler(w http.ResponseWriter, r *http.Request) {
	h.winnerLookup(w, r, h.bracketService.GetThirdPlace, "third_place")
}

func (h *BracketHandler) winnerLookup(w http.ResponseWriter, r *http.Request, lookup func(ctx context.Context, phaseID int) (int64, error), field string) {
	phaseID, err := getIDFromURL(r, "phaseID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	ref, err := lookup(r.Context(), phaseID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{field: ref}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
