package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/enkhjin/sportstream/internal/usecase"
)

func (h *Handler) ListUpcomingMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListUpcomingMatches")
	defer span.End()

	matches, err := h.matchService.ListUpcoming(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list upcoming matches failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchesToDTO(matches))
}

func (h *Handler) ListAllMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListAllMatches")
	defer span.End()

	matches, err := h.matchService.ListAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list matches failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchesToDTO(matches))
}

func (h *Handler) ListLiveMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLiveMatches")
	defer span.End()

	matches, err := h.matchService.ListLive(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list live matches failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchesToDTO(matches))
}

func (h *Handler) ListMatchesByLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatchesByLeague")
	defer span.End()

	leagueName := r.URL.Query().Get("league_name")

	var within time.Duration
	if raw := r.URL.Query().Get("within"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: within %q is not a duration", usecase.ErrInvalidInput, raw))
			return
		}
		within = parsed
	}

	matches, err := h.matchService.ListByLeagueName(ctx, leagueName, within)
	if err != nil {
		h.logger.WarnContext(ctx, "list matches by league failed", "league_name", leagueName, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchesToDTO(matches))
}

func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatch")
	defer span.End()

	matchID, err := pathMatchID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	m, err := h.matchService.Get(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "get match failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(m))
}

func (h *Handler) ListMatchStreamSources(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatchStreamSources")
	defer span.End()

	matchID, err := pathMatchID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	sources, err := h.matchService.ListStreamSources(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "list stream sources failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, streamSourcesToDTO(sources))
}

type createMatchRequest struct {
	LeagueID       int64      `json:"leagueId" validate:"required,gt=0"`
	Team1          string     `json:"team1" validate:"required"`
	Team2          string     `json:"team2"`
	SourceLink     string     `json:"sourceLink" validate:"required,url"`
	ScheduledStart time.Time  `json:"scheduledStart" validate:"required"`
	ExpectedEnd    *time.Time `json:"expectedEnd"`
	Description    string     `json:"description"`
}

func (h *Handler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateMatch")
	defer span.End()

	var req createMatchRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}

	created, err := h.matchService.Create(ctx, usecase.CreateMatchInput{
		LeagueID:       req.LeagueID,
		Team1:          req.Team1,
		Team2:          req.Team2,
		SourceLink:     req.SourceLink,
		ScheduledStart: req.ScheduledStart,
		ExpectedEnd:    req.ExpectedEnd,
		Description:    req.Description,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create match failed", "league_id", req.LeagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, matchToDTO(created))
}

type updateMatchRequest struct {
	LeagueID       *int64     `json:"leagueId" validate:"omitempty,gt=0"`
	Team1          *string    `json:"team1"`
	Team2          *string    `json:"team2"`
	SourceLink     *string    `json:"sourceLink" validate:"omitempty,url"`
	ScheduledStart *time.Time `json:"scheduledStart"`
	ExpectedEnd    *time.Time `json:"expectedEnd"`
	Description    *string    `json:"description"`
}

func (h *Handler) UpdateMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateMatch")
	defer span.End()

	matchID, err := pathMatchID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req updateMatchRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}

	updated, err := h.matchService.Update(ctx, matchID, usecase.UpdateMatchInput{
		LeagueID:       req.LeagueID,
		Team1:          req.Team1,
		Team2:          req.Team2,
		SourceLink:     req.SourceLink,
		ScheduledStart: req.ScheduledStart,
		ExpectedEnd:    req.ExpectedEnd,
		Description:    req.Description,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "update match failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(updated))
}

func (h *Handler) ListAllStreamSources(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListAllStreamSources")
	defer span.End()

	sources, err := h.matchService.ListAllStreamSources(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list all stream sources failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, streamSourcesToDTO(sources))
}

func (h *Handler) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteMatch")
	defer span.End()

	matchID, err := pathMatchID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.matchService.Delete(ctx, matchID); err != nil {
		h.logger.WarnContext(ctx, "delete match failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{"deleted": true, "id": matchID})
}
