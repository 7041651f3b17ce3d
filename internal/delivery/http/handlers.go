package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"matchchat/internal/models"

	"github.com/go-chi/chi/v5"
)

type sessionRequest struct {
	MatchID       int `json:"match_id"`
	CompetitionID int `json:"competition_id"`
	SeasonID      int `json:"season_id"`
}

func (r sessionRequest) ref() models.MatchRef {
	return models.MatchRef{MatchID: r.MatchID, CompetitionID: r.CompetitionID, SeasonID: r.SeasonID}
}

type askRequest struct {
	Question string `json:"question"`
}

type urlResponse struct {
	URL string `json:"url"`
}

type textResponse struct {
	Text string `json:"text"`
}

func (s *Server) listCompetitions(w http.ResponseWriter, r *http.Request) {
	comps, err := s.app.Data.Competitions(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comps)
}

func (s *Server) listMatches(w http.ResponseWriter, r *http.Request) {
	competitionID, err := intParam(r, "competitionID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	seasonID, err := intParam(r, "seasonID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	matches, err := s.app.Data.Matches(r.Context(), competitionID, seasonID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

func (s *Server) matchScore(w http.ResponseWriter, r *http.Request) {
	matchID, err := intParam(r, "matchID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	score, err := s.app.Stats.Score(r.Context(), matchID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, score)
}

func (s *Server) matchStats(w http.ResponseWriter, r *http.Request) {
	matchID, err := intParam(r, "matchID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	stats, err := s.app.Stats.TeamStats(r.Context(), matchID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) playerStats(w http.ResponseWriter, r *http.Request) {
	matchID, err := intParam(r, "matchID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	players, err := s.app.Stats.PlayerStats(r.Context(), matchID, q.Get("player"), q.Get("window"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, players)
}

func (s *Server) lineups(w http.ResponseWriter, r *http.Request) {
	matchID, err := intParam(r, "matchID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	xi, err := s.app.Stats.StartingXI(r.Context(), matchID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, xi)
}

func (s *Server) matchReport(w http.ResponseWriter, r *http.Request) {
	matchID, err := intParam(r, "matchID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	report, err := s.app.Stats.Report(r.Context(), matchID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) refreshMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := intParam(r, "matchID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ds, err := s.app.Data.Refresh(r.Context(), matchID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"match_id": ds.MatchID, "events": len(ds.Events)})
}

// createSession starts a session, optionally already pointed at a match.
func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	view := s.app.Sessions.GetOrCreate("")
	if req.MatchID > 0 {
		view = s.app.Sessions.SwitchMatch(view.ID, req.ref())
	}
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.app.Sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Chat.Forget(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) switchMatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	var req sessionRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.MatchID <= 0 {
		s.writeError(w, r, badRequest("match_id is required"))
		return
	}
	if _, err := s.app.Sessions.Get(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.app.Sessions.SwitchMatch(id, req.ref()))
}

func (s *Server) ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	answer, err := s.app.Chat.Ask(r.Context(), chi.URLParam(r, "sessionID"), req.Question)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (s *Server) turns(w http.ResponseWriter, r *http.Request) {
	turns, err := s.app.Sessions.History(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if turns == nil {
		turns = []models.Turn{}
	}
	writeJSON(w, http.StatusOK, turns)
}

func (s *Server) resetSession(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Sessions.Reset(chi.URLParam(r, "sessionID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) archive(w http.ResponseWriter, r *http.Request) {
	turns, err := s.app.Chat.ArchivedTurns(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, turns)
}

func (s *Server) commentary(w http.ResponseWriter, r *http.Request) {
	text, err := s.app.Chat.Commentary(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, textResponse{Text: text})
}

func (s *Server) exportJSON(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	data, err := s.app.Export.JSON(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", attachment(id, "json"))
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) exportExcel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	data, err := s.app.Export.Excel(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", attachment(id, "xlsx"))
	http.ServeContent(w, r, "chat.xlsx", time.Now(), bytes.NewReader(data))
}

func (s *Server) exportSheet(w http.ResponseWriter, r *http.Request) {
	url, err := s.app.Export.SyncSheet(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, urlResponse{URL: url})
}

func attachment(sessionID, ext string) string {
	return fmt.Sprintf(`attachment; filename="chat-%s.%s"`, sessionID, ext)
}
