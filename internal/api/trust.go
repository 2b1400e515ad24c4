package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/truetribe/backend/internal/badge"
	"github.com/truetribe/backend/internal/events"
	"github.com/truetribe/backend/internal/store"
	"github.com/truetribe/backend/internal/trust"
)

const (
	leaderboardMinScore = 80.0
	leaderboardLimit    = 50
)

type trustScoreResponse struct {
	BaseScore         float64   `json:"base_score"`
	VerificationBonus float64   `json:"verification_bonus"`
	ActivityScore     float64   `json:"activity_score"`
	CommunityScore    float64   `json:"community_score"`
	PenaltyScore      float64   `json:"penalty_score"`
	FinalScore        float64   `json:"final_score"`
	LastCalculated    time.Time `json:"last_calculated"`
}

func (s *Server) respondTrustScore(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	ts, _, err := s.store.GetOrCreateTrustScore(r.Context(), userID)
	if err != nil {
		s.logger.Error("trust score fetch failed", "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "trust score unavailable")
		return
	}
	writeJSON(w, http.StatusOK, trustScoreResponse{
		BaseScore:         ts.BaseScore,
		VerificationBonus: ts.VerificationBonus,
		ActivityScore:     ts.ActivityScore,
		CommunityScore:    ts.CommunityScore,
		PenaltyScore:      ts.PenaltyScore,
		FinalScore:        ts.FinalScore,
		LastCalculated:    ts.LastCalculated,
	})
}

func (s *Server) getOwnTrustScore(w http.ResponseWriter, r *http.Request) {
	s.respondTrustScore(w, r, Actor(r))
}

func (s *Server) getTrustScore(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if _, err := s.store.GetUser(r.Context(), userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	s.respondTrustScore(w, r, userID)
}

type recordActionRequest struct {
	ActionType  string  `json:"action_type"`
	ScoreChange float64 `json:"score_change"`
	Description string  `json:"description"`
}

func (s *Server) recordTrustAction(w http.ResponseWriter, r *http.Request) {
	var req recordActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.ActionType == "" {
		writeError(w, http.StatusBadRequest, "action_type required")
		return
	}
	action := trust.ActionType(req.ActionType)
	if !trust.ValidAction(action) {
		writeError(w, http.StatusBadRequest, "unknown action_type")
		return
	}

	a, err := s.recorder.RecordAction(r.Context(), Actor(r), action, req.ScoreChange, req.Description)
	if err != nil {
		s.logger.Error("record action failed", "actor", Actor(r), "error", err)
		writeError(w, http.StatusInternalServerError, "record action failed")
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// listTrustActions returns the authenticated user's audit log, newest
// first, with the total log length alongside the page.
func (s *Server) listTrustActions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 200 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	actor := Actor(r)
	actions, err := s.store.ListTrustActions(r.Context(), actor, limit)
	if err != nil {
		s.logger.Error("trust action list failed", "user", actor, "error", err)
		writeError(w, http.StatusInternalServerError, "trust actions unavailable")
		return
	}
	if actions == nil {
		actions = []store.TrustAction{}
	}
	total, err := s.store.CountTrustActions(r.Context(), actor)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "trust actions unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"actions": actions, "total": total})
}

type awardBadgeRequest struct {
	BadgeType string `json:"badge_type"`
}

func (s *Server) awardBadge(w http.ResponseWriter, r *http.Request) {
	var req awardBadgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.BadgeType == "" {
		writeError(w, http.StatusBadRequest, "badge_type required")
		return
	}

	user, err := s.store.GetUserByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	b, created, err := s.awarder.Award(r.Context(), user.ID, req.BadgeType)
	if err != nil {
		if errors.Is(err, badge.ErrUnknownBadge) {
			writeError(w, http.StatusBadRequest, "invalid badge type")
			return
		}
		s.logger.Error("badge award failed", "user", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "badge award failed")
		return
	}
	if !created {
		writeError(w, http.StatusConflict, "badge already exists")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) listOwnBadges(w http.ResponseWriter, r *http.Request) {
	s.respondBadges(w, r, Actor(r))
}

func (s *Server) listBadges(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.GetUserByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	s.respondBadges(w, r, user.ID)
}

func (s *Server) respondBadges(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	badges, err := s.store.ListBadges(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "badges unavailable")
		return
	}
	if badges == nil {
		badges = []store.Badge{}
	}
	writeJSON(w, http.StatusOK, badges)
}

func (s *Server) leaderboard(w http.ResponseWriter, r *http.Request) {
	if s.board != nil {
		if entries, ok := s.board.Get(r.Context()); ok {
			writeJSON(w, http.StatusOK, entries)
			return
		}
	}

	entries, err := s.store.Leaderboard(r.Context(), leaderboardMinScore, leaderboardLimit)
	if err != nil {
		s.logger.Error("leaderboard query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "leaderboard unavailable")
		return
	}
	if entries == nil {
		entries = []store.LeaderboardEntry{}
	}
	if s.board != nil {
		s.board.Set(r.Context(), entries)
	}
	writeJSON(w, http.StatusOK, entries)
}

var reportTypes = map[string]struct{}{
	"spam": {}, "harassment": {}, "fake_profile": {},
	"inappropriate": {}, "scam": {}, "other": {},
}

type createReportRequest struct {
	ReportedUserID string `json:"reported_user_id"`
	ReportType     string `json:"report_type"`
	Description    string `json:"description"`
}

func (s *Server) createReport(w http.ResponseWriter, r *http.Request) {
	var req createReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if _, ok := reportTypes[req.ReportType]; !ok {
		writeError(w, http.StatusBadRequest, "invalid report_type")
		return
	}
	reportedID, err := uuid.Parse(req.ReportedUserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid reported_user_id")
		return
	}

	report, err := s.store.CreateUserReport(r.Context(), Actor(r), reportedID, req.ReportType, req.Description)
	if err != nil {
		if errors.Is(err, store.ErrSelfAction) {
			writeError(w, http.StatusBadRequest, "cannot report yourself")
			return
		}
		s.logger.Error("report create failed", "reporter", Actor(r), "error", err)
		writeError(w, http.StatusInternalServerError, "report failed")
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (s *Server) listReports(w http.ResponseWriter, r *http.Request) {
	reports, err := s.store.ListReportsByReporter(r.Context(), Actor(r), 100)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "reports unavailable")
		return
	}
	if reports == nil {
		reports = []store.UserReport{}
	}
	writeJSON(w, http.StatusOK, reports)
}

// verifyScamReport resolves a pending scam report and publishes the
// event that applies the penalty to the reported user and the credit to
// the reporter.
func (s *Server) verifyScamReport(w http.ResponseWriter, r *http.Request) {
	reportID, err := uuid.Parse(chi.URLParam(r, "reportID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid report id")
		return
	}

	report, err := s.store.GetUserReport(r.Context(), reportID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "report not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if report.ReportType != "scam" {
		writeError(w, http.StatusBadRequest, "not a scam report")
		return
	}
	if report.Status != store.ReportStatusPending && report.Status != store.ReportStatusReviewing {
		writeError(w, http.StatusConflict, "report already resolved")
		return
	}

	if err := s.store.ResolveReport(r.Context(), reportID, Actor(r), store.ReportStatusResolved, "scam confirmed"); err != nil {
		s.logger.Error("report resolve failed", "report", reportID, "error", err)
		writeError(w, http.StatusInternalServerError, "resolve failed")
		return
	}

	s.publish(events.SubjectScamReportVerified, events.ScamReportVerified{
		ReportID:   report.ID.String(),
		ReporterID: report.ReporterID.String(),
		ReportedID: report.ReportedID.String(),
		ReviewerID: Actor(r).String(),
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "scam report verified"})
}
