package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"match-ledger/internal/domain"
	"match-ledger/internal/service"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
)

// LedgerServer exposes the ledger over JSON HTTP.
type LedgerServer struct {
	matches      *service.MatchService
	squads       *service.SquadResolver
	teams        *service.TeamService
	participants *service.ParticipantService
	flairs       *service.FlairService
	logger       zerolog.Logger
}

func NewLedgerServer(
	matches *service.MatchService,
	squads *service.SquadResolver,
	teams *service.TeamService,
	participants *service.ParticipantService,
	flairs *service.FlairService,
	logger zerolog.Logger,
) *LedgerServer {
	return &LedgerServer{
		matches:      matches,
		squads:       squads,
		teams:        teams,
		participants: participants,
		flairs:       flairs,
		logger:       logger,
	}
}

func (s *LedgerServer) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.health)

	mux.HandleFunc("POST /v1/matches", s.createMatch)
	mux.HandleFunc("GET /v1/matches/{id}", s.getMatch)
	mux.HandleFunc("DELETE /v1/matches/{id}", s.deleteMatch)
	mux.HandleFunc("POST /v1/matches/{id}/winner", s.finalizeMatch)
	mux.HandleFunc("POST /v1/matches/{id}/confirm", s.confirmMatch)
	mux.HandleFunc("GET /v1/matches/{id}/side", s.sideFor)
	mux.HandleFunc("PUT /v1/matches/{id}/participants/{participant}/flair", s.setParticipationFlair)
	mux.HandleFunc("DELETE /v1/sides/{id}", s.removeSide)

	mux.HandleFunc("POST /v1/squads/find", s.findSquad)

	mux.HandleFunc("GET /v1/namespaces/{ns}/teams/{name}", s.findTeam)
	mux.HandleFunc("PUT /v1/namespaces/{ns}/teams/{name}", s.upsertTeam)
	mux.HandleFunc("PUT /v1/namespaces/{ns}/flairs/{tribe}", s.upsertFlair)
	mux.HandleFunc("GET /v1/namespaces/{ns}/participants", s.lookupParticipants)
	mux.HandleFunc("PUT /v1/namespaces/{ns}/participants/{external_id}/profile", s.setIngameProfile)
	mux.HandleFunc("GET /v1/namespaces/{ns}/participants/{id}/history", s.ratingHistory)

	return mux
}

func (s *LedgerServer) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *LedgerServer) createMatch(w http.ResponseWriter, r *http.Request) {
	var in service.CreateMatchInput
	if !decode(w, r, &in) {
		return
	}
	detail, err := s.matches.CreateMatch(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMatchView(detail))
}

func (s *LedgerServer) getMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	detail, err := s.matches.GetMatch(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMatchView(detail))
}

func (s *LedgerServer) deleteMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.matches.DeleteMatch(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type finalizeRequest struct {
	SideID  int64 `json:"side_id"`
	Confirm bool  `json:"confirm"`
}

func (s *LedgerServer) finalizeMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req finalizeRequest
	if !decode(w, r, &req) {
		return
	}
	detail, err := s.matches.FinalizeMatch(r.Context(), id, req.SideID, req.Confirm)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMatchView(detail))
}

func (s *LedgerServer) confirmMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	detail, err := s.matches.ConfirmMatch(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMatchView(detail))
}

func (s *LedgerServer) sideFor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	q := r.URL.Query()
	side, err := s.matches.SideFor(r.Context(), id, q.Get("namespace"), service.SideQuery{
		Participant: q.Get("player"),
		Team:        q.Get("team"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSideView(*side))
}

type flairRequest struct {
	Tribe string `json:"tribe"`
	Emoji string `json:"emoji"`
}

func (s *LedgerServer) setParticipationFlair(w http.ResponseWriter, r *http.Request) {
	matchID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	participantID, ok := pathID(w, r, "participant")
	if !ok {
		return
	}
	var req flairRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.flairs.SetParticipationFlair(r.Context(), matchID, participantID, req.Tribe); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *LedgerServer) removeSide(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.matches.RemoveSide(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type findSquadRequest struct {
	Namespace   string   `json:"namespace"`
	ExternalIDs []string `json:"external_ids"`
}

func (s *LedgerServer) findSquad(w http.ResponseWriter, r *http.Request) {
	var req findSquadRequest
	if !decode(w, r, &req) {
		return
	}
	squad, err := s.squads.FindByExternalIDs(r.Context(), req.Namespace, req.ExternalIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if squad == nil {
		writeError(w, r, domain.NotFoundf("these participants have not played together"))
		return
	}
	writeJSON(w, http.StatusOK, toSquadView(*squad))
}

func (s *LedgerServer) findTeam(w http.ResponseWriter, r *http.Request) {
	ns, name := r.PathValue("ns"), r.PathValue("name")
	team, err := s.teams.FindTeam(r.Context(), name, ns)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if team == nil {
		writeError(w, r, domain.NotFoundf("no team %q in %s", name, ns))
		return
	}
	writeJSON(w, http.StatusOK, toTeamView(*team))
}

type teamRequest struct {
	Emoji    string `json:"emoji"`
	ImageURL string `json:"image_url"`
}

func (s *LedgerServer) upsertTeam(w http.ResponseWriter, r *http.Request) {
	var req teamRequest
	if !decode(w, r, &req) {
		return
	}
	team, err := s.teams.UpsertTeam(r.Context(), r.PathValue("ns"), r.PathValue("name"), req.Emoji, req.ImageURL)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTeamView(*team))
}

func (s *LedgerServer) upsertFlair(w http.ResponseWriter, r *http.Request) {
	var req flairRequest
	if !decode(w, r, &req) {
		return
	}
	flair, err := s.flairs.UpsertFlair(r.Context(), r.PathValue("ns"), r.PathValue("tribe"), req.Emoji)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, flairView{ID: flair.ID, Tribe: flair.Tribe, Emoji: flair.Emoji})
}

// lookupParticipants lists every match of ?q. With ?first=true it answers
// with the single best guess instead.
func (s *LedgerServer) lookupParticipants(w http.ResponseWriter, r *http.Request) {
	ns, q := r.PathValue("ns"), r.URL.Query().Get("q")
	if r.URL.Query().Get("first") == "true" {
		p, err := s.participants.LookupFirst(r.Context(), ns, q)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toParticipantView(*p))
		return
	}

	found, err := s.participants.Lookup(r.Context(), ns, q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]participantView, len(found))
	for i, p := range found {
		views[i] = toParticipantView(p)
	}
	writeJSON(w, http.StatusOK, views)
}

type profileRequest struct {
	IngameName string `json:"ingame_name"`
	IngameID   string `json:"ingame_id"`
}

func (s *LedgerServer) setIngameProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !decode(w, r, &req) {
		return
	}
	err := s.participants.SetIngameProfile(r.Context(), r.PathValue("ns"), r.PathValue("external_id"), req.IngameName, req.IngameID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *LedgerServer) ratingHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	changes, err := s.participants.RatingHistory(r.Context(), r.PathValue("ns"), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]ratingChangeView, len(changes))
	for i, c := range changes {
		views[i] = toRatingChangeView(c)
	}
	writeJSON(w, http.StatusOK, views)
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// StatusFor maps ledger error kinds onto HTTP statuses.
func StatusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindUnsupportedTopology, domain.KindAlreadyFinalized:
		return http.StatusConflict
	case domain.KindAffiliationConflict:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	logger := zerolog.Ctx(r.Context())

	var ledgerErr *domain.Error
	if !errors.As(err, &ledgerErr) {
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}

	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("ledger inconsistency")
	} else {
		logger.Debug().Err(err).Int("status", status).Msg("request rejected")
	}
	writeJSON(w, status, errorResponse{Error: ledgerErr.Msg, Kind: string(ledgerErr.Kind)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, r, domain.Validationf("invalid request body: %v", err))
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, domain.Validationf("invalid %s %q", name, r.PathValue(name)))
		return 0, false
	}
	return id, true
}

// Addr formats the listen address for a port.
func Addr(port string) string {
	return fmt.Sprintf(":%s", port)
}
