// Package api provides the HTTP surface of the game server.
// GET endpoints are public scoreboard data; player endpoints authenticate
// with per-player credentials; admin endpoints (advance, reset, history,
// roster) require a bearer token. The core engine stays transport-free —
// this package only adapts it to JSON over HTTP plus a websocket event feed.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/boardroom/internal/citygen"
	"github.com/talgya/boardroom/internal/config"
	"github.com/talgya/boardroom/internal/engine"
	"github.com/talgya/boardroom/internal/game"
	"github.com/talgya/boardroom/internal/persistence"
)

// Server serves the game over HTTP.
type Server struct {
	Game     *engine.Game
	DB       *persistence.DB
	Hub      *Hub
	Addr     string
	AdminKey string // Bearer token for admin endpoints. Empty = admin disabled.

	// Reset parameters: roster size and market generation.
	Balance     config.Balance
	PlayerCount int
	Cities      int
	Seed        int64
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	go s.Hub.Run()

	slog.Info("HTTP API starting", "addr", s.Addr, "admin_auth", s.AdminKey != "")
	go func() {
		if err := http.ListenAndServe(s.Addr, s.Handler()); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	loginLimiter := NewRateLimiter(30, 10*time.Minute)

	mux := http.NewServeMux()

	// Public scoreboard endpoints.
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/markets", s.handleMarkets)
	mux.HandleFunc("/api/v1/standings", s.handleStandings)

	// Player endpoints (per-player credentials).
	mux.HandleFunc("/api/v1/login", RateLimitMiddleware(loginLimiter, s.handleLogin))
	mux.HandleFunc("/api/v1/decision", RateLimitMiddleware(loginLimiter, s.handleDecision))
	mux.HandleFunc("/api/v1/player/", s.handlePlayer)
	mux.HandleFunc("/api/v1/report/", s.handleReport)

	// Admin endpoints (bearer token).
	mux.HandleFunc("/api/v1/advance", s.adminOnly(s.handleAdvance))
	mux.HandleFunc("/api/v1/reset", s.adminOnly(s.handleReset))
	mux.HandleFunc("/api/v1/history", s.adminOnly(s.handleHistory))
	mux.HandleFunc("/api/v1/roster", s.adminOnly(s.handleRoster))

	// Websocket event feed.
	mux.HandleFunc("/ws", s.Hub.handleWS)

	return mux
}

// checkBearerToken returns true if the request carries the admin token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly requires a bearer token on every method.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no BOARDROOM_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// playerAuth authenticates the calling player from request headers.
func (s *Server) playerAuth(r *http.Request) (*game.Player, error) {
	id := r.Header.Get("X-Player-ID")
	password := r.Header.Get("X-Player-Password")
	if id == "" || password == "" {
		return nil, engine.ErrAuth
	}
	return s.Game.Authenticate(id, password)
}

// playerView is a player's own snapshot: no password, no other companies.
type playerView struct {
	ID                 string             `json:"player_id"`
	CompanyName        string             `json:"company_name"`
	Capital            float64            `json:"capital"`
	Debt               float64            `json:"debt"`
	NetAsset           float64            `json:"net_asset"`
	ProductionCapacity int                `json:"production_capacity"`
	Employees          int                `json:"employees"`
	ProductQuality     float64            `json:"product_quality"`
	StoresPerCity      map[string]int     `json:"stores_per_city"`
	Decision           game.RoundDecision `json:"decision"`
	Outcome            game.RoundOutcome  `json:"outcome"`
}

func viewOf(p *game.Player) playerView {
	// Hidden CPI is sold per city; the self view carries it only for cities
	// the player bought a report for. The full table stays on /report/{city}.
	outcome := p.Outcome
	outcome.HiddenCPIPerCity = purchasedHiddenCPI(p.Outcome)

	return playerView{
		ID:                 p.ID,
		CompanyName:        p.CompanyName,
		Capital:            p.Capital,
		Debt:               p.Debt,
		NetAsset:           p.NetAsset,
		ProductionCapacity: p.ProductionCapacity,
		Employees:          p.Employees,
		ProductQuality:     p.ProductQuality,
		StoresPerCity:      p.StoresPerCity,
		Decision:           p.Decision,
		Outcome:            outcome,
	}
}

func purchasedHiddenCPI(o game.RoundOutcome) map[string]float64 {
	var out map[string]float64
	for city, bought := range o.BoughtCityReports {
		if !bought {
			continue
		}
		if v, ok := o.HiddenCPIPerCity[city]; ok {
			if out == nil {
				out = make(map[string]float64)
			}
			out[city] = v
		}
	}
	return out
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	settings := s.Game.Settings()
	writeJSON(w, map[string]any{
		"name":         "Boardroom",
		"round":        s.Game.Round(),
		"total_rounds": settings.TotalRounds,
		"phase":        game.PhaseName(s.Game.Phase()),
		"players":      len(s.Game.Players()),
		"markets":      len(s.Game.Markets()),
	})
}

func (s *Server) handleMarkets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Game.Markets())
}

func (s *Server) handleStandings(w http.ResponseWriter, r *http.Request) {
	type standing struct {
		Rank        int     `json:"rank"`
		ID          string  `json:"player_id"`
		CompanyName string  `json:"company_name"`
		Capital     float64 `json:"capital"`
		Debt        float64 `json:"debt"`
		NetAsset    float64 `json:"net_asset"`
		LastProfit  float64 `json:"last_round_profit"`
		MarketShare float64 `json:"market_share"`
	}

	ranked := s.Game.Standings()
	out := make([]standing, 0, len(ranked))
	for i, p := range ranked {
		out = append(out, standing{
			Rank:        i + 1,
			ID:          p.ID,
			CompanyName: p.CompanyName,
			Capital:     p.Capital,
			Debt:        p.Debt,
			NetAsset:    p.NetAsset,
			LastProfit:  p.Outcome.Profit,
			MarketShare: p.Outcome.MarketShare,
		})
	}
	writeJSON(w, out)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		PlayerID string `json:"player_id"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}

	p, err := s.Game.Authenticate(req.PlayerID, req.Password)
	if err != nil {
		http.Error(w, "invalid player id or password", http.StatusUnauthorized)
		return
	}
	writeJSON(w, viewOf(p))
}

func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	p, err := s.playerAuth(r)
	if err != nil {
		http.Error(w, "invalid player id or password", http.StatusUnauthorized)
		return
	}

	var decision game.RoundDecision
	if err := json.NewDecoder(r.Body).Decode(&decision); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}

	if err := s.Game.SubmitDecision(p.ID, decision); err != nil {
		if ve, ok := engine.AsValidation(err); ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]any{
				"error": ve.Msg,
				"code":  ve.Code,
				"field": ve.Field,
			})
			return
		}
		if errors.Is(err, engine.ErrGameOver) {
			http.Error(w, "game is over", http.StatusConflict)
			return
		}
		slog.Error("submit decision failed", "player", p.ID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"accepted": true, "round": s.Game.Round() + 1})
}

// handlePlayer returns a player's own snapshot (GET /api/v1/player/{id}).
// Admins may read any player.
func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/player/")
	if id == "" {
		http.Error(w, "player id required", http.StatusBadRequest)
		return
	}

	if s.AdminKey != "" && s.checkBearerToken(r) {
		p, err := s.Game.Player(id)
		if err != nil {
			http.Error(w, "unknown player", http.StatusNotFound)
			return
		}
		writeJSON(w, viewOf(p))
		return
	}

	p, err := s.playerAuth(r)
	if err != nil || p.ID != id {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, viewOf(p))
}

// handleReport returns the hidden-CPI table for one city
// (GET /api/v1/report/{city}). Visible to admins and to players who bought
// that city's report in the last resolved round.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	city := strings.TrimPrefix(r.URL.Path, "/api/v1/report/")
	if city == "" {
		http.Error(w, "city required", http.StatusBadRequest)
		return
	}

	found := false
	for _, m := range s.Game.Markets() {
		if m.Name == city {
			found = true
			break
		}
	}
	if !found {
		http.Error(w, "unknown city", http.StatusNotFound)
		return
	}

	isAdmin := s.AdminKey != "" && s.checkBearerToken(r)
	if !isAdmin {
		p, err := s.playerAuth(r)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !p.Outcome.BoughtCityReports[city] {
			http.Error(w, "report not purchased for this city", http.StatusForbidden)
			return
		}
	}

	type reportRow struct {
		CompanyName string  `json:"company_name"`
		CPI         float64 `json:"cpi"`
		HiddenCPI   float64 `json:"hidden_cpi"`
		Sales       int     `json:"sales"`
	}
	var rows []reportRow
	for _, p := range s.Game.Players() {
		rows = append(rows, reportRow{
			CompanyName: p.CompanyName,
			CPI:         p.Outcome.CPIPerCity[city],
			HiddenCPI:   p.Outcome.HiddenCPIPerCity[city],
			Sales:       p.Outcome.SalesPerCity[city],
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].HiddenCPI > rows[j].HiddenCPI })

	writeJSON(w, map[string]any{
		"city":  city,
		"round": s.Game.Round(),
		"rows":  rows,
	})
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result, err := s.Game.AdvanceRound()
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrInsufficientData):
			http.Error(w, "no players or markets configured", http.StatusConflict)
		case errors.Is(err, engine.ErrGameOver):
			http.Error(w, "game is over", http.StatusConflict)
		default:
			slog.Error("advance round failed", "error", err)
			http.Error(w, "round not advanced: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	s.Hub.Broadcast(Event{Type: "round_resolved", Payload: map[string]any{
		"round":     result.Round,
		"game_over": result.GameOver,
	}})

	views := make([]playerView, 0, len(result.Players))
	for _, p := range result.Players {
		views = append(views, viewOf(p))
	}
	writeJSON(w, map[string]any{
		"round":     result.Round,
		"game_over": result.GameOver,
		"players":   views,
		"markets":   result.Markets,
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req := struct {
		Players int   `json:"players"`
		Cities  int   `json:"cities"`
		Seed    int64 `json:"seed"`
	}{Players: s.PlayerCount, Cities: s.Cities, Seed: s.Seed}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request body", http.StatusBadRequest)
			return
		}
	}
	if req.Players < 1 {
		http.Error(w, "players must be >= 1", http.StatusBadRequest)
		return
	}

	players := game.NewRoster(req.Players, s.Balance.Settings)
	markets := citygen.DefaultMarkets()
	if req.Seed != 0 {
		markets = citygen.Generate(citygen.GenConfig{Cities: req.Cities, Seed: req.Seed})
	}

	if err := s.Game.Reset(players, markets, s.Balance.Settings); err != nil {
		slog.Error("game reset failed", "error", err)
		http.Error(w, "reset failed", http.StatusInternalServerError)
		return
	}

	s.Hub.Broadcast(Event{Type: "game_reset", Payload: map[string]any{
		"players": len(players),
		"markets": len(markets),
	}})
	s.writeRoster(w)
}

// handleRoster returns the login sheet (ids + passwords) for distribution.
func (s *Server) handleRoster(w http.ResponseWriter, r *http.Request) {
	s.writeRoster(w)
}

func (s *Server) writeRoster(w http.ResponseWriter) {
	type credential struct {
		ID          string `json:"player_id"`
		CompanyName string `json:"company_name"`
		Password    string `json:"password"`
	}
	var creds []credential
	for _, p := range s.Game.Players() {
		creds = append(creds, credential{ID: p.ID, CompanyName: p.CompanyName, Password: p.Password})
	}
	writeJSON(w, creds)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries, err := s.DB.LoadHistory(limit)
	if err != nil {
		slog.Error("load history failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []game.RoundHistoryEntry{}
	}
	writeJSON(w, entries)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		slog.Debug("write response", "error", err)
	}
}
