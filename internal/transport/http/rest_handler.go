package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"millionaire-service/internal/app"
	"millionaire-service/internal/domain"
	"millionaire-service/internal/game"
)

// UserHeader carries the caller's identity. It is trusted as is.
const UserHeader = "X-User-ID"

// RESTHandler exposes the game use cases over JSON.
type RESTHandler struct {
	service  *app.GameService
	validate *validator.Validate
	log      logrus.FieldLogger
}

func NewRESTHandler(service *app.GameService, log logrus.FieldLogger) *RESTHandler {
	return &RESTHandler{service: service, validate: newValidator(), log: log}
}

// RegisterRoutes mounts the REST endpoints on r.
func (h *RESTHandler) RegisterRoutes(r chi.Router) {
	r.Post("/users", h.registerUser)
	r.Get("/users/{id}", h.getUser)
	r.Get("/leaderboard", h.leaderboard)

	r.Route("/games", func(r chi.Router) {
		r.Use(requireUser)
		r.Post("/", h.createGame)
		r.Get("/{id}", h.getGame)
		r.Put("/{id}/answer", h.answer)
		r.Put("/{id}/take-money", h.takeMoney)
		r.Put("/{id}/help", h.help)
	})
}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(UserHeader) == "" {
			writeJSON(w, http.StatusUnauthorized, errorPayload{Message: "missing " + UserHeader + " header"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type userResponse struct {
	domain.User
	Games []GameView `json:"games"`
}

func (h *RESTHandler) registerUser(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.service.RegisterUser(r.Context(), req.ID, req.Name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *RESTHandler) getUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	user, err := h.service.User(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	games, err := h.service.Games(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resp := userResponse{User: user, Games: make([]GameView, 0, len(games))}
	for _, g := range games {
		resp.Games = append(resp.Games, newGameView(g))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *RESTHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.fail(w, r, fmt.Errorf("%w: limit must be a non-negative integer", errInvalidRequest))
			return
		}
		limit = n
	}
	lb, err := h.service.Leaderboard(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

func (h *RESTHandler) createGame(w http.ResponseWriter, r *http.Request) {
	g, err := h.service.CreateGameForUser(r.Context(), r.Header.Get(UserHeader))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newGameView(g))
}

func (h *RESTHandler) getGame(w http.ResponseWriter, r *http.Request) {
	g, err := h.service.Game(r.Context(), chi.URLParam(r, "id"), r.Header.Get(UserHeader))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newGameView(g))
}

type answerResponse struct {
	Correct bool     `json:"correct"`
	Game    GameView `json:"game"`
}

func (h *RESTHandler) answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !h.decode(w, r, &req) {
		return
	}
	g, correct, err := h.service.SubmitAnswer(r.Context(), chi.URLParam(r, "id"), r.Header.Get(UserHeader), req.Letter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, answerResponse{Correct: correct, Game: newGameView(g)})
}

func (h *RESTHandler) takeMoney(w http.ResponseWriter, r *http.Request) {
	g, err := h.service.CashOut(r.Context(), chi.URLParam(r, "id"), r.Header.Get(UserHeader))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newGameView(g))
}

func (h *RESTHandler) help(w http.ResponseWriter, r *http.Request) {
	var req helpRequest
	if !h.decode(w, r, &req) {
		return
	}
	lifeline, err := game.ParseLifeline(req.Type)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	g, err := h.service.UseLifeline(r.Context(), chi.URLParam(r, "id"), r.Header.Get(UserHeader), lifeline)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newGameView(g))
}

func (h *RESTHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.fail(w, r, fmt.Errorf("%w: malformed json", errInvalidRequest))
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.fail(w, r, validationError(err))
		return false
	}
	return true
}

func (h *RESTHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if statusFor(err) == http.StatusInternalServerError {
		h.log.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
	}
	writeError(w, err)
}
