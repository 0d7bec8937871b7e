package http

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"strings"

	"iq-quiz-service/internal/app"
	"iq-quiz-service/internal/domain"
)

// API exposes the quiz service over JSON HTTP.
type API struct {
	quiz     *app.QuizService
	feedback *app.FeedbackService
}

func NewAPI(quiz *app.QuizService, feedback *app.FeedbackService) *API {
	return &API{quiz: quiz, feedback: feedback}
}

// Register installs the API routes on mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/questions", a.handleGetQuestions)
	mux.HandleFunc("GET /api/questions/eligibility", a.handleEligibility)
	mux.HandleFunc("GET /api/questions/nickname-check", a.handleNicknameCheck)
	mux.HandleFunc("POST /api/results", a.handleSubmit)
	mux.HandleFunc("GET /api/results/ranking", a.handleRanking)
	mux.HandleFunc("GET /api/results/{shareToken}", a.handleGetResult)
	mux.HandleFunc("POST /api/feedbacks", a.handleSubmitFeedback)
}

type apiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (a *API) handleGetQuestions(w http.ResponseWriter, r *http.Request) {
	set, err := a.quiz.FetchQuestionSet(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, set)
}

func (a *API) handleEligibility(w http.ResponseWriter, r *http.Request) {
	writeOK(w, map[string]bool{"canSubmit": a.quiz.CheckEligibility(clientIP(r))})
}

func (a *API) handleNicknameCheck(w http.ResponseWriter, r *http.Request) {
	if err := a.quiz.CheckNickname(r.URL.Query().Get("nickname")); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, map[string]bool{"valid": true})
}

type submitRequest struct {
	Nickname     string              `json:"nickname"`
	Answers      []domain.AnswerItem `json:"answers"`
	SessionToken string              `json:"sessionToken"`
}

func (a *API) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.Validationf("malformed request body"))
		return
	}
	if req.SessionToken == "" {
		writeError(w, domain.Validationf("session token is required"))
		return
	}
	result, err := a.quiz.Submit(r.Context(), app.SubmitRequest{
		Nickname:     req.Nickname,
		Answers:      req.Answers,
		SessionToken: req.SessionToken,
		IP:           clientIP(r),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, result)
}

func (a *API) handleGetResult(w http.ResponseWriter, r *http.Request) {
	result, err := a.quiz.ResultByShareToken(r.Context(), r.PathValue("shareToken"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, result)
}

func (a *API) handleRanking(w http.ResponseWriter, r *http.Request) {
	lb, err := a.quiz.Leaderboard(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, lb)
}

type feedbackRequest struct {
	Content string `json:"content"`
}

func (a *API) handleSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.Validationf("malformed request body"))
		return
	}
	if err := a.feedback.Submit(r.Context(), req.Content, clientIP(r)); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, map[string]bool{"accepted": true})
}

func writeOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: data})
}

// writeError maps the error taxonomy onto HTTP statuses. Anything
// outside the taxonomy is internal: logged in full, opaque to the client.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrRateLimited):
		status = http.StatusTooManyRequests
	default:
		log.Printf("internal error: %v", err)
	}
	writeJSON(w, status, apiResponse{Success: false, Error: domain.Reason(err)})
}

func writeJSON(w http.ResponseWriter, status int, body apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}

// clientIP resolves the submitting address: X-Real-IP, then the first
// X-Forwarded-For hop, then the socket peer.
func clientIP(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// CORS wraps next with permissive headers for the configured origins.
func CORS(allowedOrigins []string, next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Max-Age", "3600")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
