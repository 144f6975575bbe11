package recommend

import (
	"context"
	"errors"
	"net/http"
	"sort"

	"crateapi/internal/httpx"
	"crateapi/internal/lastshown"
	"crateapi/internal/logging"
)

// CookieOptions controls the last-shown cookie.
type CookieOptions struct {
	Name   string
	Secure bool
}

type HTTPHandler struct {
	service *Service
	tracker *lastshown.Tracker
	cookie  CookieOptions
}

func NewHTTPHandler(service *Service, tracker *lastshown.Tracker, cookie CookieOptions) *HTTPHandler {
	if cookie.Name == "" {
		cookie.Name = "last_shown"
	}
	return &HTTPHandler{service: service, tracker: tracker, cookie: cookie}
}

type modeView struct {
	Mode Mode `json:"mode"`
	Policy
}

// Recommend handles GET /v1/recommendations?mode=&q=&market=&exclude=
func (h *HTTPHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := SourcingRequest{
		Mode:      Mode(query.Get("mode")),
		Query:     query.Get("q"),
		Market:    query.Get("market"),
		ExcludeID: query.Get("exclude"),
	}
	if req.ExcludeID == "" {
		if c, err := r.Cookie(h.cookie.Name); err == nil {
			req.ExcludeID = h.tracker.Read(c.Value, string(req.Mode.Family()))
		}
	}

	var user *User
	if id := httpx.UserIDFrom(r); id != "" {
		user = &User{ID: id, AccessToken: httpx.ProviderTokenFrom(r)}
	}

	res, err := h.service.Recommend(r.Context(), req, user)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if token, err := h.tracker.Write(string(res.Family), res.Candidate.ExternalID); err == nil {
		http.SetCookie(w, &http.Cookie{
			Name:     h.cookie.Name,
			Value:    token,
			Path:     "/",
			MaxAge:   int(h.tracker.TTL().Seconds()),
			HttpOnly: true,
			Secure:   h.cookie.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	} else {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("could not write last-shown token")
	}

	httpx.JSONSuccessWithRequest(r, w, res.Candidate, map[string]any{
		"mode":     res.Mode,
		"family":   res.Family,
		"attempts": res.Attempts,
	})
}

// Modes handles GET /v1/modes
func (h *HTTPHandler) Modes(w http.ResponseWriter, r *http.Request) {
	table := h.service.Modes()
	out := make([]modeView, 0, len(table))
	order := make(map[Mode]int, len(Modes))
	for i, m := range Modes {
		order[m] = i
	}
	for m, p := range table {
		out = append(out, modeView{Mode: m, Policy: p})
	}
	sort.Slice(out, func(i, j int) bool { return order[out[i].Mode] < order[out[j].Mode] })
	httpx.JSONSuccessWithRequest(r, w, out, nil)
}

// writeError is the single mapping from engine errors to HTTP responses.
func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, ErrUnauthenticated):
		httpx.JSONErrorWithRequest(r, w, http.StatusUnauthorized, "UNAUTHENTICATED", "Sign in with your music service to use this mode", nil)
	case errors.Is(err, ErrEmptyPool):
		httpx.JSONErrorWithRequest(r, w, http.StatusNotFound, "EMPTY_POOL", "Nothing matches this request", nil)
	case errors.Is(err, ErrRetriesExhausted):
		w.Header().Set("Retry-After", RetryAfterSeconds(err))
		httpx.JSONErrorWithRequest(r, w, http.StatusServiceUnavailable, "RETRIES_EXHAUSTED", "Could not find a candidate, try again", nil)
	case errors.Is(err, ErrNotFound):
		httpx.JSONErrorWithRequest(r, w, http.StatusNotFound, "NOT_FOUND", "Resource not found", nil)
	case errors.Is(err, context.Canceled):
		// client went away; nothing useful to write
	case errors.Is(err, context.DeadlineExceeded):
		httpx.JSONErrorWithRequest(r, w, http.StatusGatewayTimeout, "TIMEOUT", "Request timed out", nil)
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("recommendation failed")
		httpx.JSONErrorWithRequest(r, w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}
