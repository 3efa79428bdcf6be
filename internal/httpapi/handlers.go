package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/spiralapp/journal/internal/common"
	"github.com/spiralapp/journal/internal/export"
	"github.com/spiralapp/journal/internal/logging"
	"github.com/spiralapp/journal/internal/session"
	"github.com/spiralapp/journal/internal/signup"
	"github.com/spiralapp/journal/internal/tasks"
	"github.com/spiralapp/journal/internal/theme"
)

// Handlers exposes the session and task operations over JSON. Session
// state is per request: stores() returns a fresh session store, resumed
// from the bearer token where needed, so concurrent clients never share
// mutable session state.
type Handlers struct {
	stores    func() *session.Store
	validator *signup.Validator
	tasks     *tasks.Repository
	exporter  *export.Service
	palette   theme.Palette
	metrics   *Metrics
	log       logging.Logger
}

func NewHandlers(stores func() *session.Store, validator *signup.Validator,
	repo *tasks.Repository, exporter *export.Service, palette theme.Palette,
	metrics *Metrics, log logging.Logger) *Handlers {
	return &Handlers{
		stores:    stores,
		validator: validator,
		tasks:     repo,
		exporter:  exporter,
		palette:   palette,
		metrics:   metrics,
		log:       log,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeDomainError maps a domain error to an HTTP status and its
// user-facing message. Backend detail never reaches the response body.
func writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrUsernameNotFound), errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrUsernameTaken), errors.Is(err, common.ErrCredentialFailed):
		status = http.StatusConflict
	case errors.Is(err, common.ErrIncorrectPassword),
		errors.Is(err, common.ErrUnauthorized),
		errors.Is(err, common.ErrInvalidToken):
		status = http.StatusUnauthorized
	case errors.Is(err, tasks.ErrEmptyTask), errors.Is(err, tasks.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, common.ErrTransient):
		status = http.StatusServiceUnavailable
	}
	writeError(w, status, common.UserMessage(err))
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return false
	}
	return true
}

type profileResponse struct {
	ID       string `json:"id"`
	FullName string `json:"fullname"`
	Email    string `json:"email"`
	UserName string `json:"username"`
	Initials string `json:"initials"`
}

type sessionResponse struct {
	Token   string          `json:"token"`
	Profile profileResponse `json:"profile"`
}

func toSessionResponse(sess *session.Session) sessionResponse {
	p := sess.Profile
	return sessionResponse{
		Token: sess.Token,
		Profile: profileResponse{
			ID:       p.ID,
			FullName: p.FullName,
			Email:    p.Email,
			UserName: p.UserName,
			Initials: p.Initials(),
		},
	}
}

type signUpRequest struct {
	FullName        string `json:"fullname"`
	UserName        string `json:"username"`
	Email           string `json:"email"`
	EmailConfirm    string `json:"email_confirm"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

func (h *Handlers) signUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !decode(w, r, &req) {
		return
	}

	result := h.validator.ValidateSignUp(r.Context(), signup.Input{
		FullName:    req.FullName,
		UserName:    req.UserName,
		EmailOne:    req.Email,
		EmailTwo:    req.EmailConfirm,
		PasswordOne: req.Password,
		PasswordTwo: req.PasswordConfirm,
	})
	if !result.OK {
		writeError(w, http.StatusUnprocessableEntity, result.Message)
		return
	}

	store := h.stores()
	if _, err := store.CreateAccount(r.Context(), req.Email, req.Password, req.FullName, req.UserName); err != nil {
		writeDomainError(w, err)
		return
	}

	sess, _ := store.Current()
	writeJSON(w, http.StatusCreated, toSessionResponse(sess))
}

type signInRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func (h *Handlers) signIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !decode(w, r, &req) {
		return
	}

	sess, err := h.stores().SignIn(r.Context(), req.Identifier, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

func (h *Handlers) signOut(w http.ResponseWriter, r *http.Request) {
	store, ok := h.resume(w, r)
	if !ok {
		return
	}
	store.SignOut(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) forgotEmail(w http.ResponseWriter, r *http.Request) {
	userName := r.URL.Query().Get("username")
	if userName == "" {
		writeError(w, http.StatusBadRequest, "Missing username.")
		return
	}

	email, err := h.stores().ResolveEmail(r.Context(), userName)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"email": email})
}

func (h *Handlers) getTheme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.palette)
}

// resume rebuilds the request's session from the verified bearer token.
func (h *Handlers) resume(w http.ResponseWriter, r *http.Request) (*session.Store, bool) {
	store := h.stores()
	if _, err := store.Resume(r.Context(), profileID(r)); err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	return store, true
}

func (h *Handlers) deleteAccount(w http.ResponseWriter, r *http.Request) {
	store, ok := h.resume(w, r)
	if !ok {
		return
	}

	if err := store.DeleteAccount(r.Context()); err != nil {
		h.log.Error(r.Context(), "account deletion incomplete", "profile_id", profileID(r), "error", err)
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) exportJournal(w http.ResponseWriter, r *http.Request) {
	key, err := h.exporter.Export(r.Context(), profileID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": key})
}

func (h *Handlers) updateUserName(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserName string `json:"username"`
	}
	if !decode(w, r, &req) {
		return
	}
	if msg := signup.ValidUsername(req.UserName); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	store, ok := h.resume(w, r)
	if !ok {
		return
	}
	if err := store.UpdateUserName(r.Context(), req.UserName); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) updateFullName(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName string `json:"fullname"`
	}
	if !decode(w, r, &req) {
		return
	}
	if msg := signup.ValidName(req.FullName); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	store, ok := h.resume(w, r)
	if !ok {
		return
	}
	if err := store.UpdateFullName(r.Context(), req.FullName); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) updateEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewEmail        string `json:"new_email"`
	}
	if !decode(w, r, &req) {
		return
	}
	if msg := signup.ValidEmail(req.NewEmail); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	store, ok := h.resume(w, r)
	if !ok {
		return
	}
	if err := store.UpdateEmail(r.Context(), req.CurrentPassword, req.NewEmail); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) updatePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if !decode(w, r, &req) {
		return
	}
	if msg := signup.ValidPassword(req.NewPassword); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	store, ok := h.resume(w, r)
	if !ok {
		return
	}
	if err := store.UpdatePassword(r.Context(), req.CurrentPassword, req.NewPassword); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) listDates(w http.ResponseWriter, r *http.Request) {
	dates, err := h.tasks.ListDates(r.Context(), profileID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if dates == nil {
		dates = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"dates": dates})
}

func (h *Handlers) listTasks(w http.ResponseWriter, r *http.Request) {
	entries, err := h.tasks.List(r.Context(), profileID(r), chi.URLParam(r, "date"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []tasks.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string][]tasks.Entry{"entries": entries})
}

func (h *Handlers) addTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Task string `json:"task"`
	}
	if !decode(w, r, &req) {
		return
	}

	entry, err := h.tasks.AddTask(r.Context(), profileID(r), chi.URLParam(r, "date"), req.Task)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.metrics.RecordTasksAdded(1)
	writeJSON(w, http.StatusCreated, entry)
}

func (h *Handlers) deleteTask(w http.ResponseWriter, r *http.Request) {
	err := h.tasks.DeleteTask(r.Context(), profileID(r), chi.URLParam(r, "date"), chi.URLParam(r, "entryID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.metrics.RecordTasksDeleted(1)
	w.WriteHeader(http.StatusNoContent)
}

// deleteMatching deletes every entry whose text equals the task query
// parameter. Duplicate texts all go: the response reports the count.
func (h *Handlers) deleteMatching(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("task")
	if text == "" {
		writeError(w, http.StatusBadRequest, "Missing task text.")
		return
	}

	n, err := h.tasks.DeleteMatching(r.Context(), profileID(r), chi.URLParam(r, "date"), text)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.metrics.RecordTasksDeleted(n)
	writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

func (h *Handlers) clearAll(w http.ResponseWriter, r *http.Request) {
	if err := h.tasks.ClearAll(r.Context(), profileID(r)); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// streamTasks serves the live subscription as Server-Sent Events: one
// snapshot event per change until the client disconnects.
func (h *Handlers) streamTasks(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported.")
		return
	}

	sub, err := h.tasks.Subscribe(r.Context(), profileID(r), chi.URLParam(r, "date"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	defer sub.Close()

	h.metrics.SubscriptionOpened()
	defer h.metrics.SubscriptionClosed()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	enc := json.NewEncoder(w)
	for snap := range sub.Updates() {
		if snap.Err != nil {
			if _, err := w.Write([]byte("event: error\ndata: {\"error\":\"snapshot failed\"}\n\n")); err != nil {
				return
			}
			flusher.Flush()
			continue
		}

		if _, err := w.Write([]byte("data: ")); err != nil {
			return
		}
		if err := enc.Encode(snap.Entries); err != nil {
			return
		}
		if _, err := w.Write([]byte("\n")); err != nil {
			return
		}
		flusher.Flush()
	}
}
