package server

import (
	"direct-messages-api/internal/logging"
	"direct-messages-api/internal/options"
	"direct-messages-api/internal/provider"
	"direct-messages-api/internal/validation"
	"errors"
	"github.com/go-chi/chi/v5"
	"github.com/valyala/fastjson"
	"go.uber.org/zap"
	"io"
	"net/http"
	"strconv"
)

const allowedMethods = "HEAD,GET,POST,PUT,DELETE,OPTIONS"

type handler struct {
	logger   *zap.SugaredLogger
	users    provider.Users
	messages provider.Messages
	parsers  fastjson.ParserPool
}

// body parses request body already checked by enforceJSON and validates it against rs
func (h *handler) body(w http.ResponseWriter, r *http.Request, rs validation.RuleSet) (*fastjson.Value, func(), bool) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Can not read request body")
		return nil, nil, false
	}

	parser := h.parsers.Get()
	release := func() { h.parsers.Put(parser) }

	v, err := parser.ParseBytes(raw)
	if err != nil {
		release()
		writeError(w, http.StatusBadRequest, "Malformed JSON")
		return nil, nil, false
	}

	if err := rs.Validate(v); err != nil {
		release()
		h.error(w, r, err)
		return nil, nil, false
	}

	return v, release, true
}

// error maps provider and validation errors to the error envelope, most specific kind first
func (h *handler) error(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		var a fastjson.Arena
		writeErrorValue(w, http.StatusBadRequest, validationValue(&a, verrs))
	case errors.Is(err, provider.ErrNotOwner):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, provider.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, provider.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logging.FromContext(r.Context(), h.logger).Errorf("%s %s: %v", r.Method, r.URL.Path, err)
		writeError(w, http.StatusInternalServerError, internalErrorMessage)
	}
}

// allow answers OPTIONS requests on every resource path
func (h *handler) allow(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Allow", allowedMethods)
	w.WriteHeader(http.StatusOK)
}

func (h *handler) notFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "Not found")
}

func (h *handler) methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Allow", allowedMethods)
	writeError(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
}

// listUsers handles GET /users
func (h *handler) listUsers(w http.ResponseWriter, r *http.Request) {
	o := options.Users.Parse(r.URL.Query(), options.Limit, options.Offset, options.Sort, options.Fields, options.Type)

	users, err := h.users.List(r.Context(), o)
	if err != nil {
		h.error(w, r, err)
		return
	}

	var a fastjson.Arena
	writeJSON(w, http.StatusOK, usersValue(&a, users, o.Fields))
}

// getUser handles GET /users/{uid}
func (h *handler) getUser(w http.ResponseWriter, r *http.Request) {
	o := options.Users.Parse(r.URL.Query(), options.Fields)

	u, err := h.users.Get(r.Context(), pathID(r, "uid"), o)
	if err != nil {
		h.error(w, r, err)
		return
	}

	var a fastjson.Arena
	writeJSON(w, http.StatusOK, userValue(&a, u, o.Fields))
}

// createUser handles POST /users
func (h *handler) createUser(w http.ResponseWriter, r *http.Request) {
	v, release, ok := h.body(w, r, validation.UserCreate)
	if !ok {
		return
	}
	c := credentials(v)
	release()

	u, err := h.users.Create(r.Context(), c)
	if err != nil {
		h.error(w, r, err)
		return
	}

	var a fastjson.Arena
	writeJSON(w, http.StatusCreated, userValue(&a, u, nil))
}

// replaceUser handles PUT /users/{uid}, a user with unknown id is created with a new id
func (h *handler) replaceUser(w http.ResponseWriter, r *http.Request) {
	v, release, ok := h.body(w, r, validation.UserReplace)
	if !ok {
		return
	}
	c := credentials(v)
	release()

	status := http.StatusOK
	u, err := h.users.Update(r.Context(), pathID(r, "uid"), c)
	if errors.Is(err, provider.ErrNotFound) {
		status = http.StatusCreated
		u, err = h.users.Create(r.Context(), c)
	}
	if err != nil {
		h.error(w, r, err)
		return
	}

	var a fastjson.Arena
	writeJSON(w, status, userValue(&a, u, nil))
}

// patchUser handles PATCH /users/{uid}
func (h *handler) patchUser(w http.ResponseWriter, r *http.Request) {
	v, release, ok := h.body(w, r, validation.UserPatch)
	if !ok {
		return
	}
	c := credentials(v)
	release()

	u, err := h.users.Update(r.Context(), pathID(r, "uid"), c)
	if err != nil {
		h.error(w, r, err)
		return
	}

	var a fastjson.Arena
	writeJSON(w, http.StatusOK, userValue(&a, u, nil))
}

// deleteUser handles DELETE /users/{uid}
func (h *handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), pathID(r, "uid")); err != nil {
		h.error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listMessages handles GET /users/{uid}/messages
func (h *handler) listMessages(w http.ResponseWriter, r *http.Request) {
	o := options.Messages.Parse(r.URL.Query(),
		options.Limit, options.Offset, options.Sort, options.Fields, options.Type, options.Status)

	messages, err := h.messages.List(r.Context(), pathID(r, "uid"), o)
	if err != nil {
		h.error(w, r, err)
		return
	}

	var a fastjson.Arena
	writeJSON(w, http.StatusOK, messagesValue(&a, messages, o.Fields))
}

// getMessage handles GET /users/{uid}/messages/{mid}
func (h *handler) getMessage(w http.ResponseWriter, r *http.Request) {
	o := options.Messages.Parse(r.URL.Query(), options.Fields)

	m, err := h.messages.Get(r.Context(), pathID(r, "uid"), pathID(r, "mid"), o)
	if err != nil {
		h.error(w, r, err)
		return
	}

	var a fastjson.Arena
	writeJSON(w, http.StatusOK, messageValue(&a, m, o.Fields))
}

// createMessage handles POST /users/{uid}/messages, the user from path is the sender
func (h *handler) createMessage(w http.ResponseWriter, r *http.Request) {
	v, release, ok := h.body(w, r, validation.MessageCreate)
	if !ok {
		return
	}
	data := provider.MessageData{
		ReceiverID: validation.Int64(v, "receiver_id"),
		Subject:    deref(validation.String(v, "subject")),
		Body:       deref(validation.String(v, "body")),
	}
	release()

	m, err := h.messages.Create(r.Context(), pathID(r, "uid"), data, nil)
	if err != nil {
		h.error(w, r, err)
		return
	}

	var a fastjson.Arena
	writeJSON(w, http.StatusOK, messageValue(&a, m, nil))
}

// updateMessage handles PUT and PATCH /users/{uid}/messages/{mid}
func (h *handler) updateMessage(w http.ResponseWriter, r *http.Request) {
	v, release, ok := h.body(w, r, validation.MessageUpdate)
	if !ok {
		return
	}
	read := validation.Bool(v, "read")
	release()

	m, err := h.messages.Update(r.Context(), pathID(r, "uid"), pathID(r, "mid"), provider.MessageUpdate{Read: *read})
	if err != nil {
		h.error(w, r, err)
		return
	}

	var a fastjson.Arena
	writeJSON(w, http.StatusOK, messageValue(&a, m, nil))
}

// deleteMessage handles DELETE /users/{uid}/messages/{mid}
func (h *handler) deleteMessage(w http.ResponseWriter, r *http.Request) {
	if _, err := h.messages.Delete(r.Context(), pathID(r, "uid"), pathID(r, "mid")); err != nil {
		h.error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// credentials copies user fields out of a validated body
func credentials(v *fastjson.Value) provider.Credentials {
	return provider.Credentials{
		Username: validation.String(v, "username"),
		Email:    validation.String(v, "email"),
		Password: validation.String(v, "password"),
		Status:   validation.Bool(v, "status"),
	}
}

// pathID returns path parameter name already checked by numericID
func pathID(r *http.Request, name string) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
