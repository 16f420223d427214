package server

import (
	"direct-messages-api/internal/options"
	"direct-messages-api/internal/storage"
	"direct-messages-api/internal/validation"
	"github.com/valyala/fastjson"
	"net/http"
	"time"
)

const internalErrorMessage = "Internal server error"

// userValue renders u as a JSON object holding fields in provided order, all public fields when fields is empty.
// Password is never rendered.
func userValue(a *fastjson.Arena, u storage.User, fields []string) *fastjson.Value {
	if len(fields) == 0 {
		fields = options.Users.Fields
	}

	o := a.NewObject()
	for _, f := range fields {
		switch f {
		case "id":
			o.Set(f, a.NewNumberString(itoa(u.ID)))
		case "username":
			o.Set(f, a.NewString(u.Username))
		case "email":
			o.Set(f, a.NewString(u.Email))
		case "status":
			o.Set(f, boolValue(a, u.Status))
		case "created_at":
			o.Set(f, timeValue(a, u.CreatedAt))
		}
	}
	return o
}

// messageValue renders m as a JSON object holding fields in provided order, all fields when fields is empty
func messageValue(a *fastjson.Arena, m storage.Message, fields []string) *fastjson.Value {
	if len(fields) == 0 {
		fields = options.Messages.Fields
	}

	o := a.NewObject()
	for _, f := range fields {
		switch f {
		case "id":
			o.Set(f, a.NewNumberString(itoa(m.ID)))
		case "sender_id":
			o.Set(f, idValue(a, m.SenderID))
		case "receiver_id":
			o.Set(f, idValue(a, m.ReceiverID))
		case "subject":
			o.Set(f, a.NewString(m.Subject))
		case "body":
			o.Set(f, a.NewString(m.Body))
		case "read":
			o.Set(f, boolValue(a, m.Read))
		case "created_at":
			o.Set(f, timeValue(a, m.CreatedAt))
		}
	}
	return o
}

func usersValue(a *fastjson.Arena, users []storage.User, fields []string) *fastjson.Value {
	arr := a.NewArray()
	for i, u := range users {
		arr.SetArrayItem(i, userValue(a, u, fields))
	}
	return arr
}

func messagesValue(a *fastjson.Arena, messages []storage.Message, fields []string) *fastjson.Value {
	arr := a.NewArray()
	for i, m := range messages {
		arr.SetArrayItem(i, messageValue(a, m, fields))
	}
	return arr
}

// validationValue renders errs as {"field":["message", ...], ...} keeping field order
func validationValue(a *fastjson.Arena, errs validation.Errors) *fastjson.Value {
	o := a.NewObject()
	for _, fe := range errs {
		msgs := a.NewArray()
		for i, m := range fe.Messages {
			msgs.SetArrayItem(i, a.NewString(m))
		}
		o.Set(fe.Field, msgs)
	}
	return o
}

func idValue(a *fastjson.Arena, id *int64) *fastjson.Value {
	if id == nil {
		return a.NewNull()
	}
	return a.NewNumberString(itoa(*id))
}

func boolValue(a *fastjson.Arena, b bool) *fastjson.Value {
	if b {
		return a.NewTrue()
	}
	return a.NewFalse()
}

func timeValue(a *fastjson.Arena, t time.Time) *fastjson.Value {
	if t.IsZero() {
		return a.NewNull()
	}
	return a.NewString(t.UTC().Format(time.RFC3339))
}

// writeJSON writes v with provided status code
func writeJSON(w http.ResponseWriter, status int, v *fastjson.Value) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(v.MarshalTo(nil))
}

// writeErrorValue writes {"code":status,"message":msg}
func writeErrorValue(w http.ResponseWriter, status int, msg *fastjson.Value) {
	var a fastjson.Arena
	o := a.NewObject()
	o.Set("code", a.NewNumberInt(status))
	o.Set("message", msg)
	writeJSON(w, status, o)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	var a fastjson.Arena
	writeErrorValue(w, status, a.NewString(msg))
}
