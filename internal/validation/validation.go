// Package validation checks JSON request bodies against declarative per-endpoint rule sets.
//
// A rule set reports every violation it finds, never only the first one.
package validation

import (
	"errors"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/valyala/fastjson"
	"strings"
)

var validate = validator.New()

// Kind is the JSON type a field must have
type Kind int

const (
	KindString Kind = iota
	Integer
	Boolean
)

// Rule describes constraints of a single body field. Tag holds validator tags checked after the type, e.g. "min=6,max=60".
type Rule struct {
	Field    string
	Required bool
	Kind     Kind
	Tag      string
}

// RuleSet is an ordered list of rules for one endpoint
type RuleSet []Rule

// FieldError holds all messages produced for one field
type FieldError struct {
	Field    string
	Messages []string
}

// Errors is an ordered list of field errors returned by RuleSet.Validate
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+strings.Join(fe.Messages, " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validate checks body against every rule of rs and returns Errors if any of them fails.
// A null field is treated as a missing one.
func (rs RuleSet) Validate(body *fastjson.Value) error {
	var errs Errors
	for _, rule := range rs {
		if msgs := rule.check(body); len(msgs) > 0 {
			errs = append(errs, FieldError{Field: rule.Field, Messages: msgs})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (r Rule) check(body *fastjson.Value) []string {
	v := lookup(body, r.Field)
	if v == nil {
		if r.Required {
			return []string{fmt.Sprintf("The %s field is required.", attribute(r.Field))}
		}
		return nil
	}

	var value interface{}
	switch r.Kind {
	case KindString:
		if v.Type() != fastjson.TypeString {
			return []string{fmt.Sprintf("The %s must be a string.", attribute(r.Field))}
		}
		s := string(v.GetStringBytes())
		if r.Required && strings.TrimSpace(s) == "" {
			return []string{fmt.Sprintf("The %s field is required.", attribute(r.Field))}
		}
		value = s
	case Integer:
		n, err := v.Int64()
		if err != nil {
			return []string{fmt.Sprintf("The %s must be an integer.", attribute(r.Field))}
		}
		value = n
	case Boolean:
		b, ok := asBool(v)
		if !ok {
			return []string{fmt.Sprintf("The %s field must be true or false.", attribute(r.Field))}
		}
		value = b
	}

	if r.Tag == "" {
		return nil
	}
	err := validate.Var(value, r.Tag)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return []string{fmt.Sprintf("The %s is invalid.", attribute(r.Field))}
	}
	msgs := make([]string, 0, len(ves))
	for _, fe := range ves {
		msgs = append(msgs, message(r, fe.Tag(), fe.Param()))
	}
	return msgs
}

func message(r Rule, tag, param string) string {
	name := attribute(r.Field)
	switch tag {
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", name)
	case "min":
		if r.Kind == KindString {
			return fmt.Sprintf("The %s must be at least %s characters.", name, param)
		}
		return fmt.Sprintf("The %s must be at least %s.", name, param)
	case "max":
		if r.Kind == KindString {
			return fmt.Sprintf("The %s may not be greater than %s characters.", name, param)
		}
		return fmt.Sprintf("The %s may not be greater than %s.", name, param)
	case "gt":
		return fmt.Sprintf("The %s must be greater than %s.", name, param)
	default:
		return fmt.Sprintf("The %s is invalid.", name)
	}
}

// attribute turns field name into its human readable form, receiver_id -> receiver id
func attribute(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

func lookup(body *fastjson.Value, field string) *fastjson.Value {
	if body == nil || body.Type() != fastjson.TypeObject {
		return nil
	}
	v := body.Get(field)
	if v == nil || v.Type() == fastjson.TypeNull {
		return nil
	}
	return v
}

// asBool accepts true, false, 1, 0, "1" and "0"
func asBool(v *fastjson.Value) (bool, bool) {
	switch v.Type() {
	case fastjson.TypeTrue:
		return true, true
	case fastjson.TypeFalse:
		return false, true
	case fastjson.TypeNumber:
		switch v.String() {
		case "1":
			return true, true
		case "0":
			return false, true
		}
	case fastjson.TypeString:
		switch string(v.GetStringBytes()) {
		case "1":
			return true, true
		case "0":
			return false, true
		}
	}
	return false, false
}

// String returns field value if it is a string, nil otherwise
func String(body *fastjson.Value, field string) *string {
	v := lookup(body, field)
	if v == nil || v.Type() != fastjson.TypeString {
		return nil
	}
	s := string(v.GetStringBytes())
	return &s
}

// Int64 returns field value if it is an integer, nil otherwise
func Int64(body *fastjson.Value, field string) *int64 {
	v := lookup(body, field)
	if v == nil {
		return nil
	}
	n, err := v.Int64()
	if err != nil {
		return nil
	}
	return &n
}

// Bool returns field value if it is a boolean in any accepted form, nil otherwise
func Bool(body *fastjson.Value, field string) *bool {
	v := lookup(body, field)
	if v == nil {
		return nil
	}
	b, ok := asBool(v)
	if !ok {
		return nil
	}
	return &b
}
