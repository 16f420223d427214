package options

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

type parseFunc func(r Resource, raw string, o *Options)

// parsers is a static dispatch table: option name -> parse rule
var parsers = map[Name]parseFunc{
	Limit:  parseLimit,
	Offset: parseOffset,
	Sort:   parseSort,
	Fields: parseFields,
	Type:   parseType,
	Status: parseStatus,
}

// Parse reads declared options from raw query parameters. Options which are not declared,
// absent or empty keep the resource defaults.
func (r Resource) Parse(raw url.Values, names ...Name) Options {
	o := r.Defaults()
	for _, name := range names {
		value := raw.Get(string(name))
		if len(value) == 0 {
			continue
		}
		if parse, ok := parsers[name]; ok {
			parse(r, value, &o)
		}
	}
	return o
}

func parseLimit(r Resource, raw string, o *Options) {
	o.Limit = r.DefaultLimit
	if n, ok := parseNumber(raw); ok && n > 0 && n <= r.MaxLimit {
		o.Limit = n
	}
}

func parseOffset(_ Resource, raw string, o *Options) {
	o.Offset = 0
	if n, ok := parseNumber(raw); ok && n >= 0 {
		o.Offset = n
	}
}

func parseFields(r Resource, raw string, o *Options) {
	var fields []string
	for _, f := range splitList(raw) {
		if contains(r.Fields, f) && !contains(fields, f) {
			fields = append(fields, f)
		}
	}
	o.Fields = fields
}

func parseSort(r Resource, raw string, o *Options) {
	var sort []Order
outer:
	for _, entry := range splitList(raw) {
		field, direction, ok := strings.Cut(entry, ":")
		if !ok || !contains(r.SortKeys, field) || (direction != SortAsc && direction != SortDesc) {
			continue
		}
		for i := range sort {
			if sort[i].Field == field {
				sort[i].Direction = direction
				continue outer
			}
		}
		sort = append(sort, Order{Field: field, Direction: direction})
	}
	o.Sort = sort
}

func parseType(r Resource, raw string, o *Options) {
	o.Type = r.DefaultType
	if contains(r.Types, raw) {
		o.Type = raw
	}
}

func parseStatus(_ Resource, raw string, o *Options) {
	switch raw {
	case "unread":
		o.Status = Unread
	case "read":
		o.Status = Read
	default:
		o.Status = AnyStatus
	}
}

// splitList splits comma separated list, collapsing repeated commas and trimming entries
func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseNumber accepts any decimal notation ("7", " 7", "7.9", "7e1") and truncates it toward zero
func parseNumber(raw string) (int, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	f = math.Trunc(f)
	if math.Abs(f) > 1<<53 {
		return 0, false
	}
	return int(f), true
}
