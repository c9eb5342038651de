package field

import "slices"

// Action is a view the admin renders a field in.
type Action string

const (
	Edit  Action = "edit"
	New   Action = "new"
	Index Action = "index"
	Show  Action = "show"
)

// Actions lists every valid action in canonical order.
func Actions() []Action {
	return []Action{Edit, New, Index, Show}
}

// ParseAction validates an untrusted action name.
func ParseAction(raw string) (Action, bool) {
	action := Action(raw)
	if slices.Contains(Actions(), action) {
		return action, true
	}
	return "", false
}

// Kind is the type tag used to pick a field's components.
type Kind string

const (
	KindBlank               Kind = "blank"
	KindBoolean             Kind = "boolean"
	KindDate                Kind = "date"
	KindDateTime            Kind = "date_time"
	KindFile                Kind = "file"
	KindImage               Kind = "image"
	KindID                  Kind = "id"
	KindNumber              Kind = "number"
	KindString              Kind = "string"
	KindText                Kind = "text"
	KindBelongsTo           Kind = "belongs_to"
	KindHasMany             Kind = "has_many"
	KindHasAndBelongsToMany Kind = "has_and_belongs_to_many"
)

type kindDefaults struct {
	on          []Action
	searchable  bool
	sortable    bool
	association bool
	many        bool
}

var baseDefaults = kindDefaults{on: Actions(), sortable: true}

var defaults = map[Kind]kindDefaults{
	KindBlank:               baseDefaults,
	KindBoolean:             baseDefaults,
	KindDate:                baseDefaults,
	KindDateTime:            baseDefaults,
	KindNumber:              baseDefaults,
	KindFile:                {on: Actions()},
	KindImage:               {on: Actions()},
	KindID:                  {on: []Action{Index, Show}, searchable: true, sortable: true},
	KindString:              {on: Actions(), searchable: true, sortable: true},
	KindText:                {on: Actions(), searchable: true, sortable: true},
	KindBelongsTo:           {on: Actions(), association: true},
	KindHasMany:             {on: Actions(), association: true, many: true},
	KindHasAndBelongsToMany: {on: Actions(), association: true, many: true},
}

// Kinds returns the built-in kinds.
func Kinds() []Kind {
	out := make([]Kind, 0, len(defaults))
	for kind := range defaults {
		out = append(out, kind)
	}
	slices.Sort(out)
	return out
}

func defaultsFor(kind Kind) kindDefaults {
	if d, ok := defaults[kind]; ok {
		return d
	}
	return baseDefaults
}
