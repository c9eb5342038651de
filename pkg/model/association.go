package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-openapi/inflect"
)

// AssociationKind enumerates the supported relation shapes.
type AssociationKind string

const (
	BelongsToKind           AssociationKind = "belongsTo"
	HasManyKind             AssociationKind = "hasMany"
	HasAndBelongsToManyKind AssociationKind = "hasAndBelongsToMany"
)

// Cardinality is derived from the kind unless set explicitly.
type Cardinality string

const (
	One  Cardinality = "one"
	Many Cardinality = "many"
)

// Association is the explicit descriptor for a relation between two models.
// It is populated when the model is defined and never derived at runtime.
//
// ForeignKey is interpreted per kind: the column on the owner table for
// belongsTo, the column on the target table for hasMany, and the owner column
// inside the join table for hasAndBelongsToMany.
type Association struct {
	Name                  string          `json:"name" yaml:"name"`
	Kind                  AssociationKind `json:"kind" yaml:"kind"`
	Cardinality           Cardinality     `json:"cardinality,omitempty" yaml:"cardinality"`
	Target                string          `json:"target,omitempty" yaml:"target"`
	ForeignKey            string          `json:"foreignKey,omitempty" yaml:"foreignKey"`
	JoinTable             string          `json:"joinTable,omitempty" yaml:"joinTable"`
	AssociationForeignKey string          `json:"associationForeignKey,omitempty" yaml:"associationForeignKey"`
	Optional              bool            `json:"optional,omitempty" yaml:"optional"`
	Polymorphic           bool            `json:"polymorphic,omitempty" yaml:"polymorphic"`
	TypeKey               string          `json:"typeKey,omitempty" yaml:"typeKey"`
	InverseOf             string          `json:"inverseOf,omitempty" yaml:"inverseOf"`
}

func BelongsTo(name, target string) Association {
	return Association{Name: name, Kind: BelongsToKind, Target: target}
}

func HasMany(name, target string) Association {
	return Association{Name: name, Kind: HasManyKind, Target: target}
}

func HasAndBelongsToMany(name, target string) Association {
	return Association{Name: name, Kind: HasAndBelongsToManyKind, Target: target}
}

func (a Association) WithForeignKey(column string) Association {
	a.ForeignKey = column
	return a
}

func (a Association) WithInverse(name string) Association {
	a.InverseOf = name
	return a
}

// WithJoinTable sets the join table and the target column inside it.
func (a Association) WithJoinTable(table, targetKey string) Association {
	a.JoinTable = table
	a.AssociationForeignKey = targetKey
	return a
}

func (a Association) AsOptional() Association {
	a.Optional = true
	return a
}

// AsPolymorphic marks a belongsTo whose target model is stored in typeKey.
func (a Association) AsPolymorphic(typeKey string) Association {
	a.Polymorphic = true
	a.TypeKey = typeKey
	a.Target = ""
	return a
}

// Many reports whether the association is collection-valued.
func (a Association) Many() bool {
	return a.Cardinality == Many || deriveCardinality(a.Kind) == Many
}

// NormalizeKind accepts the spellings used in YAML catalogs.
func NormalizeKind(raw string) (AssociationKind, bool) {
	switch strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.TrimSpace(raw))) {
	case "belongsto":
		return BelongsToKind, true
	case "hasmany":
		return HasManyKind, true
	case "hasandbelongstomany", "habtm", "manytomany":
		return HasAndBelongsToManyKind, true
	default:
		return "", false
	}
}

func deriveCardinality(kind AssociationKind) Cardinality {
	switch kind {
	case HasManyKind, HasAndBelongsToManyKind:
		return Many
	case BelongsToKind:
		return One
	default:
		return ""
	}
}

// normalize fills derived keys using the owner model's naming.
func (a Association) normalize(owner Model) (Association, error) {
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		return a, fmt.Errorf("model: %s declares an association without a name", owner.ID)
	}

	kind, ok := NormalizeKind(string(a.Kind))
	if !ok {
		return a, fmt.Errorf("model: %s.%s has unknown kind %q", owner.ID, a.Name, a.Kind)
	}
	a.Kind = kind

	derived := deriveCardinality(kind)
	if a.Cardinality == "" {
		a.Cardinality = derived
	}
	if a.Cardinality != derived {
		return a, fmt.Errorf("model: %s.%s cardinality %q conflicts with kind %s", owner.ID, a.Name, a.Cardinality, kind)
	}

	if a.Polymorphic && kind != BelongsToKind {
		return a, fmt.Errorf("model: %s.%s only belongsTo associations can be polymorphic", owner.ID, a.Name)
	}

	a.Target = strings.TrimSpace(a.Target)
	if a.Target == "" && !a.Polymorphic {
		switch kind {
		case BelongsToKind:
			a.Target = inflect.Camelize(a.Name)
		default:
			a.Target = inflect.Camelize(inflect.Singularize(a.Name))
		}
	}

	switch kind {
	case BelongsToKind:
		if a.ForeignKey == "" {
			a.ForeignKey = a.Name + "_id"
		}
		if a.Polymorphic && a.TypeKey == "" {
			a.TypeKey = a.Name + "_type"
		}
	case HasManyKind:
		if a.ForeignKey == "" {
			a.ForeignKey = owner.ParamKey() + "_id"
		}
	case HasAndBelongsToManyKind:
		if a.ForeignKey == "" {
			a.ForeignKey = owner.ParamKey() + "_id"
		}
		if a.AssociationForeignKey == "" {
			a.AssociationForeignKey = inflect.Underscore(a.Target) + "_id"
		}
		if a.JoinTable == "" {
			tables := []string{owner.TableName(), tableFor(a.Target)}
			sort.Strings(tables)
			a.JoinTable = strings.Join(tables, "_")
		}
	}

	return a, nil
}
