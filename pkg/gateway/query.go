package gateway

import (
	"fmt"

	"gorm.io/gorm"
)

type matchKind int

const (
	matchExact matchKind = iota
	// matchContains is a case sensitive substring match.
	matchContains
	// matchAfter and matchBefore are exclusive bounds.
	matchAfter
	matchBefore
)

type joinSpec struct {
	clause   string
	requires []string
	// fanOut joins can multiply result rows and force a DISTINCT select.
	fanOut bool
}

type field[F any] struct {
	name   string
	column string
	join   string
	match  matchKind
	value  func(F) (any, bool)
}

// queryPlan describes how the filters of one resource translate to SQL. A
// join is only added when a supplied filter needs a column it owns.
type queryPlan[F any] struct {
	joins  map[string]joinSpec
	fields []field[F]
}

type composed struct {
	db       *gorm.DB
	joins    []string
	distinct bool
}

func (p *queryPlan[F]) compose(tx *gorm.DB, filter F) composed {
	dialect := tx.Dialector.Name()
	out := composed{db: tx}
	added := map[string]bool{}

	var addJoin func(name string)
	addJoin = func(name string) {
		if name == "" || added[name] {
			return
		}
		spec, ok := p.joins[name]
		if !ok {
			panic(fmt.Sprintf("query plan has no join %q", name))
		}
		for _, req := range spec.requires {
			addJoin(req)
		}
		added[name] = true
		out.joins = append(out.joins, name)
		out.distinct = out.distinct || spec.fanOut
		out.db = out.db.Joins(spec.clause)
	}

	for _, f := range p.fields {
		v, ok := f.value(filter)
		if !ok {
			continue
		}
		addJoin(f.join)
		out.db = out.db.Where(predicate(dialect, f.column, f.match), v)
	}
	return out
}

func predicate(dialect, column string, match matchKind) string {
	switch match {
	case matchContains:
		if dialect == "postgres" {
			return fmt.Sprintf("strpos(%s, ?) > 0", column)
		}
		return fmt.Sprintf("instr(%s, ?) > 0", column)
	case matchAfter:
		return column + " > ?"
	case matchBefore:
		return column + " < ?"
	default:
		return column + " = ?"
	}
}

// opt adapts an optional filter field to a field value getter.
func opt[F any, V any](get func(F) *V) func(F) (any, bool) {
	return func(filter F) (any, bool) {
		v := get(filter)
		if v == nil {
			return nil, false
		}
		return *v, true
	}
}
