package dataset

// Predicate selects table rows.
type Predicate func(Row) bool

// Comparison predicates are false for rows of a table without the column.

// Eq matches rows whose column equals v.
func Eq(column string, v float64) Predicate { return func(r Row) bool { return r.Value(column) == v } }

// Ne matches rows whose column differs from v.
func Ne(column string, v float64) Predicate {
	return func(r Row) bool {
		x, ok := r.Lookup(column)
		return ok && x != v
	}
}

// Lt matches rows whose column is below v.
func Lt(column string, v float64) Predicate { return func(r Row) bool { return r.Value(column) < v } }

// Le matches rows whose column is at most v.
func Le(column string, v float64) Predicate { return func(r Row) bool { return r.Value(column) <= v } }

// Gt matches rows whose column is above v.
func Gt(column string, v float64) Predicate { return func(r Row) bool { return r.Value(column) > v } }

// Ge matches rows whose column is at least v.
func Ge(column string, v float64) Predicate { return func(r Row) bool { return r.Value(column) >= v } }

// And is true when every predicate is true.
func And(preds ...Predicate) Predicate {
	return func(r Row) bool {
		for _, p := range preds {
			if !p(r) {
				return false
			}
		}
		return true
	}
}

// Or is true when any predicate is true.
func Or(preds ...Predicate) Predicate {
	return func(r Row) bool {
		for _, p := range preds {
			if p(r) {
				return true
			}
		}
		return false
	}
}

// Not negates p.
func Not(p Predicate) Predicate {
	return func(r Row) bool { return !p(r) }
}
