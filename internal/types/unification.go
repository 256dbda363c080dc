package types

import "fmt"

// Subst maps a unification variable's id to the type it was bound to.
// Grounded on the teacher's Substitution map (internal/types/unification.go),
// adapted from name-keyed to the spec's integer-keyed variable scheme.
type Subst map[int]Ty

// InferCtx owns a single mutable substitution for one in-flight body check.
// Single-writer, per spec.md §5: the checker that created it is the only
// thing that mutates it.
type InferCtx struct {
	subst  Subst
	nextTV int
}

// NewInferCtx creates a fresh inference context with an empty substitution.
func NewInferCtx() *InferCtx {
	return &InferCtx{subst: make(Subst)}
}

// NewVar returns a fresh type variable.
func (c *InferCtx) NewVar() Var {
	v := Var{ID: c.nextTV}
	c.nextTV++
	return v
}

// ResolveIfPossible performs the shallow chase described in spec.md §4.4:
// if t is a variable bound in the substitution, replace and recurse;
// otherwise return t unchanged. Fields nested inside t are NOT deeply
// resolved here — that is the job of the end-of-body resolver pass.
func (c *InferCtx) ResolveIfPossible(t Ty) Ty {
	for {
		v, ok := t.(Var)
		if !ok {
			return t
		}
		bound, ok := c.subst[v.ID]
		if !ok {
			return t
		}
		t = bound
	}
}

// MismatchError reports that two types could not be unified.
type MismatchError struct {
	Expected, Actual Ty
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("expected %s, found %s", e.Expected, e.Actual)
}

// OccursError reports a cyclic variable binding.
type OccursError struct {
	Var Var
	In  Ty
}

func (e *OccursError) Error() string {
	return fmt.Sprintf("%s occurs in %s", e.Var, e.In)
}

// Assign unifies actual against expected, the direction spec.md's contracts
// call assign(expected, actual). Any unification touching an error type
// succeeds silently — this is the error-sentinel discipline from spec.md §7.
func (c *InferCtx) Assign(expected, actual Ty) error {
	expected = c.ResolveIfPossible(expected)
	actual = c.ResolveIfPossible(actual)

	if IsError(expected) || IsError(actual) {
		return nil
	}

	if ev, ok := expected.(Var); ok {
		if av, ok := actual.(Var); ok && av.ID == ev.ID {
			return nil
		}
		if c.occurs(ev, actual) {
			return &OccursError{Var: ev, In: actual}
		}
		c.subst[ev.ID] = actual
		return nil
	}
	if av, ok := actual.(Var); ok {
		if c.occurs(av, expected) {
			return &OccursError{Var: av, In: expected}
		}
		c.subst[av.ID] = expected
		return nil
	}

	// never unifies with anything, one-sided.
	if IsPrim(expected, Never) || IsPrim(actual, Never) {
		return nil
	}

	switch e := expected.(type) {
	case Prim:
		a, ok := actual.(Prim)
		if !ok || a.Kind != e.Kind {
			return &MismatchError{Expected: expected, Actual: actual}
		}
		return nil

	case Tuple:
		a, ok := actual.(Tuple)
		if !ok || len(a.Elems) != len(e.Elems) {
			return &MismatchError{Expected: expected, Actual: actual}
		}
		for i := range e.Elems {
			if err := c.Assign(e.Elems[i], a.Elems[i]); err != nil {
				return err
			}
		}
		return nil

	case RawPtr:
		a, ok := actual.(RawPtr)
		if !ok {
			return &MismatchError{Expected: expected, Actual: actual}
		}
		return c.Assign(e.Inner, a.Inner)

	case Fn:
		a, ok := actual.(Fn)
		if !ok || len(a.Params) != len(e.Params) {
			return &MismatchError{Expected: expected, Actual: actual}
		}
		for i := range e.Params {
			if err := c.Assign(e.Params[i], a.Params[i]); err != nil {
				return err
			}
		}
		return c.Assign(e.Ret, a.Ret)

	case Struct:
		a, ok := actual.(Struct)
		if !ok || a.Item != e.Item {
			return &MismatchError{Expected: expected, Actual: actual}
		}
		return nil

	case TyParam:
		a, ok := actual.(TyParam)
		if !ok || a.Index != e.Index {
			return &MismatchError{Expected: expected, Actual: actual}
		}
		return nil

	default:
		return &MismatchError{Expected: expected, Actual: actual}
	}
}

// occurs is the standard occurs-check: does v appear free inside t (after
// chasing substitutions)? Prevents infinite types such as 't0 = ['t0].
func (c *InferCtx) occurs(v Var, t Ty) bool {
	t = c.ResolveIfPossible(t)
	switch t := t.(type) {
	case Var:
		return t.ID == v.ID
	case Tuple:
		for _, e := range t.Elems {
			if c.occurs(v, e) {
				return true
			}
		}
		return false
	case RawPtr:
		return c.occurs(v, t.Inner)
	case Fn:
		for _, p := range t.Params {
			if c.occurs(v, p) {
				return true
			}
		}
		return c.occurs(v, t.Ret)
	default:
		return false
	}
}

// Resolve deep-resolves every variable in t via the substitution, returning
// ok=false at the first still-unbound variable (the caller reports
// "cannot infer type" at that point, per spec.md §4.4's end-of-body pass).
func (c *InferCtx) Resolve(t Ty) (Ty, bool) {
	t = c.ResolveIfPossible(t)
	switch t := t.(type) {
	case Var:
		return t, false
	case Tuple:
		elems := make([]Ty, len(t.Elems))
		for i, e := range t.Elems {
			r, ok := c.Resolve(e)
			if !ok {
				return r, false
			}
			elems[i] = r
		}
		return Tuple{Elems: elems}, true
	case RawPtr:
		r, ok := c.Resolve(t.Inner)
		if !ok {
			return r, false
		}
		return RawPtr{Inner: r}, true
	case Fn:
		params := make([]Ty, len(t.Params))
		for i, p := range t.Params {
			r, ok := c.Resolve(p)
			if !ok {
				return r, false
			}
			params[i] = r
		}
		ret, ok := c.Resolve(t.Ret)
		if !ok {
			return ret, false
		}
		return Fn{Params: params, Ret: ret}, true
	default:
		return t, true
	}
}
