package catalog

import (
	"errors"
	"testing"
)

func TestConstraintSetAppliesInOrder(t *testing.T) {
	cs := NewConstraintSet("Widget")
	var order []string
	cs.Add(FieldConstraint{Field: "A", Apply: func(e Entity) error {
		order = append(order, "A")
		return nil
	}})
	cs.Add(FieldConstraint{Field: "B", Apply: func(e Entity) error {
		order = append(order, "B")
		return nil
	}})

	if err := cs.Apply(&widget{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 2 || order[0] != "A" || order[1] != "B" {
		t.Fatalf("expected constraints applied in registration order, got %v", order)
	}
}

func TestConstraintSetStopsAtFirstFailure(t *testing.T) {
	cs := NewConstraintSet("Widget")
	cause := errors.New("boom")
	ran := false
	cs.Add(FieldConstraint{Field: "A", Apply: func(e Entity) error { return cause }})
	cs.Add(FieldConstraint{Field: "B", Apply: func(e Entity) error { ran = true; return nil }})

	err := cs.Apply(&widget{})
	cv, ok := err.(*ConstraintViolation)
	if !ok {
		t.Fatalf("expected ConstraintViolation, got %v", err)
	}
	if cv.Field != "A" || !errors.Is(cv, cause) {
		t.Fatalf("expected violation wrapping the first failing field's cause, got %+v", cv)
	}
	if ran {
		t.Error("expected the second constraint to never run")
	}
}

func TestTableAddConstraintDelegatesToConstraintSet(t *testing.T) {
	pk := widgetPK()
	cloner := ClonerFor[widget]{Copy: func(dst, src *widget) { *dst = *src }}
	table := RegisterTable[widget]("Widget", pk, []Index{pk}, cloner)
	table.AddConstraint(FieldConstraint{Field: "ID", Apply: func(e Entity) error {
		w := e.(*widget)
		if w.ID == 0 {
			return errors.New("id required")
		}
		return nil
	}})

	if err := table.Constraints().Apply(&widget{ID: 0}); err == nil {
		t.Fatal("expected constraint violation for zero ID")
	}
	if err := table.Constraints().Apply(&widget{ID: 1}); err != nil {
		t.Fatalf("unexpected error for valid ID: %v", err)
	}
}
