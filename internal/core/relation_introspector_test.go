package core

import "testing"

func TestRelationIntrospectorTableRelations(t *testing.T) {
	fx := newTestSchemaFixture(false)
	introspector := NewRelationIntrospector(fx.db.Schema)

	referring := introspector.TableRelations(fx.customerTable, true, false)
	if len(referring) != 1 {
		t.Fatalf("expected Customer to be the primary side of 1 relation, got %d", len(referring))
	}

	referred := introspector.TableRelations(fx.orderTable, false, true)
	if len(referred) != 1 {
		t.Fatalf("expected Order to be the foreign side of 1 relation, got %d", len(referred))
	}

	if len(introspector.TableRelations(fx.orderTable, true, false)) != 0 {
		t.Fatal("expected Order to not be the primary side of any relation")
	}
}

func TestRelationIntrospectorReferringTables(t *testing.T) {
	fx := newTestSchemaFixture(false)
	introspector := NewRelationIntrospector(fx.db.Schema)

	tables := introspector.ReferringTables(fx.customerTable)
	if len(tables) != 1 || tables[0] != "Order" {
		t.Fatalf("expected [Order], got %v", tables)
	}
}

func TestFindReferringEntitiesBucketsPerRelation(t *testing.T) {
	fx := newTestSchemaFixture(false)
	c := &testCustomer{ID: 1}
	_ = fx.customerPK.Insert(c)
	o := &testOrder{ID: 1, CustomerID: 1}
	_ = fx.orderByFK.Insert(o)

	introspector := NewRelationIntrospector(fx.db.Schema)
	relations := introspector.TableRelations(fx.customerTable, true, false)

	byRelation := FindReferringEntities([]interface{}{c}, relations)
	if len(byRelation) != 1 {
		t.Fatalf("expected 1 relation bucket, got %d", len(byRelation))
	}
	for _, entities := range byRelation {
		if len(entities) != 1 || entities[0] != interface{}(o) {
			t.Fatalf("expected the order to be bucketed under its relation, got %v", entities)
		}
	}
}
