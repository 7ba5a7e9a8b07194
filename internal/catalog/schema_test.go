package catalog

import "testing"

func buildSchemaFixture() (*Schema, *MemIndex[relParent], *MemIndex[relChild], Relation) {
	parentPK, childFK, rel := buildRelationFixture(true)
	parentCloner := ClonerFor[relParent]{Copy: func(dst, src *relParent) { *dst = *src }}
	childCloner := ClonerFor[relChild]{Copy: func(dst, src *relChild) { *dst = *src }}
	parentTable := RegisterTable[relParent]("Parent", parentPK, []Index{parentPK}, parentCloner)
	childTable := RegisterTable[relChild]("Child", childFK, []Index{childFK}, childCloner)

	schema := NewSchema()
	_ = schema.RegisterTable(parentTable)
	_ = schema.RegisterTable(childTable)
	schema.RegisterRelation(rel)
	return schema, parentPK, childFK, rel
}

func TestSchemaRegisterTableRejectsDuplicateName(t *testing.T) {
	schema, parentPK, _, _ := buildSchemaFixture()
	cloner := ClonerFor[relParent]{Copy: func(dst, src *relParent) { *dst = *src }}
	dup := RegisterTable[relParent]("Parent", parentPK, []Index{parentPK}, cloner)
	if err := schema.RegisterTable(dup); err == nil {
		t.Fatal("expected an error registering a duplicate table name")
	}
}

func TestSchemaTableLookup(t *testing.T) {
	schema, _, _, _ := buildSchemaFixture()
	_, ok := schema.Table("Parent")
	if !ok {
		t.Fatal("expected Parent to be registered")
	}
	_, ok = schema.Table("Nonexistent")
	if ok {
		t.Fatal("expected Nonexistent to be absent")
	}
}

func TestSchemaReferringAndReferredRelations(t *testing.T) {
	schema, parentPK, childFK, rel := buildSchemaFixture()

	referring := schema.ReferringRelations(parentPK)
	if len(referring) != 1 || referring[0] != rel {
		t.Fatalf("expected Parent's primary index to be the referring side, got %v", referring)
	}

	referred := schema.ReferredRelations(childFK)
	if len(referred) != 1 || referred[0] != rel {
		t.Fatalf("expected Child's FK index to be the referred side, got %v", referred)
	}

	if len(schema.ReferredRelations(parentPK)) != 0 {
		t.Error("Parent's primary index should not be a referred side")
	}
}
