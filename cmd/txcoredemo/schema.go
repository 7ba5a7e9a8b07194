package main

import (
	"github.com/google/uuid"

	"github.com/nmemory-go/txcore/internal/catalog"
)

// Customer and Order are the related pair of tables scenarios S1-S3 and S6
// and the concurrency demo run against: Order.CustomerID is a foreign key
// into Customer.ID, declared with cascaded deletion so S3 (cascade delete)
// has something to cascade.
type Customer struct {
	ID   uuid.UUID
	Name string
}

type Order struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
}

// Item is a third, unrelated table used only for the update-reindex
// scenarios (S4, S5), which need a unique secondary index distinct from the
// primary key.
type Item struct {
	ID   uuid.UUID
	Code string
}

// demoSchema bundles the registered tables and the raw indexes the demo's
// scenario functions need direct access to (for full-scan predicates; the
// core itself never reaches for these directly).
type demoSchema struct {
	schema *catalog.Schema

	customerTable *catalog.Table_[Customer]
	customerPK    *catalog.MemIndex[Customer]

	orderTable *catalog.Table_[Order]
	orderPK    *catalog.MemIndex[Order]
	orderByFK  *catalog.MemIndex[Order]

	itemTable *catalog.Table_[Item]
	itemPK    *catalog.MemIndex[Item]
	itemCode  *catalog.MemIndex[Item]
}

func buildDemoSchema() *demoSchema {
	customerPK := catalog.NewMemIndex[Customer]("customer_pk", "Customer", true, true,
		catalog.HashIndexKind, []string{"ID"},
		func(c *Customer) catalog.Key { return catalog.EncodeKey(c.ID) })

	customerCloner := catalog.ClonerFor[Customer]{Copy: func(dst, src *Customer) { *dst = *src }}
	customerTable := catalog.RegisterTable[Customer]("Customer", customerPK, []catalog.Index{customerPK}, customerCloner)
	customerTable.AddConstraint(catalog.FieldConstraint{
		Field: "ID",
		Apply: func(e catalog.Entity) error {
			c := e.(*Customer)
			if c.ID == uuid.Nil {
				c.ID = uuid.New()
			}
			return nil
		},
	})

	orderPK := catalog.NewMemIndex[Order]("order_pk", "Order", true, true,
		catalog.HashIndexKind, []string{"ID"},
		func(o *Order) catalog.Key { return catalog.EncodeKey(o.ID) })
	orderByFK := catalog.NewMemIndex[Order]("order_customer_fk", "Order", false, false,
		catalog.HashIndexKind, []string{"CustomerID"},
		func(o *Order) catalog.Key {
			if o.CustomerID == uuid.Nil {
				return catalog.NullKey
			}
			return catalog.EncodeKey(o.CustomerID)
		})

	orderCloner := catalog.ClonerFor[Order]{Copy: func(dst, src *Order) { *dst = *src }}
	orderTable := catalog.RegisterTable[Order]("Order", orderPK, []catalog.Index{orderPK, orderByFK}, orderCloner)
	orderTable.AddConstraint(catalog.FieldConstraint{
		Field: "ID",
		Apply: func(e catalog.Entity) error {
			o := e.(*Order)
			if o.ID == uuid.Nil {
				o.ID = uuid.New()
			}
			return nil
		},
	})

	itemPK := catalog.NewMemIndex[Item]("item_pk", "Item", true, true,
		catalog.HashIndexKind, []string{"ID"},
		func(it *Item) catalog.Key { return catalog.EncodeKey(it.ID) })
	itemCode := catalog.NewMemIndex[Item]("item_code", "Item", true, false,
		catalog.HashIndexKind, []string{"Code"},
		func(it *Item) catalog.Key { return catalog.EncodeKey(it.Code) })

	itemCloner := catalog.ClonerFor[Item]{Copy: func(dst, src *Item) { *dst = *src }}
	itemTable := catalog.RegisterTable[Item]("Item", itemPK, []catalog.Index{itemPK, itemCode}, itemCloner)
	itemTable.AddConstraint(catalog.FieldConstraint{
		Field: "ID",
		Apply: func(e catalog.Entity) error {
			it := e.(*Item)
			if it.ID == uuid.Nil {
				it.ID = uuid.New()
			}
			return nil
		},
	})

	schema := catalog.NewSchema()
	mustRegister(schema, customerTable)
	mustRegister(schema, orderTable)
	mustRegister(schema, itemTable)
	schema.RegisterRelation(catalog.NewRelation("order_customer_fk", orderByFK, customerPK,
		catalog.RelationOptions{CascadedDeletion: true}))

	return &demoSchema{
		schema:        schema,
		customerTable: customerTable,
		customerPK:    customerPK,
		orderTable:    orderTable,
		orderPK:       orderPK,
		orderByFK:     orderByFK,
		itemTable:     itemTable,
		itemPK:        itemPK,
		itemCode:      itemCode,
	}
}

func mustRegister(schema *catalog.Schema, table catalog.Table) {
	if err := schema.RegisterTable(table); err != nil {
		panic(err)
	}
}
