package core

import (
	"context"
	"time"

	"github.com/nmemory-go/txcore/internal/catalog"
	"github.com/nmemory-go/txcore/internal/locking"
	"github.com/rs/zerolog"
)

func newTestManager() *locking.Manager {
	return locking.NewManager(200 * time.Millisecond)
}

// testCustomer/testOrder mirror the demo schema's Customer/Order pair: a
// parent table and a child table with a cascaded-deletion foreign key, the
// minimum shape every command path's tests need.
type testCustomer struct {
	ID   int
	Name string
}

type testOrder struct {
	ID                  int
	CustomerID          int
	SecondaryCustomerID int
}

type testSchemaFixture struct {
	db *Database

	customerTable *catalog.Table_[testCustomer]
	customerPK    *catalog.MemIndex[testCustomer]

	orderTable *catalog.Table_[testOrder]
	orderPK    *catalog.MemIndex[testOrder]
	orderByFK  *catalog.MemIndex[testOrder]
}

func newTestSchemaFixture(cascaded bool) *testSchemaFixture {
	customerPK := catalog.NewMemIndex[testCustomer]("customer_pk", "Customer", true, true,
		catalog.HashIndexKind, []string{"ID"},
		func(c *testCustomer) catalog.Key { return catalog.EncodeKey(c.ID) })
	customerCloner := catalog.ClonerFor[testCustomer]{Copy: func(dst, src *testCustomer) { *dst = *src }}
	customerTable := catalog.RegisterTable[testCustomer]("Customer", customerPK, []catalog.Index{customerPK}, customerCloner)

	orderPK := catalog.NewMemIndex[testOrder]("order_pk", "Order", true, true,
		catalog.HashIndexKind, []string{"ID"},
		func(o *testOrder) catalog.Key { return catalog.EncodeKey(o.ID) })
	orderByFK := catalog.NewMemIndex[testOrder]("order_customer_fk", "Order", false, false,
		catalog.HashIndexKind, []string{"CustomerID"},
		func(o *testOrder) catalog.Key {
			if o.CustomerID == 0 {
				return catalog.NullKey
			}
			return catalog.EncodeKey(o.CustomerID)
		})
	orderCloner := catalog.ClonerFor[testOrder]{Copy: func(dst, src *testOrder) { *dst = *src }}
	orderTable := catalog.RegisterTable[testOrder]("Order", orderPK, []catalog.Index{orderPK, orderByFK}, orderCloner)

	schema := catalog.NewSchema()
	mustOK(schema.RegisterTable(customerTable))
	mustOK(schema.RegisterTable(orderTable))
	schema.RegisterRelation(catalog.NewRelation("order_customer_fk", orderByFK, customerPK,
		catalog.RelationOptions{CascadedDeletion: cascaded}))

	db := NewDatabase(schema, newTestManager(), zerolog.Nop())

	return &testSchemaFixture{
		db:            db,
		customerTable: customerTable,
		customerPK:    customerPK,
		orderTable:    orderTable,
		orderPK:       orderPK,
		orderByFK:     orderByFK,
	}
}

func mustOK(err error) {
	if err != nil {
		panic(err)
	}
}

// scanAllPlan is the fixtures' stand-in for a compiled query plan: it scans
// every current entity of table and keeps those matching pred, exactly the
// way the demo CLI's own filterPlan works.
type scanAllPlan[T any] struct {
	table string
	all   func() []*T
	pred  func(*T) bool
}

func newScanAllPlan[T any](table string, all func() []*T, pred func(*T) bool) *scanAllPlan[T] {
	return &scanAllPlan[T]{table: table, all: all, pred: pred}
}

func (p *scanAllPlan[T]) Tables() []string { return []string{p.table} }

func (p *scanAllPlan[T]) Execute(ctx context.Context) ([]*T, error) {
	var out []*T
	for _, e := range p.all() {
		if p.pred(e) {
			out = append(out, e)
		}
	}
	return out, nil
}
