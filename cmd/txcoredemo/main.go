package main

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nmemory-go/txcore/internal/catalog"
	"github.com/nmemory-go/txcore/internal/config"
	"github.com/nmemory-go/txcore/internal/core"
)

// txcoredemo exercises every command path against a small Customer/Order/Item
// schema, running the concrete scenarios named in the specification this
// core implements (S1 through S6) plus a concurrent-transactions
// demonstration. It plays the role the public database façade would in a
// real deployment; the façade itself is out of scope for this module.
func main() {
	fmt.Println("txcore demo - command execution core")

	cfg := config.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	fmt.Println(cfg.String())

	// Each scenario, and the concurrency demo, runs against its own freshly
	// built schema and database, so no run sees rows another one left behind.
	fresh := func() (*demoSchema, *core.Database, *core.TransactionManager) {
		ds := buildDemoSchema()
		db := core.NewDatabaseFromConfig(ds.schema, cfg)
		return ds, db, core.NewTransactionManager(db)
	}

	scenarios := []struct {
		name string
		run  func(context.Context, *demoSchema, *core.Database, *core.TransactionManager)
	}{
		{"S1 insert-FK-fail", s1InsertFKFail},
		{"S2 update-breaks-referrer", s2UpdateBreaksReferrer},
		{"S3 cascade-delete", s3CascadeDelete},
		{"S4 update-key-reindex", s4UpdateKeyReindex},
		{"S5 update-key-collision", s5UpdateKeyCollision},
		{"S6 query-cloning", s6QueryCloning},
	}

	ctx := context.Background()
	for _, sc := range scenarios {
		fmt.Printf("\n--- %s ---\n", sc.name)
		ds, db, txns := fresh()
		sc.run(ctx, ds, db, txns)
	}

	fmt.Println("\n--- concurrent transactions ---")
	ds, db, txns := fresh()
	if err := runConcurrencyDemo(ctx, ds, db, txns); err != nil {
		fmt.Printf("concurrency demo error: %v\n", err)
	}
}

// s1InsertFKFail inserts an Order referencing a Customer id that does not
// exist and expects a ForeignKeyViolation; the Order table must end up
// empty.
func s1InsertFKFail(ctx context.Context, ds *demoSchema, db *core.Database, txns *core.TransactionManager) {
	txn := txns.BeginDefault()
	defer txns.Rollback(txn)

	order := &Order{CustomerID: uuid.New()}
	err := core.ExecuteInsert[Order](ctx, db, txn, "Order", []*Order{order})
	fmt.Printf("insert order with unknown customer: err=%v\n", err)
	fmt.Printf("orders after failed insert: %d\n", len(ds.orderPK.All()))
}

// s2UpdateBreaksReferrer updates a Customer's primary key while an Order
// still refers to the old value, and expects the update to fail with the
// Customer row left untouched.
func s2UpdateBreaksReferrer(ctx context.Context, ds *demoSchema, db *core.Database, txns *core.TransactionManager) {
	txn := txns.BeginDefault()
	defer txns.Rollback(txn)

	customer := &Customer{Name: "A"}
	if err := core.ExecuteInsert[Customer](ctx, db, txn, "Customer", []*Customer{customer}); err != nil {
		fmt.Printf("setup failed: %v\n", err)
		return
	}
	order := &Order{CustomerID: customer.ID}
	if err := core.ExecuteInsert[Order](ctx, db, txn, "Order", []*Order{order}); err != nil {
		fmt.Printf("setup failed: %v\n", err)
		return
	}

	oldID := customer.ID
	newID := uuid.New()
	plan := newFilterPlan("Customer", ds.customerPK.All, func(c *Customer) bool { return c.ID == oldID })
	updater := catalog.UpdaterFor[Customer]{
		ChangedFields: []string{"ID"},
		Mutate: func(c *Customer) (*Customer, error) {
			c.ID = newID
			return c, nil
		},
	}
	_, err := core.ExecuteUpdater[Customer](ctx, db, txn, "Customer", plan, updater)
	fmt.Printf("update customer id to orphan its order: err=%v\n", err)
	fmt.Printf("customer id still %s: %v\n", oldID, customer.ID == oldID)
}

// s3CascadeDelete deletes a Customer that two Orders refer to through a
// cascaded_deletion relation; both Orders must disappear along with it.
func s3CascadeDelete(ctx context.Context, ds *demoSchema, db *core.Database, txns *core.TransactionManager) {
	txn := txns.BeginDefault()
	defer txns.Rollback(txn)

	customer := &Customer{Name: "B"}
	if err := core.ExecuteInsert[Customer](ctx, db, txn, "Customer", []*Customer{customer}); err != nil {
		fmt.Printf("setup failed: %v\n", err)
		return
	}
	orders := []*Order{{CustomerID: customer.ID}, {CustomerID: customer.ID}}
	if err := core.ExecuteInsert[Order](ctx, db, txn, "Order", orders); err != nil {
		fmt.Printf("setup failed: %v\n", err)
		return
	}

	plan := newFilterPlan("Customer", ds.customerPK.All, func(c *Customer) bool { return c.ID == customer.ID })
	victims, err := core.ExecuteDelete[Customer](ctx, db, txn, "Customer", plan)
	fmt.Printf("delete customer with cascading orders: victims=%d err=%v\n", victims, err)

	remainingOrders := 0
	for _, o := range ds.orderPK.All() {
		if o.CustomerID == customer.ID {
			remainingOrders++
		}
	}
	fmt.Printf("orders still referring to the deleted customer: %d\n", remainingOrders)
}

// s4UpdateKeyReindex updates an Item's unique code to a value not already
// in use; the code index must reflect the new key and drop the old one.
func s4UpdateKeyReindex(ctx context.Context, ds *demoSchema, db *core.Database, txns *core.TransactionManager) {
	txn := txns.BeginDefault()
	defer txns.Rollback(txn)

	a := &Item{Code: "a"}
	b := &Item{Code: "b"}
	if err := core.ExecuteInsert[Item](ctx, db, txn, "Item", []*Item{a, b}); err != nil {
		fmt.Printf("setup failed: %v\n", err)
		return
	}

	plan := newFilterPlan("Item", ds.itemPK.All, func(it *Item) bool { return it.ID == a.ID })
	updater := catalog.UpdaterFor[Item]{
		ChangedFields: []string{"Code"},
		Mutate: func(it *Item) (*Item, error) {
			it.Code = "c"
			return it, nil
		},
	}
	_, err := core.ExecuteUpdater[Item](ctx, db, txn, "Item", plan, updater)
	fmt.Printf("rename item code a -> c: err=%v\n", err)
	fmt.Printf("lookup by old code 'a': %d hits\n", len(ds.itemCode.Lookup(catalog.EncodeKey("a"))))
	fmt.Printf("lookup by new code 'c': %d hits\n", len(ds.itemCode.Lookup(catalog.EncodeKey("c"))))
}

// s5UpdateKeyCollision updates an Item's unique code to a value already
// held by a different row; the update must fail and leave both rows
// exactly as they were.
func s5UpdateKeyCollision(ctx context.Context, ds *demoSchema, db *core.Database, txns *core.TransactionManager) {
	txn := txns.BeginDefault()
	defer txns.Rollback(txn)

	a := &Item{Code: "a"}
	b := &Item{Code: "b"}
	if err := core.ExecuteInsert[Item](ctx, db, txn, "Item", []*Item{a, b}); err != nil {
		fmt.Printf("setup failed: %v\n", err)
		return
	}

	plan := newFilterPlan("Item", ds.itemPK.All, func(it *Item) bool { return it.ID == a.ID })
	updater := catalog.UpdaterFor[Item]{
		ChangedFields: []string{"Code"},
		Mutate: func(it *Item) (*Item, error) {
			it.Code = "b"
			return it, nil
		},
	}
	_, err := core.ExecuteUpdater[Item](ctx, db, txn, "Item", plan, updater)
	fmt.Printf("rename item code a -> b (collision): err=%v\n", err)
	fmt.Printf("item a code unchanged: %v\n", a.Code == "a")
}

// s6QueryCloning reads every Customer row, mutates a returned instance, and
// expects a second read to be unaffected: query results must be clones,
// never the live index-resident pointers.
func s6QueryCloning(ctx context.Context, ds *demoSchema, db *core.Database, txns *core.TransactionManager) {
	txn := txns.BeginDefault()
	defer txns.Rollback(txn)

	customer := &Customer{Name: "original"}
	if err := core.ExecuteInsert[Customer](ctx, db, txn, "Customer", []*Customer{customer}); err != nil {
		fmt.Printf("setup failed: %v\n", err)
		return
	}

	plan := newFilterPlan("Customer", ds.customerPK.All, func(c *Customer) bool { return true })
	first, err := core.ExecuteQuery[*Customer](ctx, db, txn, plan)
	if err != nil || len(first) == 0 {
		fmt.Printf("query failed: %v\n", err)
		return
	}
	first[0].Name = "mutated by caller"

	second, err := core.ExecuteQuery[*Customer](ctx, db, txn, plan)
	if err != nil || len(second) == 0 {
		fmt.Printf("query failed: %v\n", err)
		return
	}
	fmt.Printf("second read name still original: %v\n", second[0].Name == "original")
}

// runConcurrencyDemo launches several independent transactions against the
// Customer table concurrently via errgroup, demonstrating that disjoint
// inserts under table-level locking do not corrupt the index even when
// they race.
func runConcurrencyDemo(ctx context.Context, ds *demoSchema, db *core.Database, txns *core.TransactionManager) error {
	const workers = 8
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		i := i
		g.Go(func() error {
			txn := txns.BeginDefault()
			customer := &Customer{Name: fmt.Sprintf("concurrent-%d", i)}
			if err := core.ExecuteInsert[Customer](gctx, db, txn, "Customer", []*Customer{customer}); err != nil {
				txns.Rollback(txn)
				return err
			}
			return txns.Commit(txn)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	fmt.Printf("customers after %d concurrent inserts: %d\n", workers, len(ds.customerPK.All()))
	return nil
}
