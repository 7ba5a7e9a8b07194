package catalog

// NullKey is the sentinel Key produced by a foreign index's projection
// function for an entity whose foreign key field is nil/zero and declared
// nullable. ValidateEntity treats it as "nothing to check" per the FK-valid
// invariant, which only binds non-null foreign keys.
const NullKey Key = "\x00<null-fk>\x00"

// Relation is a directed foreign-key constraint: ForeignIndex is a
// (possibly non-unique) index on the foreign table keyed by the FK field,
// PrimaryIndex is the unique index on the primary table keyed by the PK
// field, and both project into the *same* Key encoding, so looking up one
// side's key in the other side's index answers "does this reference
// resolve" or "who points at me". This is the secondary-index-backed
// design the spec's notes call out explicitly in place of a referrer scan.
type Relation interface {
	Name() string
	ForeignTable() string
	PrimaryTable() string
	ForeignIndex() Index
	PrimaryIndex() Index
	CascadedDeletion() bool

	// ValidateEntity checks that foreign's current FK value resolves to an
	// existing primary entity, or is NullKey. Returns *ForeignKeyViolation
	// otherwise.
	ValidateEntity(foreign Entity) error

	// GetReferringEntities returns the deduplicated set of foreign
	// entities currently pointing at any of the given primary entities.
	GetReferringEntities(primaries []Entity) []Entity
}

type relation struct {
	name     string
	foreign  Index
	primary  Index
	cascaded bool
}

// RelationOptions mirrors the teacher's ForeignKey.OnDelete/OnUpdate
// surface, trimmed to the one behavior this spec models: cascade.
type RelationOptions struct {
	CascadedDeletion bool
}

// NewRelation registers a foreign-key relation between two already-built
// indexes. foreignIndex and primaryIndex must project into a compatible Key
// space (same field types, same EncodeKey arity) or every lookup will miss.
func NewRelation(name string, foreignIndex, primaryIndex Index, opts RelationOptions) Relation {
	return &relation{name: name, foreign: foreignIndex, primary: primaryIndex, cascaded: opts.CascadedDeletion}
}

func (r *relation) Name() string           { return r.name }
func (r *relation) ForeignTable() string   { return r.foreign.TableName() }
func (r *relation) PrimaryTable() string   { return r.primary.TableName() }
func (r *relation) ForeignIndex() Index    { return r.foreign }
func (r *relation) PrimaryIndex() Index    { return r.primary }
func (r *relation) CascadedDeletion() bool { return r.cascaded }

func (r *relation) ValidateEntity(foreign Entity) error {
	key := r.foreign.KeyOf(foreign)
	if key == NullKey {
		return nil
	}
	if len(r.primary.Lookup(key)) == 0 {
		return &ForeignKeyViolation{Relation: r.name, Table: r.foreign.TableName(), Entity: foreign}
	}
	return nil
}

func (r *relation) GetReferringEntities(primaries []Entity) []Entity {
	seen := make(map[Entity]bool)
	out := make([]Entity, 0)
	for _, p := range primaries {
		key := r.primary.KeyOf(p)
		for _, f := range r.foreign.Lookup(key) {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out
}

// RelationGroup is a pair of relation lists, each de-duplicated and kept in
// first-discovery order. Referring relations are ones in which the queried
// table/index is the primary side (others point at it); Referred relations
// are ones in which it is the foreign side (it points at others).
type RelationGroup struct {
	Referring []Relation
	Referred  []Relation
}

// relationSet is an insertion-ordered, duplicate-free collection used while
// building a RelationGroup.
type relationSet struct {
	seen  map[Relation]bool
	order []Relation
}

func newRelationSet() *relationSet {
	return &relationSet{seen: make(map[Relation]bool)}
}

func (s *relationSet) add(r Relation) {
	if s.seen[r] {
		return
	}
	s.seen[r] = true
	s.order = append(s.order, r)
}
