package spillsort

// uniqEncoder forwards records to an Encoder, filtering out consecutive
// duplicates when distinct is set. It assumes records arrive in sorted
// order, so equal records are adjacent; the first record is always written.
// The same filter runs when a batch is spilled and when runs are merged.
type uniqEncoder[E any] struct {
	enc      Encoder[E]
	equal    EqualFunc[E]
	distinct bool
	prior    E
	priorSet bool
	count    int64 // records written
}

func newUniqEncoder[E any](enc Encoder[E], equal EqualFunc[E], distinct bool) *uniqEncoder[E] {
	return &uniqEncoder[E]{enc: enc, equal: equal, distinct: distinct}
}

func (u *uniqEncoder[E]) Encode(rec E) error {
	if u.distinct && u.priorSet && u.equal(u.prior, rec) {
		return nil
	}
	if err := u.enc.Encode(rec); err != nil {
		return err
	}
	u.prior = rec
	u.priorSet = true
	u.count++
	return nil
}

// sliceEncoder collects encoded records in memory.
type sliceEncoder[E any] struct {
	recs []E
}

func (s *sliceEncoder[E]) Encode(rec E) error {
	s.recs = append(s.recs, rec)
	return nil
}

func (s *sliceEncoder[E]) Close() error { return nil }
