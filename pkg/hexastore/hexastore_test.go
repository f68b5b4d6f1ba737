package hexastore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInsertCreatesSixKeysLen(t *testing.T) {
	h := New()
	h.InsertTriplet(1, 10, 100, 2)
	assert.Equal(t, 1, h.Len())
	assert.Len(t, h.keys, 6, "invariant H1: every triplet occupies all six indices")
}

func TestDeleteRemovesAllSixKeys(t *testing.T) {
	h := New()
	h.InsertTriplet(1, 10, 100, 2)
	h.DeleteTriplet(1, 10, 100, 2)
	assert.Equal(t, 0, h.Len())
	assert.Len(t, h.keys, 0)
}

func TestNoTwoTripletsShareEdgeID(t *testing.T) {
	// Invariant H2: edgeID is globally unique, so inserting a second triplet
	// with a fresh edgeID must not collide with or overwrite the first.
	h := New()
	h.InsertTriplet(1, 10, 100, 2)
	h.InsertTriplet(3, 10, 101, 4)
	assert.Equal(t, 2, h.Len())
}

func TestScanFullyBoundSPO(t *testing.T) {
	h := New()
	h.InsertTriplet(1, 10, 100, 2)
	h.InsertTriplet(1, 10, 101, 3)
	got := h.Scan(Pattern{BindS: true, S: 1, BindP: true, RelType: 10, BindEdgeID: true, EdgeID: 100, BindO: true, O: 2})
	assert.Len(t, got, 1)
	assert.Equal(t, uint64(2), got[0].Object)
}

func TestScanBySubjectOnly(t *testing.T) {
	h := New()
	h.InsertTriplet(1, 10, 100, 2)
	h.InsertTriplet(1, 20, 101, 3)
	h.InsertTriplet(2, 10, 102, 4)
	got := h.Scan(Pattern{BindS: true, S: 1})
	assert.Len(t, got, 2)
	for _, tr := range got {
		assert.Equal(t, uint64(1), tr.Subject)
	}
}

func TestScanByPredicateOnly(t *testing.T) {
	h := New()
	h.InsertTriplet(1, 10, 100, 2)
	h.InsertTriplet(5, 10, 101, 6)
	h.InsertTriplet(1, 20, 102, 7)
	got := h.Scan(Pattern{BindP: true, RelType: 10})
	assert.Len(t, got, 2)
	for _, tr := range got {
		assert.Equal(t, uint32(10), tr.RelType)
	}
}

func TestScanByObjectOnly(t *testing.T) {
	h := New()
	h.InsertTriplet(1, 10, 100, 9)
	h.InsertTriplet(2, 10, 101, 9)
	h.InsertTriplet(3, 10, 102, 8)
	got := h.Scan(Pattern{BindO: true, O: 9})
	assert.Len(t, got, 2)
	for _, tr := range got {
		assert.Equal(t, uint64(9), tr.Object)
	}
}

func TestScanBySubjectAndPredicate(t *testing.T) {
	h := New()
	h.InsertTriplet(1, 10, 100, 2)
	h.InsertTriplet(1, 10, 101, 3)
	h.InsertTriplet(1, 20, 102, 4)
	got := h.Scan(Pattern{BindS: true, S: 1, BindP: true, RelType: 10})
	assert.Len(t, got, 2)
}

func TestScanBySubjectAndObject(t *testing.T) {
	h := New()
	h.InsertTriplet(1, 10, 100, 9)
	h.InsertTriplet(1, 20, 101, 9)
	h.InsertTriplet(1, 10, 102, 8)
	got := h.Scan(Pattern{BindS: true, S: 1, BindO: true, O: 9})
	assert.Len(t, got, 2)
}

func TestScanByPredicateAndObject(t *testing.T) {
	h := New()
	h.InsertTriplet(1, 10, 100, 9)
	h.InsertTriplet(2, 10, 101, 9)
	h.InsertTriplet(3, 20, 102, 9)
	got := h.Scan(Pattern{BindP: true, RelType: 10, BindO: true, O: 9})
	assert.Len(t, got, 2)
}

func TestScanPredicateBoundWithoutEdgeIDStillPrefixesCorrectly(t *testing.T) {
	// A bound relation type with an unbound edge id must still match every
	// edge of that type, not just ones whose edge id happens to sort first.
	h := New()
	h.InsertTriplet(1, 10, 5, 2)
	h.InsertTriplet(1, 10, 999, 3)
	got := h.Scan(Pattern{BindS: true, S: 1, BindP: true, RelType: 10, BindEdgeID: false})
	assert.Len(t, got, 2)
}

func TestScanNoMatchReturnsEmpty(t *testing.T) {
	h := New()
	h.InsertTriplet(1, 10, 100, 2)
	got := h.Scan(Pattern{BindS: true, S: 999})
	assert.Empty(t, got)
}
