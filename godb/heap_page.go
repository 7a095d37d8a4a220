package godb

import (
	"bytes"
	"sync"
)

/* heapPage implements Page for pages of a HeapFile.

Layout (spec §3/§4.1), a fixed PageSize bytes total:

  - header: ceil(N/8) bytes, one bit per slot, LSB-first within each
    byte; bit i is 1 iff slot i holds a valid tuple.
  - slots: N fixed-size tuple records, where
    N = floor((PageSize*8) / (tupleSize*8 + 1)).
  - trailing zero padding out to PageSize.

A deleted tuple's header bit is cleared; its slot bytes need not be
zeroed. The page additionally tracks a "before image" — a clone of its
serialized bytes at the last quiesced point — used by BufferPool to
support abort-by-discard without a log.
*/

// PageSize is the fixed byte length of every page in every HeapFile. It
// is a configurable constant (spec §6); tests may shrink it to exercise
// small, easy-to-reason-about slot counts.
var PageSize = 4096

type heapPage struct {
	desc     TupleDesc
	pageNo   int
	numSlots int
	tuples   []*Tuple // nil entry == unoccupied slot
	file     *HeapFile

	dirty     bool
	dirtiedBy TransactionID
	beforeImg []byte

	sync.Mutex
}

// numSlotsFor returns N = floor((pageSize*8) / (tupleSize*8 + 1)), the
// largest slot count whose header-bit-plus-payload cost fits PageSize.
func numSlotsFor(tupleSize int) int {
	return (PageSize * 8) / (tupleSize*8 + 1)
}

func headerBytes(numSlots int) int {
	return (numSlots + 7) / 8
}

// newHeapPage builds an empty page (every slot unoccupied) for the
// given schema, page number, and owning file.
func newHeapPage(desc *TupleDesc, pageNo int, f *HeapFile) (*heapPage, error) {
	n := numSlotsFor(desc.bytesPerTuple())
	if n <= 0 {
		return nil, newErr(MalformedDataError, "tuple of size %d does not fit on a %d byte page", desc.bytesPerTuple(), PageSize)
	}
	hp := &heapPage{
		desc:     *desc,
		pageNo:   pageNo,
		numSlots: n,
		tuples:   make([]*Tuple, n),
		file:     f,
	}
	return hp, nil
}

// newHeapPageFromBytes parses a serialized page. Fails on malformed
// bytes: wrong length, or a set header bit whose slot doesn't decode.
func newHeapPageFromBytes(desc *TupleDesc, pageNo int, f *HeapFile, data []byte) (*heapPage, error) {
	if len(data) != PageSize {
		return nil, newErr(MalformedDataError, "expected %d bytes for page, got %d", PageSize, len(data))
	}
	hp, err := newHeapPage(desc, pageNo, f)
	if err != nil {
		return nil, err
	}
	hdrLen := headerBytes(hp.numSlots)
	header := data[:hdrLen]
	tupleSize := desc.bytesPerTuple()
	body := data[hdrLen:]
	for i := 0; i < hp.numSlots; i++ {
		occupied := header[i/8]&(1<<uint(i%8)) != 0
		start := i * tupleSize
		if !occupied {
			continue
		}
		t, err := readTupleFrom(bytes.NewBuffer(body[start:start+tupleSize]), desc)
		if err != nil {
			return nil, newErr(MalformedDataError, "slot %d marked occupied but undecodable: %v", i, err)
		}
		t.Rid = heapFileRid{pageNo: pageNo, slotNo: i}
		hp.tuples[i] = t
	}
	hp.beforeImg = append([]byte(nil), data...)
	return hp, nil
}

// serialize renders the page to exactly PageSize bytes: header bitmap,
// then N fixed-width slots (zeroed for unoccupied ones), then zero
// padding. Parsing serialize()'s output reproduces an equal page
// (invariant 2, spec §8).
func (h *heapPage) serialize() ([]byte, error) {
	tupleSize := h.desc.bytesPerTuple()
	header := make([]byte, headerBytes(h.numSlots))
	for i, t := range h.tuples {
		if t != nil {
			header[i/8] |= 1 << uint(i%8)
		}
	}

	body := bytes.NewBuffer(make([]byte, 0, h.numSlots*tupleSize))
	for _, t := range h.tuples {
		if t == nil {
			body.Write(make([]byte, tupleSize))
			continue
		}
		if err := t.writeTo(body); err != nil {
			return nil, err
		}
	}

	buf := append(header, body.Bytes()...)
	if len(buf) > PageSize {
		return nil, newErr(MalformedDataError, "serialized page (%d bytes) exceeds page size %d", len(buf), PageSize)
	}
	buf = append(buf, make([]byte, PageSize-len(buf))...)
	return buf, nil
}

// getNumEmptySlots reports how many slots currently hold no tuple.
func (h *heapPage) getNumEmptySlots() int {
	n := 0
	for _, t := range h.tuples {
		if t == nil {
			n++
		}
	}
	return n
}

func (h *heapPage) getNumSlots() int {
	return h.numSlots
}

// insertTuple places t in the lowest-indexed empty slot, failing with
// ErrPageFull if none exists, or a schema-mismatch error if t's
// descriptor disagrees with the page's.
func (h *heapPage) insertTuple(t *Tuple) (recordID, error) {
	if !t.Desc.equals(&h.desc) {
		return nil, newErr(SchemaMismatchError, "tuple schema does not match page schema")
	}
	for i := 0; i < h.numSlots; i++ {
		if h.tuples[i] == nil {
			h.tuples[i] = t
			rid := heapFileRid{pageNo: h.pageNo, slotNo: i}
			t.Rid = rid
			return rid, nil
		}
	}
	return nil, ErrPageFull
}

// deleteTuple clears the slot named by rid, which must reference this
// page and an occupied slot.
func (h *heapPage) deleteTuple(rid recordID) error {
	hrid, ok := rid.(heapFileRid)
	if !ok {
		return newErr(TupleNotFoundError, "rid %v is not a heap file record id", rid)
	}
	if hrid.pageNo != h.pageNo {
		return newErr(TupleNotFoundError, "rid references page %d, not page %d", hrid.pageNo, h.pageNo)
	}
	if hrid.slotNo < 0 || hrid.slotNo >= h.numSlots || h.tuples[hrid.slotNo] == nil {
		return newErr(TupleNotFoundError, "slot %d is not occupied on page %d", hrid.slotNo, h.pageNo)
	}
	h.tuples[hrid.slotNo] = nil
	return nil
}

// tupleIter returns a closure yielding the page's occupied tuples in
// slot-index order, then (nil, nil).
func (h *heapPage) tupleIter() func() (*Tuple, error) {
	i := 0
	return func() (*Tuple, error) {
		for i < len(h.tuples) {
			t := h.tuples[i]
			i++
			if t != nil {
				return t, nil
			}
		}
		return nil, nil
	}
}

func (h *heapPage) isDirty() bool {
	return h.dirty
}

func (h *heapPage) setDirty(tid TransactionID, dirty bool) {
	h.dirty = dirty
	if dirty {
		h.dirtiedBy = tid
	}
}

// dirtiedByTid reports the transaction that last dirtied this page, and
// whether the page is dirty at all. BufferPool.transactionComplete uses
// this to tell "a page this transaction actually wrote" from "a page it
// merely holds exclusive for a pending write" (spec §9 design note).
func (h *heapPage) dirtiedByTid() (TransactionID, bool) {
	if !h.dirty {
		return 0, false
	}
	return h.dirtiedBy, true
}

func (h *heapPage) getFile() DBFile {
	return h.file
}

// getBeforeImage returns the byte image captured at the last quiesced
// point (construction, or the last setBeforeImage call).
func (h *heapPage) getBeforeImage() []byte {
	return h.beforeImg
}

// setBeforeImage snapshots the page's current serialized bytes as its
// new before-image. Called once a transaction's write has been made
// durable so a later abort can't roll the page back past it.
func (h *heapPage) setBeforeImage() error {
	data, err := h.serialize()
	if err != nil {
		return err
	}
	h.beforeImg = data
	return nil
}
