package godb

import (
	"bufio"
	"hash/fnv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

// HeapFile is an unordered, page-addressed on-disk table: a contiguous
// sequence of PageSize-byte blocks, per spec §3/§6.
type HeapFile struct {
	td          *TupleDesc
	backingFile string
	tableID     int
	bufPool     *BufferPool

	appendMu sync.Mutex // serializes the numPages-check + append critical section
}

// NewHeapFile constructs a HeapFile backed by fromFile, which may be
// empty or a previously created heap file. Its tableId is a deterministic
// hash of its absolute path (spec §3/§6), stable across runs as long as
// the path is.
func NewHeapFile(fromFile string, td *TupleDesc, bp *BufferPool) (*HeapFile, error) {
	f, err := os.OpenFile(fromFile, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	f.Close()

	abs, err := filepath.Abs(fromFile)
	if err != nil {
		return nil, err
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(abs))

	return &HeapFile{
		td:          td,
		backingFile: fromFile,
		tableID:     int(h.Sum32()),
		bufPool:     bp,
	}, nil
}

// BackingFile returns the name of the file this HeapFile is backed by.
func (f *HeapFile) BackingFile() string {
	return f.backingFile
}

// TableID returns the file's deterministic, path-derived table
// identifier.
func (f *HeapFile) TableID() int {
	return f.tableID
}

// NumPages returns floor(fileLen / PageSize), recomputed on every call
// (spec §4.2: "no stale caching").
func (f *HeapFile) NumPages() int {
	fi, err := os.Stat(f.backingFile)
	if err != nil {
		return 0
	}
	return int(fi.Size() / int64(PageSize))
}

// Descriptor returns the HeapFile's TupleDesc.
func (f *HeapFile) Descriptor() *TupleDesc {
	return f.td
}

// readPage validates pageNo and reads that page's bytes, parsing a fresh
// heapPage. Called by BufferPool on a cache miss.
func (f *HeapFile) readPage(pageNo int) (Page, error) {
	if pageNo < 0 || pageNo >= f.NumPages() {
		return nil, newErr(InvalidPageIdError, "page %d out of range (file has %d pages)", pageNo, f.NumPages())
	}
	file, err := os.Open(f.backingFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	buf := make([]byte, PageSize)
	n, err := file.ReadAt(buf, int64(pageNo)*int64(PageSize))
	if err != nil && err != io.EOF {
		return nil, err
	}
	if n != PageSize {
		return nil, newErr(MalformedDataError, "short read for page %d: got %d of %d bytes", pageNo, n, PageSize)
	}
	return newHeapPageFromBytes(f.td, pageNo, f, buf)
}

// flushPage writes p back to its slot in the backing file.
func (f *HeapFile) flushPage(p Page) error {
	hp, ok := p.(*heapPage)
	if !ok {
		return newErr(SchemaMismatchError, "flushPage given non-heap page")
	}
	data, err := hp.serialize()
	if err != nil {
		return err
	}
	file, err := os.OpenFile(f.backingFile, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, err := file.WriteAt(data, int64(hp.pageNo)*int64(PageSize)); err != nil {
		return err
	}
	return hp.setBeforeImage()
}

// insertTuple finds the last page with free space (via the buffer
// pool), inserts t there, and marks the page dirty. If no page has
// space, it synchronously appends a fresh empty page to disk, under a
// guard that prevents two concurrent appenders from duplicating the
// extension: an in-process mutex plus an advisory flock on the backing
// file, so the guard holds across processes sharing it (spec §4.2/§5).
func (f *HeapFile) insertTuple(t *Tuple, tid TransactionID) error {
	numPages := f.NumPages()
	for p := numPages - 1; p >= 0; p-- {
		page, err := f.bufPool.getPage(f, p, tid, ReadPerm)
		if err != nil {
			return err
		}
		if page.(*heapPage).getNumEmptySlots() == 0 {
			continue
		}

		page, err = f.bufPool.getPage(f, p, tid, WritePerm)
		if err != nil {
			return err
		}
		hp := page.(*heapPage)
		if _, err := hp.insertTuple(t); err != nil {
			if err == ErrPageFull {
				continue
			}
			return err
		}
		hp.setDirty(tid, true)
		return nil
	}

	newPageNo, err := f.appendEmptyPage()
	if err != nil {
		return err
	}
	page, err := f.bufPool.getPage(f, newPageNo, tid, WritePerm)
	if err != nil {
		return err
	}
	hp := page.(*heapPage)
	if _, err := hp.insertTuple(t); err != nil {
		return err
	}
	hp.setDirty(tid, true)
	return nil
}

// appendEmptyPage extends the backing file by one page-sized, all-empty
// block and returns its page number. Guarded so concurrent callers never
// both append: each rechecks file length after acquiring both the
// in-process mutex and the file's advisory lock.
func (f *HeapFile) appendEmptyPage() (int, error) {
	f.appendMu.Lock()
	defer f.appendMu.Unlock()

	file, err := os.OpenFile(f.backingFile, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX); err != nil {
		return 0, fmt.Errorf("flock backing file: %w", err)
	}
	defer unix.Flock(int(file.Fd()), unix.LOCK_UN)

	fi, err := file.Stat()
	if err != nil {
		return 0, err
	}
	pageNo := int(fi.Size() / int64(PageSize))

	empty, err := newHeapPage(f.td, pageNo, f)
	if err != nil {
		return 0, err
	}
	data, err := empty.serialize()
	if err != nil {
		return 0, err
	}
	if _, err := file.WriteAt(data, int64(pageNo)*int64(PageSize)); err != nil {
		return 0, err
	}
	return pageNo, nil
}

// deleteTuple fetches t's page write-locked through the buffer pool and
// deletes it there.
func (f *HeapFile) deleteTuple(t *Tuple, tid TransactionID) error {
	rid, ok := t.Rid.(heapFileRid)
	if !ok {
		return newErr(TupleNotFoundError, "tuple has no heap file record id, cannot delete")
	}
	page, err := f.bufPool.getPage(f, rid.pageNo, tid, WritePerm)
	if err != nil {
		return err
	}
	hp := page.(*heapPage)
	if err := hp.deleteTuple(rid); err != nil {
		return err
	}
	hp.setDirty(tid, true)
	return nil
}

// Iterator returns a lazy sequence of every tuple in the file, in page
// order and slot order within each page, fetching pages through the
// buffer pool in read-only mode (spec §4.2). It is positioned before
// the first tuple; call the returned function repeatedly to advance.
func (f *HeapFile) Iterator(tid TransactionID) (func() (*Tuple, error), error) {
	pgNo := 0
	var pgIter func() (*Tuple, error)
	return func() (*Tuple, error) {
		for {
			if pgIter == nil {
				if pgNo >= f.NumPages() {
					return nil, nil
				}
				page, err := f.bufPool.getPage(f, pgNo, tid, ReadPerm)
				if err != nil {
					return nil, err
				}
				pgIter = page.(*heapPage).tupleIter()
				pgNo++
			}
			t, err := pgIter()
			if err != nil {
				return nil, err
			}
			if t == nil {
				pgIter = nil
				continue
			}
			return t, nil
		}
	}, nil
}

// heapHash is the pageKey used by the BufferPool to find this file's
// cached pages: the backing file path plus a page number uniquely
// identifies a page without embedding a slice or map.
type heapHash struct {
	FileName string
	PageNo   int
}

func (f *HeapFile) pageKey(pgNo int) any {
	return heapHash{FileName: f.backingFile, PageNo: pgNo}
}

// LoadFromCSV bulk-loads rows from r into the file via insertTuple.
// hasHeader skips the first line; sep is the field separator;
// skipLastField drops a trailing separator-induced empty field some
// datasets carry. Numeric cells are parsed as floats then truncated to
// int64 (matching values like "3.0"); string cells longer than
// StringLength are truncated.
func (f *HeapFile) LoadFromCSV(r io.Reader, hasHeader bool, sep string, skipLastField bool) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	tid := NewTID()
	if err := f.bufPool.BeginTransaction(tid); err != nil {
		return err
	}

	for scanner.Scan() {
		lineNo++
		cells := strings.Split(scanner.Text(), sep)
		if skipLastField && len(cells) > 0 {
			cells = cells[:len(cells)-1]
		}
		if lineNo == 1 && hasHeader {
			continue
		}
		if len(cells) != len(f.td.Fields) {
			f.bufPool.AbortTransaction(tid)
			return newErr(MalformedDataError, "line %d: expected %d fields, got %d", lineNo, len(f.td.Fields), len(cells))
		}

		fields := make([]DBValue, len(cells))
		for i, raw := range cells {
			switch f.td.Fields[i].Ftype {
			case IntType:
				v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
				if err != nil {
					f.bufPool.AbortTransaction(tid)
					return newErr(TypeMismatchError, "line %d: %q is not numeric", lineNo, raw)
				}
				fields[i] = IntField{Value: int64(v)}
			case StringType:
				if len(raw) > StringLength {
					raw = raw[:StringLength]
				}
				fields[i] = StringField{Value: raw}
			}
		}

		newT := &Tuple{Desc: *f.td, Fields: fields}
		if err := f.insertTuple(newT, tid); err != nil {
			f.bufPool.AbortTransaction(tid)
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		f.bufPool.AbortTransaction(tid)
		return err
	}
	return f.bufPool.CommitTransaction(tid)
}
