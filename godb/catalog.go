package godb

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// tableEntry is what the Catalog keeps per registered table.
type tableEntry struct {
	name string
	file DBFile
}

// Catalog is the process-wide name <-> tableId <-> (DBFile, TupleDesc)
// registry (spec §4.2/§6). It does not parse SQL DDL; LoadFromFile reads
// a trivial text format mapping table names to column lists, grounded on
// the teacher's catalog-file convention.
type Catalog struct {
	mu       sync.RWMutex
	byID     map[int]*tableEntry
	byName   map[string]int
	bp       *BufferPool
	tableDir string
}

// NewCatalog constructs an empty Catalog. tableDir is where
// LoadFromFile resolves each table's backing heap file.
func NewCatalog(bp *BufferPool, tableDir string) *Catalog {
	return &Catalog{
		byID:     make(map[int]*tableEntry),
		byName:   make(map[string]int),
		bp:       bp,
		tableDir: tableDir,
	}
}

// AddTable registers file under name, using file's own tableID (for a
// HeapFile, the hash of its absolute path). Fails if name is already
// registered.
func (c *Catalog) AddTable(name string, file DBFile) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.byName[name]; exists {
		return newErr(IncompatibleTypesError, "table %q already registered", name)
	}
	id := tableIDOf(file)
	c.byID[id] = &tableEntry{name: name, file: file}
	c.byName[name] = id
	return nil
}

// tableIDOf extracts the tableID a DBFile carries, today always a
// *HeapFile.
func tableIDOf(file DBFile) int {
	if hf, ok := file.(*HeapFile); ok {
		return hf.TableID()
	}
	return 0
}

// GetTableID resolves a table name to its tableId.
func (c *Catalog) GetTableID(name string) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.byName[name]
	if !ok {
		return 0, newErr(NoSuchFieldError, "no such table %q", name)
	}
	return id, nil
}

// GetDBFile returns the DBFile registered under tableID.
func (c *Catalog) GetDBFile(tableID int) (DBFile, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byID[tableID]
	if !ok {
		return nil, newErr(InvalidPageIdError, "no table registered with id %d", tableID)
	}
	return e.file, nil
}

// GetTupleDesc returns the schema of the table registered under
// tableID.
func (c *Catalog) GetTupleDesc(tableID int) (*TupleDesc, error) {
	file, err := c.GetDBFile(tableID)
	if err != nil {
		return nil, err
	}
	return file.Descriptor(), nil
}

// LoadFromFile parses a catalog text file: one table per non-blank,
// non-comment ('#') line, in the form
//
//	tableName (field1 type1, field2 type2, ...)
//
// where each type is "int" or "string". Each table's backing file is
// tableName.dat under c.tableDir, created via NewHeapFile if absent.
func (c *Catalog) LoadFromFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return c.loadFrom(f)
}

func (c *Catalog) loadFrom(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, td, err := parseCatalogLine(line)
		if err != nil {
			return err
		}
		backing := filepath.Join(c.tableDir, name+".dat")
		file, err := NewHeapFile(backing, td, c.bp)
		if err != nil {
			return err
		}
		if err := c.AddTable(name, file); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// parseCatalogLine parses "name (f1 t1, f2 t2, ...)" into a table name
// and TupleDesc.
func parseCatalogLine(line string) (string, *TupleDesc, error) {
	open := strings.Index(line, "(")
	close := strings.LastIndex(line, ")")
	if open < 0 || close < open {
		return "", nil, newErr(MalformedDataError, "malformed catalog line: %q", line)
	}
	name := strings.TrimSpace(line[:open])
	body := line[open+1 : close]

	var fields []FieldType
	for _, part := range strings.Split(body, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		toks := strings.Fields(part)
		if len(toks) != 2 {
			return "", nil, newErr(MalformedDataError, "malformed field %q in catalog line", part)
		}
		var ft DBType
		switch strings.ToLower(toks[1]) {
		case "int", "int32", "int64", "integer":
			ft = IntType
		case "string", "varchar", "text":
			ft = StringType
		default:
			return "", nil, newErr(MalformedDataError, "unknown field type %q", toks[1])
		}
		fields = append(fields, FieldType{Fname: toks[0], Ftype: ft})
	}
	if name == "" || len(fields) == 0 {
		return "", nil, newErr(MalformedDataError, "malformed catalog line: %q", line)
	}
	return name, &TupleDesc{Fields: fields}, nil
}
