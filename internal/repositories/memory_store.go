package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"dbdesigner/internal/models"
)

type memoryData struct {
	nextID    int64
	databases map[int64]models.Database
	tables    map[int64]models.Table
	fields    map[int64]models.Field
	links     map[int64]models.Link
}

func (d *memoryData) clone() *memoryData {
	c := &memoryData{
		nextID:    d.nextID,
		databases: make(map[int64]models.Database, len(d.databases)),
		tables:    make(map[int64]models.Table, len(d.tables)),
		fields:    make(map[int64]models.Field, len(d.fields)),
		links:     make(map[int64]models.Link, len(d.links)),
	}
	for k, v := range d.databases {
		c.databases[k] = v
	}
	for k, v := range d.tables {
		c.tables[k] = v
	}
	for k, v := range d.fields {
		c.fields[k] = v
	}
	for k, v := range d.links {
		c.links[k] = v
	}
	return c
}

func (d *memoryData) id() int64 {
	d.nextID++
	return d.nextID
}

// MemoryStore is an in-process Store used when no database URL is
// configured and by unit tests. It enforces the same unique and
// foreign-key rules as the PostgreSQL schema.
type MemoryStore struct {
	mu   *sync.Mutex
	data *memoryData
	inTx bool
	now  func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		mu: &sync.Mutex{},
		data: &memoryData{
			databases: map[int64]models.Database{},
			tables:    map[int64]models.Table{},
			fields:    map[int64]models.Field{},
			links:     map[int64]models.Link{},
		},
		now: time.Now,
	}
}

func (s *MemoryStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *MemoryStore) Transaction(ctx context.Context, f func(tx Store) error) error {
	if s.inTx {
		return f(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	tx := &MemoryStore{mu: s.mu, data: s.data, inTx: true, now: s.now}
	if err := f(tx); err != nil {
		*s.data = *snapshot
		return err
	}
	if err := ctx.Err(); err != nil {
		*s.data = *snapshot
		return err
	}
	return nil
}

// Databases

func (s *MemoryStore) CreateDatabase(_ context.Context, db *models.Database) error {
	defer s.lock()()

	db.Prepare()
	now := s.now()
	if db.CreatedAt.IsZero() {
		db.CreatedAt = now
	}
	db.UpdatedAt = now
	db.ID = s.data.id()
	s.data.databases[db.ID] = *db
	return nil
}

func (s *MemoryStore) GetDatabase(_ context.Context, id int64) (*models.Database, error) {
	defer s.lock()()

	db, ok := s.data.databases[id]
	if !ok {
		return nil, nil
	}
	return &db, nil
}

func (s *MemoryStore) GetEarliestDatabase(_ context.Context) (*models.Database, error) {
	defer s.lock()()

	var earliest *models.Database
	for _, db := range s.data.databases {
		db := db
		if earliest == nil ||
			db.CreatedAt.Before(earliest.CreatedAt) ||
			(db.CreatedAt.Equal(earliest.CreatedAt) && db.ID < earliest.ID) {
			earliest = &db
		}
	}
	return earliest, nil
}

// LockDatabase relies on the store mutex held by Transaction.
func (s *MemoryStore) LockDatabase(ctx context.Context, id int64) (*models.Database, error) {
	return s.GetDatabase(ctx, id)
}

func (s *MemoryStore) UpdateDatabase(_ context.Context, db *models.Database) error {
	defer s.lock()()

	existing, ok := s.data.databases[db.ID]
	if !ok {
		return nil
	}
	db.Prepare()
	existing.Name = db.Name
	existing.Slug = db.Slug
	existing.UpdatedAt = s.now()
	db.UpdatedAt = existing.UpdatedAt
	s.data.databases[db.ID] = existing
	return nil
}

func (s *MemoryStore) DeleteDatabase(_ context.Context, id int64) error {
	defer s.lock()()

	for lid, l := range s.data.links {
		if l.DatabaseID == id {
			delete(s.data.links, lid)
		}
	}
	for tid, t := range s.data.tables {
		if t.DatabaseID == id {
			s.deleteTableRows(tid)
		}
	}
	delete(s.data.databases, id)
	return nil
}

// Tables

func (s *MemoryStore) ListTables(_ context.Context, databaseID int64) ([]models.Table, error) {
	defer s.lock()()

	tables := []models.Table{}
	for _, t := range s.data.tables {
		if t.DatabaseID == databaseID {
			tables = append(tables, t)
		}
	}
	sort.Slice(tables, func(i, j int) bool {
		if !tables[i].CreatedAt.Equal(tables[j].CreatedAt) {
			return tables[i].CreatedAt.Before(tables[j].CreatedAt)
		}
		return tables[i].ID < tables[j].ID
	})
	return tables, nil
}

func (s *MemoryStore) GetTable(_ context.Context, id int64) (*models.Table, error) {
	defer s.lock()()

	t, ok := s.data.tables[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (s *MemoryStore) checkTableName(databaseID, id int64, name string) error {
	for _, t := range s.data.tables {
		if t.DatabaseID == databaseID && t.ID != id && t.Name == name {
			return fmt.Errorf("%w: table %q already exists", ErrConflict, name)
		}
	}
	return nil
}

func (s *MemoryStore) CreateTable(_ context.Context, t *models.Table) error {
	defer s.lock()()

	if _, ok := s.data.databases[t.DatabaseID]; !ok {
		return fmt.Errorf("%w: database %d does not exist", ErrConflict, t.DatabaseID)
	}
	if err := s.checkTableName(t.DatabaseID, 0, t.Name); err != nil {
		return err
	}

	now := s.now()
	t.CreatedAt = now
	t.UpdatedAt = now
	t.ID = s.data.id()

	row := *t
	row.Fields = nil
	s.data.tables[t.ID] = row
	return nil
}

func (s *MemoryStore) UpdateTable(_ context.Context, t *models.Table) error {
	defer s.lock()()

	existing, ok := s.data.tables[t.ID]
	if !ok {
		return nil
	}
	if err := s.checkTableName(existing.DatabaseID, t.ID, t.Name); err != nil {
		return err
	}
	existing.Name = t.Name
	existing.X = t.X
	existing.Y = t.Y
	existing.UpdatedAt = s.now()
	t.UpdatedAt = existing.UpdatedAt
	s.data.tables[t.ID] = existing
	return nil
}

func (s *MemoryStore) DeleteTable(_ context.Context, id int64) error {
	defer s.lock()()

	for lid, l := range s.data.links {
		if l.SourceTableID == id || l.TargetTableID == id {
			delete(s.data.links, lid)
		}
	}
	s.deleteTableRows(id)
	return nil
}

func (s *MemoryStore) deleteTableRows(id int64) {
	for fid, f := range s.data.fields {
		if f.TableID == id {
			delete(s.data.fields, fid)
		}
	}
	delete(s.data.tables, id)
}

// Fields

func sortFields(fields []models.Field) {
	sort.Slice(fields, func(i, j int) bool {
		a, b := fields[i], fields[j]
		if a.TableID != b.TableID {
			return a.TableID < b.TableID
		}
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

func (s *MemoryStore) ListFields(_ context.Context, tableID int64) ([]models.Field, error) {
	defer s.lock()()

	fields := []models.Field{}
	for _, f := range s.data.fields {
		if f.TableID == tableID {
			fields = append(fields, f)
		}
	}
	sortFields(fields)
	return fields, nil
}

func (s *MemoryStore) ListFieldsByDatabase(_ context.Context, databaseID int64) ([]models.Field, error) {
	defer s.lock()()

	fields := []models.Field{}
	for _, f := range s.data.fields {
		if t, ok := s.data.tables[f.TableID]; ok && t.DatabaseID == databaseID {
			fields = append(fields, f)
		}
	}
	sortFields(fields)
	return fields, nil
}

func (s *MemoryStore) GetField(_ context.Context, id int64) (*models.Field, error) {
	defer s.lock()()

	f, ok := s.data.fields[id]
	if !ok {
		return nil, nil
	}
	return &f, nil
}

func (s *MemoryStore) checkFieldName(tableID, id int64, name string) error {
	for _, f := range s.data.fields {
		if f.TableID == tableID && f.ID != id && f.Name == name {
			return fmt.Errorf("%w: field %q already exists", ErrConflict, name)
		}
	}
	return nil
}

func (s *MemoryStore) CreateField(_ context.Context, f *models.Field) error {
	defer s.lock()()

	if _, ok := s.data.tables[f.TableID]; !ok {
		return fmt.Errorf("%w: table %d does not exist", ErrConflict, f.TableID)
	}
	if err := s.checkFieldName(f.TableID, 0, f.Name); err != nil {
		return err
	}

	now := s.now()
	f.CreatedAt = now
	f.UpdatedAt = now
	f.ID = s.data.id()
	s.data.fields[f.ID] = *f
	return nil
}

func (s *MemoryStore) UpdateField(_ context.Context, f *models.Field) error {
	defer s.lock()()

	existing, ok := s.data.fields[f.ID]
	if !ok {
		return nil
	}
	if err := s.checkFieldName(existing.TableID, f.ID, f.Name); err != nil {
		return err
	}

	f.TableID = existing.TableID
	f.CreatedAt = existing.CreatedAt
	f.UpdatedAt = s.now()
	s.data.fields[f.ID] = *f
	return nil
}

func (s *MemoryStore) DeleteField(_ context.Context, id int64) error {
	defer s.lock()()

	for _, l := range s.data.links {
		if l.SourceFieldID == id || l.TargetFieldID == id {
			return fmt.Errorf("%w: field %d is referenced by link %d", ErrConflict, id, l.ID)
		}
	}
	delete(s.data.fields, id)
	return nil
}

func (s *MemoryStore) DeleteFieldsByTable(_ context.Context, tableID int64) (int64, error) {
	defer s.lock()()

	var n int64
	for fid, f := range s.data.fields {
		if f.TableID != tableID {
			continue
		}
		for _, l := range s.data.links {
			if l.SourceFieldID == fid || l.TargetFieldID == fid {
				return 0, fmt.Errorf("%w: field %d is referenced by link %d", ErrConflict, fid, l.ID)
			}
		}
	}
	for fid, f := range s.data.fields {
		if f.TableID == tableID {
			delete(s.data.fields, fid)
			n++
		}
	}
	return n, nil
}

// Links

func (s *MemoryStore) withNames(l models.Link) models.Link {
	l.SourceTable = s.data.tables[l.SourceTableID].Name
	l.SourceField = s.data.fields[l.SourceFieldID].Name
	l.TargetTable = s.data.tables[l.TargetTableID].Name
	l.TargetField = s.data.fields[l.TargetFieldID].Name
	return l
}

func (s *MemoryStore) ListLinks(_ context.Context, databaseID int64) ([]models.Link, error) {
	defer s.lock()()

	links := []models.Link{}
	for _, l := range s.data.links {
		if l.DatabaseID == databaseID {
			links = append(links, s.withNames(l))
		}
	}
	sort.Slice(links, func(i, j int) bool { return links[i].ID < links[j].ID })
	return links, nil
}

func (s *MemoryStore) GetLink(_ context.Context, id int64) (*models.Link, error) {
	defer s.lock()()

	l, ok := s.data.links[id]
	if !ok {
		return nil, nil
	}
	l = s.withNames(l)
	return &l, nil
}

func (s *MemoryStore) checkLinkRefs(l *models.Link) error {
	if _, ok := s.data.databases[l.DatabaseID]; !ok {
		return fmt.Errorf("%w: database %d does not exist", ErrConflict, l.DatabaseID)
	}
	for _, id := range []int64{l.SourceTableID, l.TargetTableID} {
		if _, ok := s.data.tables[id]; !ok {
			return fmt.Errorf("%w: table %d does not exist", ErrConflict, id)
		}
	}
	for _, id := range []int64{l.SourceFieldID, l.TargetFieldID} {
		if _, ok := s.data.fields[id]; !ok {
			return fmt.Errorf("%w: field %d does not exist", ErrConflict, id)
		}
	}
	return nil
}

func (s *MemoryStore) CreateLink(_ context.Context, l *models.Link) error {
	defer s.lock()()

	if err := s.checkLinkRefs(l); err != nil {
		return err
	}

	now := s.now()
	l.CreatedAt = now
	l.UpdatedAt = now
	l.ID = s.data.id()
	s.data.links[l.ID] = *l
	return nil
}

func (s *MemoryStore) UpdateLink(_ context.Context, l *models.Link) error {
	defer s.lock()()

	existing, ok := s.data.links[l.ID]
	if !ok {
		return nil
	}
	if err := s.checkLinkRefs(l); err != nil {
		return err
	}
	existing.SourceTableID = l.SourceTableID
	existing.SourceFieldID = l.SourceFieldID
	existing.TargetTableID = l.TargetTableID
	existing.TargetFieldID = l.TargetFieldID
	existing.UpdatedAt = s.now()
	l.UpdatedAt = existing.UpdatedAt
	s.data.links[l.ID] = existing
	return nil
}

func (s *MemoryStore) DeleteLink(_ context.Context, id int64) error {
	defer s.lock()()

	delete(s.data.links, id)
	return nil
}

func (s *MemoryStore) DeleteLinksByTable(_ context.Context, tableID int64) (int64, error) {
	defer s.lock()()

	var n int64
	for lid, l := range s.data.links {
		if l.SourceTableID == tableID || l.TargetTableID == tableID {
			delete(s.data.links, lid)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) CountLinksByField(_ context.Context, fieldID int64) (int64, error) {
	defer s.lock()()

	var n int64
	for _, l := range s.data.links {
		if l.SourceFieldID == fieldID || l.TargetFieldID == fieldID {
			n++
		}
	}
	return n, nil
}
