package services

import (
	"context"
	"errors"
	"fmt"

	"dbdesigner/internal/models"
	"dbdesigner/internal/repositories"

	"github.com/sirupsen/logrus"
)

type Position struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

// FieldPayload is a submitted field. Nil attributes keep their stored
// value on update.
type FieldPayload struct {
	ID           models.RefID `json:"id"`
	Name         string       `json:"name"`
	FieldType    *string      `json:"field_type"`
	Length       *int         `json:"lenght"`
	DefaultValue *string      `json:"default_value"`
	PrimaryField *models.Flag `json:"primary_field"`
	AI           *models.Flag `json:"ai"`
	Nullable     *models.Flag `json:"nullable"`
	IndexField   *models.Flag `json:"index_field"`
}

type TablePayload struct {
	ID       models.RefID   `json:"id"`
	Name     string         `json:"name"`
	Position *Position      `json:"position"`
	Fields   []FieldPayload `json:"fields"`
}

// LinkPayload references its endpoints by table and field name.
type LinkPayload struct {
	ID          models.RefID `json:"id"`
	SourceTable string       `json:"sourceTable"`
	SourceField string       `json:"sourceField"`
	TargetTable string       `json:"targetTable"`
	TargetField string       `json:"targetField"`
}

// ReconcileRequest targets the database named by ID; 0 selects the
// earliest created one.
type ReconcileRequest struct {
	ID     models.TargetID `json:"id"`
	Tables []TablePayload   `json:"tables"`
	Links  []LinkPayload    `json:"links"`
}

type Counts struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
}

// Unmatched lists stored ids that were absent from the submitted graph.
// They are reported, never deleted.
type Unmatched struct {
	Tables []int64 `json:"tables"`
	Fields []int64 `json:"fields"`
	Links  []int64 `json:"links"`
}

type ReconcileResult struct {
	DatabaseID int64  `json:"database_id"`
	Tables     Counts `json:"tables"`
	Fields     Counts `json:"fields"`
	Links      Counts `json:"links"`
	// TableIDs and LinkIDs hold the stored id of each submitted entry.
	TableIDs  []int64   `json:"table_ids"`
	LinkIDs   []int64   `json:"link_ids"`
	Unmatched Unmatched `json:"unmatched"`
}

type ReconcileService struct {
	store repositories.Store
}

func NewReconcileService(store repositories.Store) *ReconcileService {
	return &ReconcileService{store: store}
}

// Reconcile merges a submitted table/field/link graph into one database.
// Matching records are patched, the rest are inserted, and nothing is
// deleted. The whole request runs in one transaction holding the database
// row lock, so resubmitting the same payload converges to the same state.
func (s *ReconcileService) Reconcile(ctx context.Context, caller Caller, req *ReconcileRequest, opts WriteOptions) (*ReconcileResult, error) {
	if err := opts.check(); err != nil {
		return nil, err
	}
	if err := validateReconcileRequest(req); err != nil {
		return nil, err
	}
	databaseID, _ := req.ID.Int64()

	result := &ReconcileResult{
		TableIDs:  make([]int64, len(req.Tables)),
		LinkIDs:   make([]int64, len(req.Links)),
		Unmatched: Unmatched{Tables: []int64{}, Fields: []int64{}, Links: []int64{}},
	}

	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		db, err := lockDatabase(ctx, tx, databaseID)
		if err != nil {
			return err
		}
		if err := authorize(caller, db); err != nil {
			return err
		}
		result.DatabaseID = db.ID

		if err := reconcileTables(ctx, tx, db.ID, req.Tables, result); err != nil {
			return err
		}
		for i := range req.Tables {
			if err := reconcileFields(ctx, tx, result.TableIDs[i], i, req.Tables[i].Fields, result); err != nil {
				return err
			}
		}
		return reconcileLinks(ctx, tx, db.ID, req.Links, result)
	})
	if err != nil {
		logReconcileFailure(databaseID, err)
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"database_id":     result.DatabaseID,
		"tables_inserted": result.Tables.Inserted,
		"tables_updated":  result.Tables.Updated,
		"fields_inserted": result.Fields.Inserted,
		"fields_updated":  result.Fields.Updated,
		"links_inserted":  result.Links.Inserted,
		"links_updated":   result.Links.Updated,
	}).Info("schema reconciled")

	return result, nil
}

// ReconcileTable patches one stored table and merges its fields with the
// same rules as Reconcile. An empty name keeps the stored one.
func (s *ReconcileService) ReconcileTable(ctx context.Context, caller Caller, tableID int64, payload *TablePayload, opts WriteOptions) (*models.Table, error) {
	if err := opts.check(); err != nil {
		return nil, err
	}
	if payload.Name != "" {
		if err := validateName(KindTable, payload.Name); err != nil {
			return nil, &EntityError{Kind: KindTable, Err: err}
		}
	}
	for j := range payload.Fields {
		if err := validateField(&payload.Fields[j]); err != nil {
			return nil, &EntityError{Kind: KindField, Index: j, Err: err}
		}
	}

	var table *models.Table
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		t, err := tx.GetTable(ctx, tableID)
		if err != nil {
			return err
		}
		if t == nil {
			return notFound(KindTable, tableID)
		}
		db, err := lockDatabase(ctx, tx, t.DatabaseID)
		if err != nil {
			return err
		}
		if err := authorize(caller, db); err != nil {
			return err
		}

		if payload.Name != "" {
			t.Name = payload.Name
		}
		applyPosition(t, payload.Position)
		if err := tx.UpdateTable(ctx, t); err != nil {
			return storeError(KindTable, 0, err)
		}

		result := &ReconcileResult{}
		if err := reconcileFields(ctx, tx, t.ID, 0, payload.Fields, result); err != nil {
			return err
		}

		if t.Fields, err = tx.ListFields(ctx, t.ID); err != nil {
			return err
		}
		table = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	return table, nil
}

// lockDatabase resolves id 0 to the earliest database and locks the row.
func lockDatabase(ctx context.Context, tx repositories.Store, id int64) (*models.Database, error) {
	if id == 0 {
		earliest, err := tx.GetEarliestDatabase(ctx)
		if err != nil {
			return nil, err
		}
		if earliest == nil {
			return nil, fmt.Errorf("%w: no databases found", ErrNotFound)
		}
		id = earliest.ID
	}

	db, err := tx.LockDatabase(ctx, id)
	if err != nil {
		return nil, err
	}
	if db == nil {
		return nil, notFound(KindDatabase, id)
	}
	return db, nil
}

func reconcileTables(ctx context.Context, tx repositories.Store, databaseID int64, payload []TablePayload, result *ReconcileResult) error {
	persisted, err := tx.ListTables(ctx, databaseID)
	if err != nil {
		return err
	}

	refs := make([]MatchRef, len(payload))
	for i, t := range payload {
		refs[i] = MatchRef{ID: t.ID.Int64(), Key: t.Name}
	}
	plan, err := MatchEntities(KindTable, persisted,
		func(t models.Table) int64 { return t.ID },
		func(t models.Table) string { return t.Name },
		refs,
	)
	if err != nil {
		return err
	}

	stored := make(map[int64]models.Table, len(persisted))
	for _, t := range persisted {
		stored[t.ID] = t
	}

	renames := make(map[int64]string, len(plan.Decisions))
	for i, d := range plan.Decisions {
		if d.Action == ActionUpdate {
			renames[d.ID] = payload[i].Name
		}
	}
	current := make(map[int64]string, len(persisted))
	for _, t := range persisted {
		current[t.ID] = t.Name
	}
	if needsStaging(current, renames) {
		for id, name := range renames {
			t := stored[id]
			if t.Name == name {
				continue
			}
			t.Name = stagingName(id)
			if err := tx.UpdateTable(ctx, &t); err != nil {
				return err
			}
		}
	}

	// Updates run before inserts so a rename frees its old name first.
	for i, d := range plan.Decisions {
		if d.Action != ActionUpdate {
			continue
		}
		t := stored[d.ID]
		t.Name = payload[i].Name
		applyPosition(&t, payload[i].Position)
		if err := tx.UpdateTable(ctx, &t); err != nil {
			return storeError(KindTable, i, err)
		}
		result.TableIDs[i] = t.ID
		result.Tables.Updated++
	}
	for i, d := range plan.Decisions {
		if d.Action != ActionInsert {
			continue
		}
		t := models.Table{DatabaseID: databaseID, Name: payload[i].Name}
		applyPosition(&t, payload[i].Position)
		if err := tx.CreateTable(ctx, &t); err != nil {
			return storeError(KindTable, i, err)
		}
		result.TableIDs[i] = t.ID
		result.Tables.Inserted++
	}

	result.Unmatched.Tables = append(result.Unmatched.Tables, plan.Unmatched...)
	return nil
}

func reconcileFields(ctx context.Context, tx repositories.Store, tableID int64, tableIndex int, payload []FieldPayload, result *ReconcileResult) error {
	persisted, err := tx.ListFields(ctx, tableID)
	if err != nil {
		return err
	}

	refs := make([]MatchRef, len(payload))
	for i, f := range payload {
		refs[i] = MatchRef{ID: f.ID.Int64(), Key: f.Name}
	}
	plan, err := MatchEntities(KindField, persisted,
		func(f models.Field) int64 { return f.ID },
		func(f models.Field) string { return f.Name },
		refs,
	)
	if err != nil {
		var entityErr *EntityError
		if errors.As(err, &entityErr) {
			entityErr.TableIndex = tableIndex
		}
		return err
	}

	stored := make(map[int64]models.Field, len(persisted))
	maxOrder := 0
	for _, f := range persisted {
		stored[f.ID] = f
		if f.Order > maxOrder {
			maxOrder = f.Order
		}
	}

	renames := make(map[int64]string, len(plan.Decisions))
	for i, d := range plan.Decisions {
		if d.Action == ActionUpdate {
			renames[d.ID] = payload[i].Name
		}
	}
	current := make(map[int64]string, len(persisted))
	for _, f := range persisted {
		current[f.ID] = f.Name
	}
	if needsStaging(current, renames) {
		for id, name := range renames {
			f := stored[id]
			if f.Name == name {
				continue
			}
			f.Name = stagingName(id)
			if err := tx.UpdateField(ctx, &f); err != nil {
				return err
			}
		}
	}

	for i, d := range plan.Decisions {
		if d.Action != ActionUpdate {
			continue
		}
		f := stored[d.ID]
		applyFieldPatch(&f, &payload[i])
		if err := tx.UpdateField(ctx, &f); err != nil {
			return fieldStoreError(i, tableIndex, err)
		}
		result.Fields.Updated++
	}

	// New fields go after every stored one; existing orders are never
	// rewritten.
	for i, d := range plan.Decisions {
		if d.Action != ActionInsert {
			continue
		}
		maxOrder++
		f := models.Field{TableID: tableID, Order: maxOrder}
		applyFieldPatch(&f, &payload[i])
		if err := tx.CreateField(ctx, &f); err != nil {
			return fieldStoreError(i, tableIndex, err)
		}
		result.Fields.Inserted++
	}

	result.Unmatched.Fields = append(result.Unmatched.Fields, plan.Unmatched...)
	return nil
}

func reconcileLinks(ctx context.Context, tx repositories.Store, databaseID int64, payload []LinkPayload, result *ReconcileResult) error {
	if len(payload) == 0 {
		persisted, err := tx.ListLinks(ctx, databaseID)
		if err != nil {
			return err
		}
		for _, l := range persisted {
			result.Unmatched.Links = append(result.Unmatched.Links, l.ID)
		}
		return nil
	}

	resolver, err := newLinkResolver(ctx, tx, databaseID)
	if err != nil {
		return err
	}
	resolved := make([]models.Link, len(payload))
	refs := make([]MatchRef, len(payload))
	for i, p := range payload {
		l, err := resolver.resolve(p)
		if err != nil {
			return &EntityError{Kind: KindLink, Index: i, Err: err}
		}
		l.DatabaseID = databaseID
		resolved[i] = l
		refs[i] = MatchRef{ID: p.ID.Int64(), Key: linkKey(l)}
	}

	persisted, err := tx.ListLinks(ctx, databaseID)
	if err != nil {
		return err
	}
	plan, err := MatchEntities(KindLink, persisted,
		func(l models.Link) int64 { return l.ID },
		linkKey,
		refs,
	)
	if err != nil {
		return err
	}

	for i, d := range plan.Decisions {
		l := resolved[i]
		switch d.Action {
		case ActionUpdate:
			l.ID = d.ID
			if err := tx.UpdateLink(ctx, &l); err != nil {
				return storeError(KindLink, i, err)
			}
			result.Links.Updated++
		default:
			if err := tx.CreateLink(ctx, &l); err != nil {
				return storeError(KindLink, i, err)
			}
			result.Links.Inserted++
		}
		result.LinkIDs[i] = l.ID
	}

	result.Unmatched.Links = append(result.Unmatched.Links, plan.Unmatched...)
	return nil
}

// linkResolver maps table and field names of one database to ids.
type linkResolver struct {
	tables map[string]int64
	fields map[int64]map[string]int64
}

func newLinkResolver(ctx context.Context, tx repositories.Store, databaseID int64) (*linkResolver, error) {
	tables, err := tx.ListTables(ctx, databaseID)
	if err != nil {
		return nil, err
	}
	fields, err := tx.ListFieldsByDatabase(ctx, databaseID)
	if err != nil {
		return nil, err
	}

	r := &linkResolver{
		tables: make(map[string]int64, len(tables)),
		fields: make(map[int64]map[string]int64, len(tables)),
	}
	for _, t := range tables {
		r.tables[t.Name] = t.ID
		r.fields[t.ID] = map[string]int64{}
	}
	for _, f := range fields {
		if byName, ok := r.fields[f.TableID]; ok {
			byName[f.Name] = f.ID
		}
	}
	return r, nil
}

func (r *linkResolver) endpoint(tableName, fieldName string) (int64, int64, error) {
	tableID, ok := r.tables[tableName]
	if !ok {
		return 0, 0, invalid("table %q does not exist", tableName)
	}
	fieldID, ok := r.fields[tableID][fieldName]
	if !ok {
		return 0, 0, invalid("field %q does not exist in table %q", fieldName, tableName)
	}
	return tableID, fieldID, nil
}

func (r *linkResolver) resolve(p LinkPayload) (models.Link, error) {
	l := models.Link{
		SourceTable: p.SourceTable,
		SourceField: p.SourceField,
		TargetTable: p.TargetTable,
		TargetField: p.TargetField,
	}

	var err error
	if l.SourceTableID, l.SourceFieldID, err = r.endpoint(p.SourceTable, p.SourceField); err != nil {
		return l, fmt.Errorf("source: %w", err)
	}
	if l.TargetTableID, l.TargetFieldID, err = r.endpoint(p.TargetTable, p.TargetField); err != nil {
		return l, fmt.Errorf("target: %w", err)
	}
	return l, nil
}

func linkKey(l models.Link) string {
	return fmt.Sprintf("%d.%d>%d.%d", l.SourceTableID, l.SourceFieldID, l.TargetTableID, l.TargetFieldID)
}

// needsStaging reports whether some rename targets a name that another
// renamed record still holds, as in a swap. Applying such renames one by
// one would trip the unique name constraint.
func needsStaging(current, renames map[int64]string) bool {
	holder := make(map[string]int64, len(current))
	for id, name := range current {
		holder[name] = id
	}
	for id, name := range renames {
		h, ok := holder[name]
		if !ok || h == id {
			continue
		}
		if next, renamed := renames[h]; renamed && next != name {
			return true
		}
	}
	return false
}

func stagingName(id int64) string {
	return fmt.Sprintf("__renaming_%d", id)
}

func applyPosition(t *models.Table, p *Position) {
	if p == nil {
		return
	}
	if p.X != nil {
		x := *p.X
		t.X = &x
	}
	if p.Y != nil {
		y := *p.Y
		t.Y = &y
	}
}

func applyFieldPatch(f *models.Field, p *FieldPayload) {
	f.Name = p.Name
	if p.FieldType != nil {
		f.FieldType = *p.FieldType
	}
	if p.Length != nil {
		f.Length = *p.Length
	}
	if p.DefaultValue != nil {
		f.DefaultValue = *p.DefaultValue
	}
	if p.PrimaryField != nil {
		f.PrimaryField = *p.PrimaryField
	}
	if p.AI != nil {
		f.AI = *p.AI
	}
	if p.Nullable != nil {
		f.Nullable = *p.Nullable
	}
	if p.IndexField != nil {
		f.IndexField = *p.IndexField
	}
}

// storeError attaches the entity position to a store failure and maps
// constraint violations to ErrConflict.
func storeError(kind string, index int, err error) error {
	if errors.Is(err, repositories.ErrConflict) {
		err = fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return &EntityError{Kind: kind, Index: index, Err: err}
}

func fieldStoreError(index, tableIndex int, err error) error {
	entityErr := storeError(KindField, index, err).(*EntityError)
	entityErr.TableIndex = tableIndex
	return entityErr
}

func logReconcileFailure(databaseID int64, err error) {
	entry := logrus.WithField("database_id", databaseID)
	var entityErr *EntityError
	if errors.As(err, &entityErr) {
		entry = entry.WithFields(logrus.Fields{
			"kind":        entityErr.Kind,
			"index":       entityErr.Index,
			"table_index": entityErr.TableIndex,
		})
	}
	entry.WithError(err).Warn("schema reconcile failed")
}
