package models

import "time"

type Table struct {
	ID         int64     `json:"id"`
	DatabaseID int64     `json:"database_id"`
	Name       string    `json:"name"`
	X          *int      `json:"x"`
	Y          *int      `json:"y"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Fields     []Field   `json:"fields"`
}

// Field is a column of a designer table. Order controls rendering and is
// never renumbered once assigned.
type Field struct {
	ID           int64     `json:"id"`
	TableID      int64     `json:"table_id"`
	Name         string    `json:"name"`
	FieldType    string    `json:"field_type"`
	Length       int       `json:"lenght"`
	DefaultValue string    `json:"default_value"`
	PrimaryField Flag      `json:"primary_field"`
	AI           Flag      `json:"ai"`
	Nullable     Flag      `json:"nullable"`
	IndexField   Flag      `json:"index_field"`
	Order        int       `json:"order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Link is a foreign-key relationship between two fields. It is stored by
// ids; the names are filled in on read.
type Link struct {
	ID            int64     `json:"id"`
	DatabaseID    int64     `json:"database_id"`
	SourceTableID int64     `json:"source_table_id"`
	SourceFieldID int64     `json:"source_field_id"`
	TargetTableID int64     `json:"target_table_id"`
	TargetFieldID int64     `json:"target_field_id"`
	SourceTable   string    `json:"sourceTable"`
	SourceField   string    `json:"sourceField"`
	TargetTable   string    `json:"targetTable"`
	TargetField   string    `json:"targetField"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Schema is the full table/field/link graph of one database.
type Schema struct {
	DatabaseID int64   `json:"database_id"`
	Tables     []Table `json:"tables"`
	Links      []Link  `json:"links"`
}
