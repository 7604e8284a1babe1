package domain

// TableColumn represents a TableColumn model.
type TableColumn struct {
	ID    string
	Label string
	// Field names either a metadata field (name, namespace, age) or a key of ResourceObject.Fields.
	Field string
}

// ColumnSet is the input and output of the table columns pipeline.
type ColumnSet struct {
	TableID string
	Columns []TableColumn
}
