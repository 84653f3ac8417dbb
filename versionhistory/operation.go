package versionhistory

// Operation classifies a save and is stored as the operation code of a HistoryRecord.
type Operation string

const (
	// OperationInsert marks the first version of an entity.
	OperationInsert Operation = "I"

	// OperationUpdate marks a version that replaced a previous one because at least one field changed.
	OperationUpdate Operation = "U"

	// OperationDelete is part of the operation taxonomy but never written: a deletion closes the open
	// interval and keeps the operation code of the closed record.
	OperationDelete Operation = "D"

	// OperationNoChange is the classification of a save that changed nothing. It never produces a record.
	OperationNoChange Operation = "S"
)

// IsRecordable reports whether a HistoryRecord may carry this operation code.
func (o Operation) IsRecordable() bool {
	return o == OperationInsert || o == OperationUpdate
}

// IsKnown reports whether the code is part of the operation taxonomy.
func (o Operation) IsKnown() bool {
	switch o {
	case OperationInsert, OperationUpdate, OperationDelete, OperationNoChange:
		return true
	default:
		return false
	}
}

// String provides a readable name for logging and debugging.
func (o Operation) String() string {
	switch o {
	case OperationInsert:
		return "insert"
	case OperationUpdate:
		return "update"
	case OperationDelete:
		return "delete"
	case OperationNoChange:
		return "no_change"
	default:
		return "unknown"
	}
}
