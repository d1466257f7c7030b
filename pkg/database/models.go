package database

import "time"

// Preference is one row of the key/value store
type Preference struct {
	Key          string    `db:"key"`
	Value        string    `db:"value"`
	LastModified time.Time `db:"lastmodified"`
}

// ColumnWidthsKey is where board column widths are stored
const ColumnWidthsKey = "kanbanWidths"

// MinColumnWidth is the smallest share, in percent, a column can be resized to
const MinColumnWidth = 12.0

// ColumnWidths are the board column shares in percent, in board order.
// They sum to 100.
type ColumnWidths [4]float64

// DefaultColumnWidths splits the board in equal quarters
var DefaultColumnWidths = ColumnWidths{25, 25, 25, 25}
