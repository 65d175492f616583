package models

// Row is a raw record parsed from a source table, keyed by header name.
// Values are usually strings; numeric cells may arrive as numbers.
type Row map[string]any

// Transaction represents a normalized expense record
type Transaction struct {
	TransactionDate string  `json:"transaction_date" yaml:"transaction_date"` // Verbatim from the source, never reformatted
	PostDate        string  `json:"post_date" yaml:"post_date"`
	Description     string  `json:"description" yaml:"description"`
	Category        string  `json:"category" yaml:"category"` // Trimmed, never empty once retained
	Type            string  `json:"type" yaml:"type"`
	Amount          float64 `json:"amount" yaml:"amount"` // Always negative once retained
}

// SourceTable is one parsed tabular source (one uploaded file)
type SourceTable struct {
	Name    string   `json:"name"`
	Format  string   `json:"format"` // "delimited" or "xlsx"
	Headers []string `json:"headers"`
	Rows    []Row    `json:"-"`
}

// SourceInfo describes a source that contributed to a session
type SourceInfo struct {
	Name     string `json:"name" yaml:"name"`
	Format   string `json:"format" yaml:"format"`
	Rows     int    `json:"rows" yaml:"rows"`
	Retained int    `json:"retained" yaml:"retained"`
}
