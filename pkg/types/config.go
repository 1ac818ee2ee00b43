package types

// ExportConfig holds settings for CSV export.
// Per prd004-export R2.2.
type ExportConfig struct {
	// ChunkSize overrides the automatic batch size tier (default 0, automatic).
	ChunkSize uint64 `json:"chunk_size" yaml:"chunk_size"`
}

// HistoryConfig holds settings for the export history database.
// Per prd005-history R1.1.
type HistoryConfig struct {
	// Path is the SQLite database location (default ".h5cruncher/history.db").
	Path string `json:"path" yaml:"path"`

	// Disabled turns off job recording entirely.
	Disabled bool `json:"disabled" yaml:"disabled"`
}

// PreviewConfig holds settings for dataset previews.
type PreviewConfig struct {
	// Limit caps how many elements a preview materializes (default 10000).
	Limit int `json:"limit" yaml:"limit"`
}

// Config groups all tool configuration.
type Config struct {
	Export  ExportConfig  `json:"export" yaml:"export"`
	History HistoryConfig `json:"history" yaml:"history"`
	Preview PreviewConfig `json:"preview" yaml:"preview"`
}
