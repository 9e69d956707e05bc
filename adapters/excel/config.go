package excel

// ReaderConfig holds configuration for reading tabular data files
type ReaderConfig struct {
	FilePath string `json:"file_path"`
	Sheet    string `json:"sheet"`
}

// DefaultReaderConfig returns sensible defaults for file ingestion
func DefaultReaderConfig(filePath string) ReaderConfig {
	return ReaderConfig{
		FilePath: filePath,
		Sheet:    "Sheet1",
	}
}
