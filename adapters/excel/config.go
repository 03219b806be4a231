package excel

import "errors"

var (
	ErrMissingFilePath   = errors.New("excel: workbook path is required")
	ErrMissingSheetName  = errors.New("excel: append names no sheet")
	ErrSheetNotFound     = errors.New("excel: sheet not found")
	ErrInvalidFileFormat = errors.New("excel: not an xlsx workbook")
)

// Config holds configuration for the Excel appender
type Config struct {
	FilePath string // Workbook written to; created on first append
}

// Validate reports a missing workbook path
func (c *Config) Validate() error {
	if c.FilePath == "" {
		return ErrMissingFilePath
	}
	return nil
}
