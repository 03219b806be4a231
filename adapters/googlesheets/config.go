package googlesheets

// Value input options accepted by the Sheets API
const (
	InputUserEntered = "USER_ENTERED"
	InputRaw         = "RAW"
)

// Config represents configuration specific to the Google Sheets appender
type Config struct {
	SpreadsheetID string
	// ValueInputOption controls how cells are parsed (default: USER_ENTERED,
	// so "10/01/2026" lands as a date the way a person typing it would)
	ValueInputOption string
}
