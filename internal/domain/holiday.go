package domain

// Holiday is a public holiday on a civil date.
// Corresponds to holidays table in PostgreSQL.
type Holiday struct {
	Date string // YYYY-MM-DD
	Name string
}
