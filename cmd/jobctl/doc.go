// Command jobctl inspects the persisted job table of a stopped (or running)
// photo-jobs service.
//
// Usage:
//
//	jobctl list           list stored jobs in submission order
//	jobctl delete <id>    delete a stored job record
//	jobctl types          count stored jobs per type
//
// Output is an aligned table when stdout is a terminal and JSON otherwise.
// The database is located through DATABASE_DIR (default /database).
package main
