// Package logtail reads the tail of composer's log file.
//
// Read extracts the last N lines with a ring buffer, so memory stays
// proportional to N rather than to the file size. ParseEntry decodes the
// JSON lines written by the logging package, and Activity filters them down
// to registry operations (entries with an op field) for the Review step.
//
// A missing log file is not an error: composer may not have written anything
// yet. Lines that are not JSON are skipped by Activity.
//
//	entries, err := logtail.Activity(cfg.LogFile, 10, 400)
//	for _, e := range entries {
//		fmt.Println(e.Summary())
//	}
package logtail
