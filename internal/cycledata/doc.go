// Package cycledata holds the loaded cycle tables of a data source and
// loads several sources concurrently.
package cycledata
