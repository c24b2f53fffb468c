// Package cycler reads per-cycle electrochemical records from battery cycler
// exports and normalizes them into Tables with the columns TimeMin (minutes),
// Vol (volts), Crate (signed C-rate, negative while discharging) and an
// optional Temp.
//
// Two export formats are supported:
//
//   - PNE: one comma-separated SaveData<N>.csv per cycle, optionally backed up
//     under Restore/. The directory carries a Pattern/ folder.
//   - Toyo: a single tab-separated Shift-JIS export whose Condition column
//     labels rows with "Cycle <n>". The export is parsed once and cached.
//
// Use NewLoader to pick the format from a directory, or NewLoaderByType for
// an explicit "pne" or "toyo".
package cycler
