// Package files locates cycler exports on disk and writes command output.
//
// Discovery understands the two instrument layouts: PNE directories carry a
// Pattern folder and one SaveData<N>.csv per cycle (optionally mirrored under
// Restore), while Toyo directories hold a single consolidated *.csv or *.txt
// export.
//
//	d := files.NewDiscovery("")
//	saves, err := d.FindSaveDataFiles("/data/cell_58mAh")
//	cycles := files.SortedKeys(saves)
//
// Manager writes reports and JSON results, creating parent directories.
package files
