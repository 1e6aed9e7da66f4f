// Package network loads the metro network catalog (lines, depots and train
// capacity) from YAML or JSON files and persists it in SQLite.
package network
