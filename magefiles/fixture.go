//go:build mage

package main

import (
	"fmt"

	"github.com/pdiddy/h5cruncher/internal/hdf5/hdf5test"
)

// fixtureFile is where Fixture writes the sample data file.
const fixtureFile = "demo.h5"

// Fixture writes a small sample data file for trying the CLI by hand:
// a plain compound table at /trades and a pandas-store style group at
// /returns (axis and block-item label datasets plus a value block).
func Fixture() error {
	b := hdf5test.New().
		Compound("/trades",
			hdf5test.Col{Name: "id", Ints: []int64{1, 2, 3, 4, 5, 6, 7, 8}},
			hdf5test.Col{Name: "symbol", Width: 8, Strs: []string{"AAPL", "MSFT", "AAPL", "GOOG", "MSFT", "AAPL", "GOOG", "MSFT"}},
			hdf5test.Col{Name: "price", Floats: []float64{187.25, 410.1, 186.9, 151.3, 409.75, 188.0, 152.05, 411.4}},
			hdf5test.Col{Name: "qty", Ints: []int64{100, 50, 200, 75, 25, 150, 60, 40}},
		).
		Strings("/returns/axis0", 8, "open", "close").
		Int64("/returns/axis1", []uint64{4}, 0, 1, 2, 3).
		Strings("/returns/block0_items", 8, "open", "close").
		Float64("/returns/block0_values", []uint64{2, 4},
			1.01, 1.02, 0.99, 1.0,
			1.02, 1.0, 1.01, 0.98)
	if err := b.WriteFile(fixtureFile); err != nil {
		return fmt.Errorf("writing %s: %w", fixtureFile, err)
	}
	fmt.Printf("Wrote %s. Try: %s/%s list %s\n", fixtureFile, binDir, binName, fixtureFile)
	return nil
}
