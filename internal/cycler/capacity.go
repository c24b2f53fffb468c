package cycler

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultCapacity is returned when no nominal capacity can be derived
const DefaultCapacity = 58.0

var capacityPattern = regexp.MustCompile(`(\d+([-.]\d+)?)mAh`)

// NameCapacity parses a nominal capacity in mAh from a file or directory
// name. A dash is read as a decimal point, so "Test_4-5mAh" gives 4.5.
func NameCapacity(name string) (float64, bool) {
	m := capacityPattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], "-", "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
