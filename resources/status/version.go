package status

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a dotted server version such as "10.11.0.6".
type Version struct {
	Major int
	Minor int
	Micro int
	Patch int
	raw   string
	valid bool
}

// ParseVersion parses up to four dot separated numbers. Anything else
// yields an invalid Version that still remembers its input.
func ParseVersion(s string) Version {
	v := Version{raw: s}

	s = strings.TrimSpace(s)
	if s == "" {
		return v
	}

	parts := strings.Split(s, ".")
	if len(parts) > 4 {
		return v
	}

	nums := make([]int, 4)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return v
		}
		nums[i] = n
	}

	v.Major, v.Minor, v.Micro, v.Patch = nums[0], nums[1], nums[2], nums[3]
	v.valid = true
	return v
}

// IsValid reports whether the version parsed.
func (v Version) IsValid() bool { return v.valid }

// Raw returns the string the version was parsed from.
func (v Version) Raw() string { return v.raw }

func (v Version) String() string {
	if !v.valid {
		return v.raw
	}
	return fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Minor, v.Micro, v.Patch)
}

// Compare returns -1, 0 or 1 as v is older than, equal to or newer than o.
func (v Version) Compare(o Version) int {
	a := [4]int{v.Major, v.Minor, v.Micro, v.Patch}
	b := [4]int{o.Major, o.Minor, o.Micro, o.Patch}
	for i := range a {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}
