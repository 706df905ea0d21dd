package model

import (
	"fmt"
	"strconv"
	"strings"
)

type Version struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
}

func ParseVersion(raw string) (Version, error) {
	s := strings.TrimPrefix(strings.TrimPrefix(raw, "v"), "V")
	major, minor, ok := strings.Cut(s, ".")
	if !ok {
		return Version{}, fmt.Errorf("version %q must look like v<major>.<minor>", raw)
	}
	ma, err := strconv.Atoi(major)
	if err != nil || ma < 0 {
		return Version{}, fmt.Errorf("version %q has an invalid major part", raw)
	}
	mi, err := strconv.Atoi(minor)
	if err != nil || mi < 0 {
		return Version{}, fmt.Errorf("version %q has an invalid minor part", raw)
	}
	return Version{Major: ma, Minor: mi}, nil
}

func (v Version) String() string {
	return fmt.Sprintf("v%d.%d", v.Major, v.Minor)
}

func (v Version) Less(o Version) bool {
	if v.Major != o.Major {
		return v.Major < o.Major
	}
	return v.Minor < o.Minor
}

// NextMinor is used for non-substantive edits, NextMajor for substantive ones.
func (v Version) NextMinor() Version { return Version{Major: v.Major, Minor: v.Minor + 1} }
func (v Version) NextMajor() Version { return Version{Major: v.Major + 1, Minor: 0} }
