package domain

import (
	"fmt"
	"regexp"
)

var nonDigits = regexp.MustCompile(`[^0-9]`)

// KubeVersion is a cluster version reduced to numeric major and minor parts.
type KubeVersion struct {
	Major string
	Minor string
}

// NewKubeVersion strips every non-digit from major and minor ("28+" becomes
// "28"). Either part ending up empty is an error.
func NewKubeVersion(major, minor string) (KubeVersion, error) {
	v := KubeVersion{
		Major: nonDigits.ReplaceAllString(major, ""),
		Minor: nonDigits.ReplaceAllString(minor, ""),
	}
	if v.Major == "" || v.Minor == "" {
		return KubeVersion{}, fmt.Errorf("malformed server version major=%q minor=%q", major, minor)
	}
	return v, nil
}

// String returns "<major>.<minor>".
func (v KubeVersion) String() string {
	return v.Major + "." + v.Minor
}
