package domain

import (
	"fmt"
	"strings"
)

// Domain names one of the fixed medical datasets.
type Domain string

// Supported domains.
const (
	Heart    Domain = "heart"
	Cancer   Domain = "cancer"
	Diabetes Domain = "diabetes"
	Unknown  Domain = "unknown"
)

// Domains lists the data-backed domains in routing priority order.
func Domains() []Domain {
	return []Domain{Heart, Cancer, Diabetes}
}

// ParseDomain converts a string to a Domain.
func ParseDomain(s string) (Domain, error) {
	switch d := Domain(strings.ToLower(strings.TrimSpace(s))); d {
	case Heart, Cancer, Diabetes:
		return d, nil
	default:
		return Unknown, fmt.Errorf("%w: %q", ErrUnknownDomain, s)
	}
}

// Known reports whether d addresses a dataset.
func (d Domain) Known() bool {
	return d == Heart || d == Cancer || d == Diabetes
}

func (d Domain) String() string { return string(d) }

// KeyPrefix namespaces every key this service writes to shared storage.
const KeyPrefix = "medagent:"
