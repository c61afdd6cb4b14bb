package valueobjects

import (
	"strconv"
	"strings"

	pkgerrors "friendship-backend/pkg/errors"
)

// Degree is the number of hops between two users in the friendship graph
type Degree int

const (
	DegreeDirect Degree = 1
	DegreeSecond Degree = 2
	DegreeThird  Degree = 3

	MaxDegree = DegreeThird
)

// NewDegree validates that d is a supported degree
func NewDegree(d int) (Degree, error) {
	degree := Degree(d)
	if !degree.IsValid() {
		return 0, pkgerrors.NewInvalidDegreeError(d)
	}
	return degree, nil
}

// ParseDegree parses a degree supplied as text, such as a query parameter
func ParseDegree(s string) (Degree, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, pkgerrors.NewInvalidDegreeError(0).
			WithDetails(map[string]interface{}{"degree": s, "allowed": []int{1, 2, 3}}).
			WithCause(err)
	}
	return NewDegree(n)
}

// IsValid reports whether the degree is one the resolver supports
func (d Degree) IsValid() bool {
	return d >= DegreeDirect && d <= MaxDegree
}

// Int returns the degree as an int
func (d Degree) Int() int {
	return int(d)
}
