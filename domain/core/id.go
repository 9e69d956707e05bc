package core

import (
	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Short returns the trailing eight characters, used in generated file names.
// UUID v7 prefixes are timestamps, so the tail carries the random bits.
func (id ID) Short() string {
	s := string(id)
	if len(s) <= 8 {
		return s
	}
	return s[len(s)-8:]
}

// Domain-specific ID types
type (
	FigureID ID
	ReportID ID
)

func (id FigureID) String() string { return ID(id).String() }
func (id ReportID) String() string { return ID(id).String() }

// Short returns the trailing eight characters of the report id
func (id ReportID) Short() string { return ID(id).Short() }

func NewFigureID() FigureID { return FigureID(NewID()) }
func NewReportID() ReportID { return ReportID(NewID()) }
