// Package model defines the record types flowing through the inspection
// pipeline and the error taxonomy shared by its stages.
package model

import (
	"strconv"
	"strings"
)

// RawCellCount is the number of table cells a data row carries in the
// source PDF: permit, establishment, address, date, inspection type,
// food/retail, score, violations.
const RawCellCount = 8

// Positions of the fixed raw columns within RawRow.Cells.
const (
	CellPermit = iota
	CellEstablishment
	CellAddress
	CellDate
	CellInspectionType
	CellClassification
	CellScore
	CellViolations
)

// RawRow is one physical table row as extracted from a PDF, before any
// cleaning. Cells are positional; provenance records where the row came
// from and when it was scraped.
type RawRow struct {
	Cells      [RawCellCount]string
	ScrapeDate Date
	Page       int
	Table      int
	SourceFile string
}

// Key returns the full field tuple as a single string. Two rows are the
// same historical entry iff their keys are equal; the scrape date is
// part of the identity so the same inspection reported by two scrapes
// stays as two rows.
func (r RawRow) Key() string {
	var b strings.Builder
	for _, c := range r.Cells {
		b.WriteString(c)
		b.WriteByte(0x1f)
	}
	b.WriteString(r.ScrapeDate.String())
	b.WriteByte(0x1f)
	b.WriteString(strconv.Itoa(r.Page))
	b.WriteByte(0x1f)
	b.WriteString(strconv.Itoa(r.Table))
	b.WriteByte(0x1f)
	b.WriteString(r.SourceFile)
	return b.String()
}

// InspectionRecord is the canonical cleaned record: exactly one
// violation code per record (empty when the inspection had none).
type InspectionRecord struct {
	Permit         string   `csv:"Permit #"`
	Establishment  string   `csv:"Establishment Name"`
	Address        string   `csv:"Address"`
	Date           Date     `csv:"Date"`
	InspectionType string   `csv:"Inspection Type"`
	Classification string   `csv:"Food or Retail"`
	Score          *float64 `csv:"Score"`
	Violation      string   `csv:"Violations"`
	ScrapeDate     Date     `csv:"ScrapeDate"`
	SourceFile     string   `csv:"SourceFile"`
	Page           int      `csv:"Page"`
	Table          int      `csv:"Table"`
}

// ViolationCodeEntry is one row of the static violation-code reference
// table. Loaded once per run, never mutated.
type ViolationCodeEntry struct {
	Code        string `csv:"Violation Code"`
	Category    string `csv:"Category"`
	Explanation string `csv:"Explanation"`
}

// EnrichedRecord is an InspectionRecord left-joined with the reference
// table. Category and Explanation are empty when the code has no match;
// the record itself is never dropped. The csv tags are the published
// column contract and must not change.
type EnrichedRecord struct {
	Permit         string   `csv:"Permit #"`
	Establishment  string   `csv:"Establishment Name"`
	Address        string   `csv:"Address"`
	Date           Date     `csv:"Date"`
	InspectionType string   `csv:"Inspection Type"`
	Classification string   `csv:"Food or Retail"`
	Score          *float64 `csv:"Score"`
	Violation      string   `csv:"Violations"`
	ScrapeDate     Date     `csv:"ScrapeDate"`
	SourceFile     string   `csv:"SourceFile"`
	Page           int      `csv:"Page"`
	Table          int      `csv:"Table"`
	Category       string   `csv:"Category"`
	Explanation    string   `csv:"Explanation"`
}
