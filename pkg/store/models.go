package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ccollicutt/ifextract/pkg/extract"
)

// Run is one stored extraction.
type Run struct {
	ID                   uint      `json:"id" gorm:"primaryKey"`
	Source               string    `json:"source" gorm:"type:varchar(512);not null;index"`
	Encoding             string    `json:"encoding" gorm:"type:varchar(32)"`
	Sections             string    `json:"sections" gorm:"type:varchar(64)"` // comma separated section kinds
	Rows                 int       `json:"rows" gorm:"not null;default:0"`
	ConfigurationRecords int       `json:"configuration_records" gorm:"not null;default:0"`
	StatusRecords        int       `json:"status_records" gorm:"not null;default:0"`
	Columns              string    `json:"-" gorm:"type:text;not null"` // JSON encoded []extract.Column
	ExportURL            string    `json:"export_url,omitempty" gorm:"type:varchar(1024)"`
	Duration             int64     `json:"duration"` // milliseconds
	CreatedAt            time.Time `json:"created_at" gorm:"autoCreateTime;index"`

	Interfaces []InterfaceRow `json:"interfaces,omitempty" gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name.
func (Run) TableName() string {
	return "runs"
}

// InterfaceRow is one merged table row of a stored run.
type InterfaceRow struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	RunID    uint   `json:"run_id" gorm:"not null;index"`
	Position int    `json:"position" gorm:"not null"`
	Name     string `json:"name" gorm:"type:varchar(128);index"`
	Cells    string `json:"cells" gorm:"type:text;not null"` // JSON encoded extract.Row
}

// TableName returns the table name.
func (InterfaceRow) TableName() string {
	return "interface_rows"
}

// SectionKinds returns the stored section kinds.
func (r *Run) SectionKinds() []extract.SectionKind {
	if r.Sections == "" {
		return nil
	}
	parts := strings.Split(r.Sections, ",")
	kinds := make([]extract.SectionKind, len(parts))
	for i, p := range parts {
		kinds[i] = extract.SectionKind(p)
	}
	return kinds
}

// Table rebuilds the merged table of the run. Interfaces must be loaded.
func (r *Run) Table() (*extract.Table, error) {
	t := &extract.Table{Rows: make([]extract.Row, 0, len(r.Interfaces))}
	if err := json.Unmarshal([]byte(r.Columns), &t.Columns); err != nil {
		return nil, fmt.Errorf("decoding columns of run %d: %w", r.ID, err)
	}
	for _, ir := range r.Interfaces {
		var row extract.Row
		if err := json.Unmarshal([]byte(ir.Cells), &row); err != nil {
			return nil, fmt.Errorf("decoding row %d of run %d: %w", ir.Position, r.ID, err)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
