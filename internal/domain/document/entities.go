package document

import "time"

type Document struct {
	ID        uint64    `gorm:"primaryKey;column:id;autoIncrement" json:"id"`
	LoanID    uint64    `gorm:"column:loan_id;not null;index" json:"loan_id"`
	Name      string    `gorm:"column:name;size:255;not null" json:"name"`
	URL       string    `gorm:"column:url;type:text;not null" json:"url"`
	IsPublic  bool      `gorm:"column:is_public;not null;default:false" json:"is_public"`
	Approved  bool      `gorm:"column:approved;not null;default:false" json:"approved"`
	Rejected  bool      `gorm:"column:rejected;not null;default:false" json:"rejected"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Document) TableName() string { return "documents" }

func (d *Document) Pending() bool { return !d.Approved && !d.Rejected }

// PubliclyVisible reports whether the document shows up in a loan's public
// document listing.
func (d *Document) PubliclyVisible() bool { return d.IsPublic && d.Approved }

func (d *Document) Approve() { d.Approved, d.Rejected = true, false }

func (d *Document) Reject() { d.Approved, d.Rejected = false, true }
