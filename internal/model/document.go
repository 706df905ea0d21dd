package model

import "time"

type DocumentStatus string

const (
	StatusDraft      DocumentStatus = "DRAFT"
	StatusActive     DocumentStatus = "ACTIVE"
	StatusDeprecated DocumentStatus = "DEPRECATED"
	StatusArchived   DocumentStatus = "ARCHIVED"
)

func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusDeprecated, StatusArchived:
		return true
	}
	return false
}

type Classification string

const (
	ClassificationPublic       Classification = "Public"
	ClassificationInternal     Classification = "Internal"
	ClassificationConfidential Classification = "Confidential"
)

func (c Classification) Valid() bool {
	switch c {
	case ClassificationPublic, ClassificationInternal, ClassificationConfidential:
		return true
	}
	return false
}

// Metadata is the governed descriptor of one document version.
type Metadata struct {
	Owner            string         `gorm:"size:128" json:"owner"`
	ContentType      string         `gorm:"size:64" json:"content_type"`
	Subject          string         `gorm:"size:128" json:"subject"`
	Tags             []string       `gorm:"serializer:json;type:text" json:"tags"`
	VersionMajor     int            `gorm:"not null;default:1" json:"version_major"`
	VersionMinor     int            `gorm:"not null;default:0" json:"version_minor"`
	CreationDate     *time.Time     `json:"creation_date"`
	ReviewDate       *time.Time     `json:"review_date"`
	Classification   Classification `gorm:"size:32" json:"classification"`
	SourceDepartment string         `gorm:"size:32" json:"source_department"`
}

func (m Metadata) Version() Version {
	return Version{Major: m.VersionMajor, Minor: m.VersionMinor}
}

// Document is one immutable version of a governed file. Versions of the same
// file share LineageID; SupersedesID points back at the previous version and is
// only ever used for history lookups.
type Document struct {
	ID           string         `gorm:"primaryKey;size:36" json:"id"`
	LineageID    string         `gorm:"size:36;not null;index" json:"lineage_id"`
	SupersedesID string         `gorm:"size:36;index" json:"supersedes_id,omitempty"`
	FileName     string         `gorm:"size:255;not null" json:"file_name"`
	FolderPath   string         `gorm:"size:255;not null" json:"folder_path"`
	Department   string         `gorm:"size:32;not null;index" json:"department"`
	SubArea      string         `gorm:"size:128" json:"sub_area"`
	ContentRef   string         `gorm:"size:255" json:"content_ref"`
	Metadata     Metadata       `gorm:"embedded" json:"metadata"`
	Status       DocumentStatus `gorm:"size:16;not null;index" json:"status"`
	CreatedBy    string         `gorm:"size:64" json:"created_by"`
	ApprovedBy   string         `gorm:"size:64" json:"approved_by,omitempty"`
	ApprovedAt   *time.Time     `json:"approved_at,omitempty"`
	DeprecatedAt *time.Time     `json:"deprecated_at,omitempty"`
	ArchivedAt   *time.Time     `json:"archived_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
