package domain

import (
	"strings"
	"time"
)

// Core Enums and Types

// ReviewStatus represents the review state of a finding or diagnosis
type ReviewStatus string

const (
	StatusPending  ReviewStatus = "pending"
	StatusAccepted ReviewStatus = "accepted"
	StatusRejected ReviewStatus = "rejected"
	StatusEdited   ReviewStatus = "edited"
)

// ImageType represents the modality of a study image
type ImageType string

const (
	ImageUltrasound ImageType = "ultrasound"
	ImageXRay       ImageType = "xray"
)

// EntityKind identifies which kind of report entity an operation targets
type EntityKind string

const (
	KindFinding   EntityKind = "finding"
	KindDiagnosis EntityKind = "diagnosis"
	KindReport    EntityKind = "report"
)

// DiagnosisEntityID is the busy/audit key for the single diagnosis entity.
const DiagnosisEntityID = "diagnosis"

// Core Data Models

// PatientInfo is the static descriptive record for the studied patient.
// Immutable for the session.
type PatientInfo struct {
	Name         string `json:"name"`
	Species      string `json:"species"`
	Breed        string `json:"breed"`
	Sex          string `json:"sex"`
	Age          string `json:"age"`
	Tutor        string `json:"tutor"`
	Veterinarian string `json:"veterinarian"`
	StudyType    string `json:"study_type"`
	Date         string `json:"date"`
}

// AbnormalValue is a clinically measured quantity embedded verbatim inside a
// finding's narrative text. Text must appear as a literal substring of the
// finding's current text for the annotation to apply.
type AbnormalValue struct {
	Text        string     `json:"text"`
	Value       float64    `json:"value"`
	Unit        string     `json:"unit"`
	NormalRange [2]float64 `json:"normal_range"`
}

// OutOfRange reports whether the measured value falls outside the normal
// range. Bounds are inclusive: a value exactly on a bound is in range.
func (v AbnormalValue) OutOfRange() bool {
	return v.Value < v.NormalRange[0] || v.Value > v.NormalRange[1]
}

// RegenerationContext records the last regeneration request applied to an
// entity: the free-text context, the reference image ids and when it settled.
type RegenerationContext struct {
	TextContext string    `json:"text_context"`
	ImageIDs    []string  `json:"image_ids"`
	Timestamp   time.Time `json:"timestamp"`
}

// Finding is one AI- or human-authored observation about a specific
// anatomical structure. OriginalText is the immutable first AI draft;
// CurrentText is the live, user-editable narrative.
type Finding struct {
	ID                  string               `json:"id"`
	Organ               string               `json:"organ"`
	Confidence          float64              `json:"confidence"`
	OriginalText        string               `json:"original_text"`
	CurrentText         string               `json:"current_text"`
	IsEdited            bool                 `json:"is_edited"`
	Status              ReviewStatus         `json:"status"`
	LinkedImageID       string               `json:"linked_image_id,omitempty"`
	AbnormalValues      []AbnormalValue      `json:"abnormal_values,omitempty"`
	EditedBy            string               `json:"edited_by,omitempty"`
	EditedAt            time.Time            `json:"edited_at,omitempty"`
	RegenerationContext *RegenerationContext `json:"regeneration_context,omitempty"`
}

// Clone returns a deep copy of the finding.
func (f Finding) Clone() Finding {
	c := f
	if f.AbnormalValues != nil {
		c.AbnormalValues = make([]AbnormalValue, len(f.AbnormalValues))
		copy(c.AbnormalValues, f.AbnormalValues)
	}
	if f.RegenerationContext != nil {
		rc := *f.RegenerationContext
		rc.ImageIDs = append([]string(nil), f.RegenerationContext.ImageIDs...)
		c.RegenerationContext = &rc
	}
	return c
}

// Diagnosis is the aggregate clinical conclusion for the study, expressed as
// an ordered list of statements. OriginalItems is captured lazily on the
// first edit and never overwritten afterwards.
type Diagnosis struct {
	Confidence    float64      `json:"confidence"`
	Items         []string     `json:"items"`
	Status        ReviewStatus `json:"status"`
	OriginalItems []string     `json:"original_items,omitempty"`
	EditedBy      string       `json:"edited_by,omitempty"`
	EditedAt      time.Time    `json:"edited_at,omitempty"`
}

// Clone returns a deep copy of the diagnosis.
func (d Diagnosis) Clone() Diagnosis {
	c := d
	c.Items = append([]string(nil), d.Items...)
	if d.OriginalItems != nil {
		c.OriginalItems = append([]string(nil), d.OriginalItems...)
	}
	return c
}

// Text renders the diagnosis items as editable multi-line text.
func (d Diagnosis) Text() string {
	return strings.Join(d.Items, "\n")
}

// StudyImage is immutable reference data. Findings hold a weak reference to
// it by LinkedImageID; a dangling id is tolerated by lookups.
type StudyImage struct {
	ID       string    `json:"id"`
	URL      string    `json:"url"`
	Type     ImageType `json:"type"`
	Metadata string    `json:"metadata"`
}

// Report is the aggregate root. Every mutation of the session state yields a
// new snapshot; callers never observe partial updates.
type Report struct {
	ID          string       `json:"id"`
	PatientInfo PatientInfo  `json:"patient_info"`
	Diagnosis   Diagnosis    `json:"diagnosis"`
	Findings    []Finding    `json:"findings"`
	Images      []StudyImage `json:"images"`
}

// Clone returns a deep copy of the report snapshot.
func (r Report) Clone() Report {
	c := r
	c.Diagnosis = r.Diagnosis.Clone()
	c.Findings = make([]Finding, len(r.Findings))
	for i, f := range r.Findings {
		c.Findings[i] = f.Clone()
	}
	c.Images = append([]StudyImage(nil), r.Images...)
	return c
}

// FindingByID returns the finding with the given id, or false if absent.
func (r Report) FindingByID(id string) (Finding, bool) {
	for _, f := range r.Findings {
		if f.ID == id {
			return f, true
		}
	}
	return Finding{}, false
}

// ImageByID returns the study image with the given id, or false if absent.
// Dangling LinkedImageID references resolve to false, never to an error.
func (r Report) ImageByID(id string) (StudyImage, bool) {
	for _, img := range r.Images {
		if img.ID == id {
			return img, true
		}
	}
	return StudyImage{}, false
}
