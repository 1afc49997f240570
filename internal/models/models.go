package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

type MaterialType string

const (
	MaterialPDF      MaterialType = "pdf"
	MaterialVideo    MaterialType = "video"
	MaterialDocument MaterialType = "document"
	MaterialLink     MaterialType = "link"
	MaterialImage    MaterialType = "image"
)

var materialTypes = map[MaterialType]bool{
	MaterialPDF:      true,
	MaterialVideo:    true,
	MaterialDocument: true,
	MaterialLink:     true,
	MaterialImage:    true,
}

func (t MaterialType) Valid() bool {
	return materialTypes[t]
}

// ParseMaterialType normalizes case and surrounding space before validating.
func ParseMaterialType(raw string) (MaterialType, bool) {
	value := MaterialType(strings.ToLower(strings.TrimSpace(raw)))
	return value, value.Valid()
}

type Course struct {
	ID          string          `json:"id" db:"id"`
	Title       string          `json:"title" db:"title"`
	Description string          `json:"description" db:"description"`
	Thumbnail   *string         `json:"thumbnail,omitempty" db:"thumbnail"`
	IsPublished bool            `json:"isPublished" db:"is_published"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
	Materials   []StudyMaterial `json:"materials" db:"-"`
}

type StudyMaterial struct {
	ID          string       `json:"id" db:"id"`
	Title       string       `json:"title" db:"title"`
	Description string       `json:"description" db:"description"`
	Type        MaterialType `json:"type" db:"type"`
	FileURL     *string      `json:"fileUrl,omitempty" db:"file_url"`
	DownloadURL *string      `json:"downloadUrl,omitempty" db:"download_url"`
	IsPublished bool         `json:"isPublished" db:"is_published"`
	CourseID    string       `json:"courseId" db:"course_id"`
	CreatedAt   time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time    `json:"updatedAt" db:"updated_at"`
}

type CourseInput struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Thumbnail   *string `json:"thumbnail"`
	IsPublished bool    `json:"isPublished"`
}

type MaterialInput struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Type        MaterialType `json:"type"`
	FileURL     *string      `json:"fileUrl"`
	DownloadURL *string      `json:"downloadUrl"`
	IsPublished bool         `json:"isPublished"`
	CourseID    string       `json:"courseId"`
}

// OptionalString tells an absent JSON field (Set false) apart from an
// explicit null (Set true, Value nil).
type OptionalString struct {
	Set   bool
	Value *string
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// SetString is an OptionalString carrying value.
func SetString(value string) OptionalString {
	return OptionalString{Set: true, Value: &value}
}

// CoursePatch carries the fields of a partial update. Nil or unset fields are
// left as they are; an explicit null clears Thumbnail.
type CoursePatch struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	Thumbnail   OptionalString `json:"thumbnail"`
	IsPublished *bool          `json:"isPublished"`
}

type MaterialPatch struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	Type        *MaterialType  `json:"type"`
	FileURL     OptionalString `json:"fileUrl"`
	DownloadURL OptionalString `json:"downloadUrl"`
	IsPublished *bool          `json:"isPublished"`
	CourseID    *string        `json:"courseId"`
}

func (c *Course) Apply(patch CoursePatch) {
	if patch.Title != nil {
		c.Title = *patch.Title
	}
	if patch.Description != nil {
		c.Description = *patch.Description
	}
	if patch.Thumbnail.Set {
		c.Thumbnail = copyString(patch.Thumbnail.Value)
	}
	if patch.IsPublished != nil {
		c.IsPublished = *patch.IsPublished
	}
}

func (m *StudyMaterial) Apply(patch MaterialPatch) {
	if patch.Title != nil {
		m.Title = *patch.Title
	}
	if patch.Description != nil {
		m.Description = *patch.Description
	}
	if patch.Type != nil {
		m.Type = *patch.Type
	}
	if patch.FileURL.Set {
		m.FileURL = copyString(patch.FileURL.Value)
	}
	if patch.DownloadURL.Set {
		m.DownloadURL = copyString(patch.DownloadURL.Value)
	}
	if patch.IsPublished != nil {
		m.IsPublished = *patch.IsPublished
	}
	if patch.CourseID != nil {
		m.CourseID = *patch.CourseID
	}
}

func copyString(value *string) *string {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}
