// Package core provides the error model, session states and artifact types shared
// by the appium-extension packages.
package core

// Attachment represents a diagnostics artifact written to disk
type Attachment struct {
	Name        string `json:"name"`        // Descriptive name: screenshot, hierarchy
	ContentType string `json:"contentType"` // MIME type: image/png, application/xml
	Path        string `json:"path"`        // File path of the written artifact
	Body        []byte `json:"-"`           // In-memory content (not serialized to JSON)
}

// Common attachment names
const (
	AttachmentScreenshot = "screenshot"
	AttachmentHierarchy  = "hierarchy"
)

// Common content types
const (
	ContentTypePNG = "image/png"
	ContentTypeXML = "application/xml"
)

// NewScreenshotAttachment creates a screenshot attachment
func NewScreenshotAttachment(path string, data []byte) Attachment {
	return Attachment{
		Name:        AttachmentScreenshot,
		ContentType: ContentTypePNG,
		Path:        path,
		Body:        data,
	}
}

// NewHierarchyAttachment creates a UI hierarchy attachment
func NewHierarchyAttachment(path string, data []byte) Attachment {
	return Attachment{
		Name:        AttachmentHierarchy,
		ContentType: ContentTypeXML,
		Path:        path,
		Body:        data,
	}
}

// PageArtifact is the correlated pair written by one page capture.
type PageArtifact struct {
	Stamp      string // shared base filename, unix seconds with fraction
	Hierarchy  Attachment
	Screenshot Attachment
}

// Attachments returns both files of the pair.
func (p PageArtifact) Attachments() []Attachment {
	return []Attachment{p.Hierarchy, p.Screenshot}
}
