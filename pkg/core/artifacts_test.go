package core

import "testing"

func TestNewScreenshotAttachment(t *testing.T) {
	data := []byte{0x89, 0x50, 0x4E, 0x47} // PNG header
	attachment := NewScreenshotAttachment("1700000000.123456.png", data)

	if attachment.Name != AttachmentScreenshot {
		t.Errorf("Name = %s, want %s", attachment.Name, AttachmentScreenshot)
	}
	if attachment.ContentType != ContentTypePNG {
		t.Errorf("ContentType = %s, want %s", attachment.ContentType, ContentTypePNG)
	}
	if len(attachment.Body) != 4 {
		t.Errorf("Body length = %d, want 4", len(attachment.Body))
	}
}

func TestNewHierarchyAttachment(t *testing.T) {
	attachment := NewHierarchyAttachment("1700000000.123456.xml", []byte(`<hierarchy/>`))

	if attachment.Name != AttachmentHierarchy {
		t.Errorf("Name = %s, want %s", attachment.Name, AttachmentHierarchy)
	}
	if attachment.ContentType != ContentTypeXML {
		t.Errorf("ContentType = %s, want %s", attachment.ContentType, ContentTypeXML)
	}
}

func TestPageArtifact_Attachments(t *testing.T) {
	p := PageArtifact{
		Stamp:      "1.5",
		Hierarchy:  NewHierarchyAttachment("1.5.xml", nil),
		Screenshot: NewScreenshotAttachment("1.5.png", nil),
	}

	got := p.Attachments()
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Path != "1.5.xml" || got[1].Path != "1.5.png" {
		t.Errorf("paths = %s, %s", got[0].Path, got[1].Path)
	}
}
