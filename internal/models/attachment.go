package models

import "strings"

// Attachment is a user-supplied reference file encoded for transfer to the
// AI gateway. Attachments are transient: they are created per upload or
// annotation capture and discarded once the request completes.
type Attachment struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // base64-encoded payload
	Preview  string `json:"preview,omitempty"`
}

// IsImage reports whether the attachment carries an image payload.
func (a Attachment) IsImage() bool {
	return strings.HasPrefix(a.MimeType, "image/")
}
