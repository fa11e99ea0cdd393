package domain

// Attachment is a media file referenced by a note. Only the reference
// is synced, downloading the content is somebody else's job.
type Attachment struct {
	URI         string
	ContentType string
}

func (a Attachment) IsValid() bool {
	return a.URI != ""
}
