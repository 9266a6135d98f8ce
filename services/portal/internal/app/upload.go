package app

import (
	"path"
	"strings"

	"knowledgegalaxy/pkg/domain"
)

// MaxFileSize is the largest attachment a draft may describe.
const MaxFileSize = 10 << 20

var allowedMIME = map[string]struct{}{
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
}

// AllowedMIME reports whether an attachment of this type may be uploaded.
func AllowedMIME(mime string) bool {
	_, ok := allowedMIME[strings.ToLower(strings.TrimSpace(mime))]
	return ok
}

// FileTypeFromMIME classifies an attachment. Unknown types yield "".
func FileTypeFromMIME(mime string) domain.FileType {
	mime = strings.ToLower(mime)
	switch {
	case strings.Contains(mime, "pdf"):
		return domain.FileTypePDF
	case strings.Contains(mime, "word"), strings.Contains(mime, "document"):
		return domain.FileTypeDoc
	case strings.Contains(mime, "image"):
		return domain.FileTypeImage
	default:
		return ""
	}
}

// TitleFromFileName drops the final extension: "Q3 report.v2.pdf" becomes
// "Q3 report.v2".
func TitleFromFileName(name string) string {
	name = strings.TrimSpace(name)
	return strings.TrimSuffix(name, path.Ext(name))
}

// ParseTags splits a comma-separated tag string, trimming each entry and
// dropping empties. Order and duplicates are kept.
func ParseTags(raw string) []string {
	tags := []string{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			tags = append(tags, part)
		}
	}
	return tags
}

// prepareDraft fills the fields an upload derives on its own: title from
// the file name, file type from the MIME type, placeholder content for a
// bare attachment, and the public/text defaults.
func prepareDraft(d domain.DocumentDraft) domain.DocumentDraft {
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" && d.FileName != "" {
		d.Title = TitleFromFileName(d.FileName)
	}
	if d.FileType == "" {
		d.FileType = FileTypeFromMIME(d.MimeType)
	}
	if d.FileType == "" {
		d.FileType = domain.FileTypeText
	}
	if strings.TrimSpace(d.Content) == "" && d.FileName != "" {
		d.Content = "Uploaded file: " + d.FileName
	}
	if d.Visibility == "" {
		d.Visibility = domain.VisibilityPublic
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	return d
}
