package parser

import "github.com/lobocrea/wsptranscriber/internal/domain"

// ExtractAttachmentManifest lists the distinct attachment filenames of
// records in order of first appearance.
func ExtractAttachmentManifest(records []domain.MessageRecord) []string {
	manifest := make([]string, 0)
	seen := make(map[string]bool)
	for _, r := range records {
		if !r.Kind.HasAttachment() || r.AttachmentFilename == "" || seen[r.AttachmentFilename] {
			continue
		}
		seen[r.AttachmentFilename] = true
		manifest = append(manifest, r.AttachmentFilename)
	}
	return manifest
}
