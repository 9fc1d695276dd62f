package parser

import "strings"

// Notices the exporter writes as if they were messages. Matching is by
// substring, so a user quoting one of them is dropped as well.
var systemNotices = []string{
	"Los mensajes y las llamadas están cifrados",
	"creó el grupo",
	"Se te añadió al grupo",
	"Se te añadió",
	"cambió el nombre del grupo",
	"cambió la descripción del grupo",
	"cambió la foto del grupo",
	"salió del grupo",
	"eliminó este mensaje",
	"Este mensaje fue eliminado",
}

// IsSystemMessage reports whether a message is an exporter notice rather
// than something a participant wrote. Messages without a sender are
// always notices.
func IsSystemMessage(sender, body string) bool {
	if strings.TrimSpace(sender) == "" {
		return true
	}
	for _, notice := range systemNotices {
		if strings.Contains(body, notice) || strings.Contains(sender, notice) {
			return true
		}
	}
	return false
}
