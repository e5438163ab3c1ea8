package openai

import "strings"

// sanitizeText removes control characters and trims whitespace from text.
// Punctuation is preserved: entity names like "INSAT-3D" or "Megha-Tropiques"
// carry hyphens and digits that the extractor must see intact.
func sanitizeText(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	// Trim leading and trailing whitespace
	return strings.TrimSpace(s)
}

// isLetter returns true if the rune is an ASCII letter.
func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
