package facematch

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// LabelFromFilename derives an identity label from a gallery file name:
// the base name without its extension, in Unicode NFC form.
// macOS file systems hand out NFD names, so "Jiří.jpg" would otherwise
// produce a label that differs byte-wise from the same name typed by an operator.
func LabelFromFilename(name string) string {
	base := filepath.Base(name)
	label := strings.TrimSuffix(base, filepath.Ext(base))
	return NormalizeLabel(label)
}

// NormalizeLabel returns the label in NFC form with surrounding whitespace removed.
func NormalizeLabel(label string) string {
	return strings.TrimSpace(norm.NFC.String(label))
}
