package svg

import (
	"bytes"
	"encoding/xml"
)

const (
	fontFamily      = "Helvetica, Arial, sans-serif"
	fontHeightRatio = 0.6
	fontWidthRatio  = 0.85
	fontCharWidth   = 0.55
	fontSizeMin     = 8.0
	fontSizeMax     = 24.0
	treeFontSize    = 12.0
)

// fontSize fits text of textLen characters into a box.
func fontSize(availWidth, availHeight float64, textLen int) float64 {
	n := max(1, textLen)
	byHeight := availHeight * fontHeightRatio
	byWidth := (availWidth * fontWidthRatio) / (float64(n) * fontCharWidth)
	return max(fontSizeMin, min(fontSizeMax, min(byHeight, byWidth)))
}

// truncate shortens label to what fits in width at size.
func truncate(label string, width, size float64) string {
	maxChars := max(int(width*fontWidthRatio/(size*fontCharWidth)), 3)
	r := []rune(label)
	if len(r) <= maxChars {
		return label
	}
	return string(r[:maxChars-2]) + ".."
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
