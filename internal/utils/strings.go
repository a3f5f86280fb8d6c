package utils

import (
	"fmt"
	"strings"
)

// FormatControl renders wire bytes for log output. Named control characters become
// their escape sequences and remaining non-printable bytes become `\xNN`. Serial line
// noise (wrong baud rate, loose wiring) produces bytes that would otherwise mangle
// log lines.
func FormatControl(s []byte) string {
	buf := strings.Builder{}
	for _, c := range s {
		switch {
		case c == '\t':
			buf.WriteString(`\t`)
		case c == '\n':
			buf.WriteString(`\n`)
		case c == '\r':
			buf.WriteString(`\r`)
		case c == '\v':
			buf.WriteString(`\v`)
		case c == '\f':
			buf.WriteString(`\f`)
		case c < 0x20 || c > 0x7e:
			buf.WriteString(fmt.Sprintf(`\x%02x`, c))
		default:
			buf.WriteByte(c)
		}
	}
	return buf.String()
}
