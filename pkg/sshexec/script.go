package sshexec

import (
	"encoding/base64"
	"unicode/utf16"
)

// EncodeScript converts a PowerShell script to the UTF-16LE base64 form that
// powershell.exe -EncodedCommand expects.
func EncodeScript(script string) string {
	codeUnits := utf16.Encode([]rune(script))
	buf := make([]byte, 0, len(codeUnits)*2)
	for _, u := range codeUnits {
		buf = append(buf, byte(u), byte(u>>8))
	}
	return base64.StdEncoding.EncodeToString(buf)
}
