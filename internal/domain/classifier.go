package domain

import "strings"

// TransientClassifier decides whether a failed build attempt was caused by a
// temporary infrastructure problem and is worth re-running.
type TransientClassifier func(returnCode int, output string) bool

// DefaultTransientSignatures are output fragments emitted by the toolchain
// when the floating license server is temporarily exhausted.
var DefaultTransientSignatures = []string{
	"No valid floating license",
}

// SubstringClassifier treats a non-zero exit whose output contains any of the
// signatures as transient. Empty signatures are ignored.
func SubstringClassifier(signatures ...string) TransientClassifier {
	var sigs []string

	for _, s := range signatures {
		if s != "" {
			sigs = append(sigs, s)
		}
	}

	return func(returnCode int, output string) bool {
		if returnCode == 0 {
			return false
		}

		for _, s := range sigs {
			if strings.Contains(output, s) {
				return true
			}
		}

		return false
	}
}
