package db

import (
	"fmt"
	"strings"
)

// Normalization names how a stored matrix was scaled before import.
type Normalization int

const (
	Fractional Normalization = iota
	TPM
	TPMMeans
	TPMStd
)

var normalizationNames = [...]string{
	Fractional: "fractional",
	TPM:        "TPM",
	TPMMeans:   "TPM_means",
	TPMStd:     "TPM_std",
}

func (n Normalization) String() string {
	if n < 0 || int(n) >= len(normalizationNames) {
		return fmt.Sprintf("Normalization(%d)", int(n))
	}
	return normalizationNames[n]
}

// ParseNormalization matches the stored names case-insensitively.
func ParseNormalization(s string) (Normalization, error) {
	for i, name := range normalizationNames {
		if strings.EqualFold(s, name) {
			return Normalization(i), nil
		}
	}
	return 0, fmt.Errorf("unknown normalization %q", s)
}

func (n Normalization) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

func (n *Normalization) UnmarshalText(text []byte) error {
	parsed, err := ParseNormalization(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}
