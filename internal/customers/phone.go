package customers

import (
	"strings"

	pkgerrors "github.com/angelmondragon/forrajeria-backend/pkg/errors"
)

// PhoneDigits is the exact number of digits a customer phone must carry.
const PhoneDigits = 10

// NormalizePhone strips spaces and dashes and checks the remaining value is
// exactly PhoneDigits ASCII digits.
func NormalizePhone(raw string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '\t':
			return -1
		}
		return r
	}, raw)

	if len(cleaned) != PhoneDigits {
		return "", invalidPhone()
	}
	for i := 0; i < len(cleaned); i++ {
		if cleaned[i] < '0' || cleaned[i] > '9' {
			return "", invalidPhone()
		}
	}
	return cleaned, nil
}

func invalidPhone() error {
	return pkgerrors.New(pkgerrors.CodeValidation, "phone must have exactly 10 digits").
		WithDetails(map[string]any{"field": "celular"})
}
