package messaging

import (
	"strings"
	"unicode"
)

const chatSuffix = "@c.us"

// ChatID normalises a phone number to the gateway chat id form <digits>@c.us.
// Values that already carry a chat suffix are returned unchanged.
func ChatID(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if strings.Contains(phone, "@") {
		return phone, nil
	}

	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
	if digits == "" {
		return "", ErrInvalidPhone
	}
	return digits + chatSuffix, nil
}
