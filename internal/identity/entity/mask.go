package entity

import "strings"

// MaskPhone keeps the first three and last two digits: 900XXXXX01.
func MaskPhone(phone string) string {
	if len(phone) < 6 {
		return strings.Repeat("X", len(phone))
	}
	return phone[:3] + "XXXXX" + phone[len(phone)-2:]
}

// MaskEmail keeps the first character of the local part and the domain.
func MaskEmail(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at < 1 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
