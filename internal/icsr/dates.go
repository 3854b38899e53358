package icsr

import "time"

// NormalizeDate reduces a textual date to its leading run of digits,
// truncated to YYYYMMDD. Only the first 20 characters are considered, which
// covers ISO timestamps while ignoring trailing free text.
func NormalizeDate(value string) string {
	if value == "" {
		return ""
	}

	limit := len(value)
	if limit > 20 {
		limit = 20
	}

	digits := make([]byte, 0, 8)
	for i := 0; i < limit; i++ {
		if c := value[i]; c >= '0' && c <= '9' {
			digits = append(digits, c)
			if len(digits) == 8 {
				break
			}
		}
	}
	return string(digits)
}

// FormatTimestamp renders a time in the HL7 YYYYMMDDHHMMSS form.
func FormatTimestamp(t time.Time) string {
	return t.Format("20060102150405")
}
