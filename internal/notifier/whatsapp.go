package notifier

import (
	"fmt"
	"net/url"
	"strings"
)

// WhatsAppLink builds a click-to-chat link congratulating an approved
// visitor. Ten digit numbers are treated as national and get countryCode
// prepended. It returns "" when phone has no digits.
func WhatsAppLink(countryCode, phone, name string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if digits == "" {
		return ""
	}
	if len(digits) == 10 {
		digits = countryCode + digits
	}

	text := fmt.Sprintf("Hello %s, your Backpack verification is successful! Here is your discount code. Enjoy Bangalore!", name)
	q := url.Values{}
	q.Set("phone", digits)
	q.Set("text", text)
	return "https://api.whatsapp.com/send?" + q.Encode()
}
