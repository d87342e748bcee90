package models

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var korean = message.NewPrinter(language.Korean)

// Won formats an amount with thousands separators, e.g. 50,000.
func Won(amount int64) string {
	return korean.Sprintf("%d", amount)
}
