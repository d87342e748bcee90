// Package phone normalizes receiver numbers for SMS and alimtalk.
package phone

import (
	"fmt"
	"strings"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
	"github.com/ttacon/libphonenumber"
)

func parse(raw, defaultRegion string) (*libphonenumber.PhoneNumber, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, apperr.Validation("전화번호가 필요합니다.")
	}
	p, err := libphonenumber.Parse(raw, strings.ToUpper(defaultRegion))
	if err != nil {
		return nil, apperr.Validation(fmt.Sprintf("유효하지 않은 전화번호입니다: %s", raw))
	}
	if !libphonenumber.IsValidNumber(p) {
		return nil, apperr.Validation(fmt.Sprintf("유효하지 않은 전화번호입니다: %s", raw))
	}
	return p, nil
}

// E164 returns raw in +<country><number> form. Numbers without a country code are read
// in defaultRegion (ISO 3166 alpha-2).
func E164(raw, defaultRegion string) (string, error) {
	p, err := parse(raw, defaultRegion)
	if err != nil {
		return "", err
	}
	return libphonenumber.Format(p, libphonenumber.E164), nil
}

// Domestic returns the national digits with the trunk prefix, e.g. 01012345678.
func Domestic(raw, defaultRegion string) (string, error) {
	p, err := parse(raw, defaultRegion)
	if err != nil {
		return "", err
	}
	national := libphonenumber.Format(p, libphonenumber.NATIONAL)
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, national), nil
}
