package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Body returns the raw request body, decoding base64 bodies.
func (c *Call) Body() ([]byte, error) {
	if !c.Request.IsBase64Encoded {
		return []byte(c.Request.Body), nil
	}
	b, err := base64.StdEncoding.DecodeString(c.Request.Body)
	if err != nil {
		return nil, apperr.Validation("Invalid request body")
	}
	return b, nil
}

// Bind decodes the JSON body into dst and checks its validate tags. When invalid is not
// empty it is the message for any validation failure; otherwise the first failing field is named.
func (c *Call) Bind(dst any, invalid string) error {
	body, err := c.Body()
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		body = []byte("{}")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		var syntaxErr *json.SyntaxError
		if invalid == "" || errors.As(err, &syntaxErr) {
			return apperr.Validation(fmt.Sprintf("Invalid request body: %v", err))
		}
		return apperr.Validation(invalid)
	}
	return Validate(dst, invalid)
}

// Validate checks the validate tags of v.
func Validate(v any, invalid string) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	if invalid != "" {
		return apperr.Validation(invalid)
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Tag() == "required" {
			return apperr.Validation(fmt.Sprintf("%s is required", fe.Field()))
		}
		return apperr.Validation(fmt.Sprintf("%s is invalid", fe.Field()))
	}
	return apperr.Validation(err.Error())
}
