package handler

import (
    "errors"
    "fmt"
    "reflect"
    "strings"

    "github.com/go-playground/validator/v10"
    "github.com/labstack/echo/v4"
)

// RequestValidator plugs validator/v10 into echo.Context.Validate.  Field
// names in errors are the JSON names clients send.
type RequestValidator struct {
    v *validator.Validate
}

func NewRequestValidator() *RequestValidator {
    v := validator.New()
    v.RegisterTagNameFunc(func(f reflect.StructField) string {
        name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
        if name == "-" {
            return ""
        }
        return name
    })
    return &RequestValidator{v: v}
}

// Validate returns a Spanish message for the first failing field.
func (rv *RequestValidator) Validate(i any) error {
    err := rv.v.Struct(i)
    if err == nil {
        return nil
    }
    var verrs validator.ValidationErrors
    if !errors.As(err, &verrs) || len(verrs) == 0 {
        return err
    }
    fe := verrs[0]
    switch fe.Tag() {
    case "required":
        return fmt.Errorf("campo requerido: %s", fe.Field())
    case "email":
        return fmt.Errorf("%s inválido", fe.Field())
    case "max":
        return fmt.Errorf("%s supera %s caracteres", fe.Field(), fe.Param())
    }
    return fmt.Errorf("campo inválido: %s", fe.Field())
}

// bind decodes the JSON body into dst and runs the registered validator
// when there is one.  The returned message is safe to send to clients.
func bind(c echo.Context, dst any) (string, bool) {
    if err := c.Bind(dst); err != nil {
        return "cuerpo de la solicitud inválido", false
    }
    if c.Echo().Validator == nil {
        return "", true
    }
    if err := c.Validate(dst); err != nil {
        return err.Error(), false
    }
    return "", true
}
