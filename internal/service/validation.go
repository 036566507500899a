package service

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/shopspring/decimal"
)

// fieldMessages holds the message for a failed tag on a given field.
// Keys are "<json field>.<tag>"; a bare "<tag>" key is the fallback.
var fieldMessages = map[string]string{
	"name.required":        "Required field!",
	"name.notblank":        "Required field!",
	"name.min":             "Field must be between 3 and 80 characters.",
	"name.max":             "Field must be between 3 and 80 characters.",
	"description.required": "Required field!",
	"description.notblank": "Required field!",
	"description.min":      "Field must be at least 10 characters.",
	"price.gt":             "Price must be positive.",
	"price.lte":            "Price must not exceed 9999999999.99.",
	"price.maxdecimals":    "Price must have at most 2 decimal places.",
	"categories.required":  "Must be at least one category",
	"categories.min":       "Must be at least one category",
	"quantity.gt":          "Quantity must be positive.",
	"product_id.gt":        "Product id must be positive.",
	"status.required":      "Required field!",
	"status.oneof":         "Unknown order status.",
	"moment.required":      "Required field!",
	"required":             "Required field!",
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("maxdecimals", maxDecimals); err != nil {
		panic(err)
	}
	return v
}

// maxDecimals reports whether a numeric field has at most param digits after
// the decimal point. Decimal fields reach it as float64 through the custom
// type func above.
func maxDecimals(fl validator.FieldLevel) bool {
	places, err := strconv.Atoi(fl.Param())
	if err != nil || places < 0 {
		return false
	}
	field := fl.Field()
	switch field.Kind() {
	case reflect.Float32, reflect.Float64:
		d := decimal.NewFromFloat(field.Float())
		return d.Equal(d.Round(int32(places)))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	default:
		return false
	}
}

// validateStruct runs the struct tags of input and collects every violation.
func validateStruct(v *validator.Validate, input any) *ValidationError {
	verr := &ValidationError{}
	err := v.Struct(input)
	if err == nil {
		return verr
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.add("", err.Error())
		return verr
	}
	for _, fe := range fieldErrs {
		verr.add(fieldPath(fe), fieldMessage(fe))
	}
	return verr
}

// fieldPath drops the root struct name from the namespace,
// e.g. "OrderInput.items[0].quantity" becomes "items[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	if msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	if msg, ok := fieldMessages[fe.Tag()]; ok {
		return msg
	}
	return "Invalid value (" + fe.Tag() + ")."
}
