package hop

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Input is the field set submitted by the create and edit forms. Alpha bounds
// stay textual until validation so an empty field means "unset", not zero.
type Input struct {
	Name        string `form:"name" validate:"required,min=3"`
	Origin      string `form:"origin" validate:"required,min=2"`
	Type        string `form:"type" validate:"required,min=3,variety"`
	Description string `form:"description" validate:"max=500"`
	AlphaLow    string `form:"alpha[low]" validate:"omitempty,float"`
	AlphaHigh   string `form:"alpha[high]" validate:"omitempty,float"`
}

var validate = newValidator()

var fieldPath = strings.NewReplacer("[", ".", "]", "")

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return fieldPath.Replace(name)
	})
	if err := v.RegisterValidation("variety", func(fl validator.FieldLevel) bool {
		return slices.Contains(Varieties, fl.Field().String())
	}); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("float", func(fl validator.FieldLevel) bool {
		_, ok := parseFloat(fl.Field().String())
		return ok
	}); err != nil {
		panic(err)
	}
	return v
}

var labels = map[string]string{
	"name":        "Name",
	"origin":      "Origin",
	"type":        "Type",
	"description": "Description",
	"alpha.low":   "Alpha low",
	"alpha.high":  "Alpha high",
}

var requiredMessages = map[string]string{
	"name":   "A name is required",
	"origin": "An origin is required",
	"type":   "A type is required",
}

func message(fe validator.FieldError) string {
	label := labels[fe.Field()]
	if label == "" {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		if m, ok := requiredMessages[fe.Field()]; ok {
			return m
		}
		return label + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "variety":
		return fmt.Sprintf("%q is not a valid hop type (%s)", fe.Value(), strings.Join(Varieties, ", "))
	case "float":
		return label + " must be a number"
	}
	return fmt.Sprintf("%s failed the %q rule", label, fe.Tag())
}

func (in Input) normalized() Input {
	in.Name = strings.TrimSpace(in.Name)
	in.Origin = strings.TrimSpace(in.Origin)
	in.Type = strings.TrimSpace(in.Type)
	in.AlphaLow = strings.TrimSpace(in.AlphaLow)
	in.AlphaHigh = strings.TrimSpace(in.AlphaHigh)
	return in
}

// Validate checks every rule and returns a normalized Hop ready to store.
// All violations are collected into a single *ValidationError.
func (in Input) Validate() (*Hop, error) {
	in = in.normalized()
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, fmt.Errorf("validate hop: %w", err)
		}
		ve := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
		for _, fe := range verrs {
			ve.Fields = append(ve.Fields, FieldError{Field: fe.Field(), Message: message(fe)})
		}
		return nil, ve
	}
	h := &Hop{
		Name:        in.Name,
		Origin:      in.Origin,
		Type:        in.Type,
		Description: in.Description,
	}
	h.Alpha.Low = parseBound(in.AlphaLow)
	h.Alpha.High = parseBound(in.AlphaHigh)
	return h, nil
}

// parseFloat accepts anything strconv reads as a finite float64, such as
// ".5", "5." and "1e1".
func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// parseBound reads a bound that already passed the float rule.
func parseBound(s string) *float64 {
	f, ok := parseFloat(s)
	if s == "" || !ok {
		return nil
	}
	return &f
}

// FormatBound renders an alpha bound for form fields; unset bounds are empty.
func FormatBound(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// InputFrom builds the form field set that reproduces h.
func InputFrom(h *Hop) Input {
	return Input{
		Name:        h.Name,
		Origin:      h.Origin,
		Type:        h.Type,
		Description: h.Description,
		AlphaLow:    FormatBound(h.Alpha.Low),
		AlphaHigh:   FormatBound(h.Alpha.High),
	}
}
