package models

import (
	"errors"
	"reflect"
	"strings"

	"ferryhub/internal/domain"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate normalizes and checks a search request. Same-location searches
// are rejected here so no provider is ever called for them.
func (r *SearchRequest) Validate() error {
	r.Normalize()
	if err := validate.Struct(r); err != nil {
		return toValidationError(err)
	}
	if r.Origin == r.Destination {
		return sameLocation()
	}
	if r.Ticketed() < 1 {
		return domain.ValidationError{Field: "adults", Msg: "at least one adult or child passenger is required"}
	}
	return nil
}

func (r *BookingRequest) Validate() error {
	r.Normalize()
	if err := validate.Struct(r); err != nil {
		return toValidationError(err)
	}
	if r.Origin == r.Destination {
		return sameLocation()
	}
	ticketed := 0
	for _, p := range r.Passengers {
		if !p.IsInfant() {
			ticketed++
		}
	}
	if ticketed == 0 {
		return domain.ValidationError{Field: "passengers", Msg: "an infant cannot travel without a ticketed passenger"}
	}
	return nil
}

// Canonicalizer maps a location code or alias to its canonical code.
type Canonicalizer interface {
	Canonical(loc string) (string, bool)
}

func canonical(c Canonicalizer, loc string) string {
	if c == nil {
		return loc
	}
	if code, ok := c.Canonical(loc); ok {
		return code
	}
	return loc
}

func sameLocation() error {
	return domain.ValidationError{Field: "to", Msg: "origin and destination must differ"}
}

// Canonicalize rewrites known aliases to canonical codes and rejects a
// search whose endpoints are the same place. Unknown names are kept as
// given so route support can reject them.
func (r *SearchRequest) Canonicalize(c Canonicalizer) error {
	r.Origin = canonical(c, r.Origin)
	r.Destination = canonical(c, r.Destination)
	if r.Origin == r.Destination {
		return sameLocation()
	}
	return nil
}

func (r *BookingRequest) Canonicalize(c Canonicalizer) error {
	r.Origin = canonical(c, r.Origin)
	r.Destination = canonical(c, r.Destination)
	if r.Origin == r.Destination {
		return sameLocation()
	}
	return nil
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		return domain.ValidationError{Field: field, Msg: "failed on " + fe.Tag(), Err: err}
	}
	return domain.ValidationError{Msg: err.Error(), Err: err}
}
