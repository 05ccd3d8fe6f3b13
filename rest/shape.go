package rest

import (
	"fmt"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Shape is one expected field of a JSON object: its name, its JSON type, and
// whether it must be present. Unknown extra fields are always allowed. This
// is deliberately not a schema language; the suite only needs flat,
// per-object checks.
type Shape struct {
	Field    string
	Type     ldvalue.ValueType
	Required bool
}

// Check validates a JSON value against a set of field shapes, returning one
// error per violation.
func Check(v ldvalue.Value, shapes []Shape) []error {
	if v.Type() != ldvalue.ObjectType {
		return []error{fmt.Errorf("expected a JSON object, got %s: %s", v.Type(), v.JSONString())}
	}

	var errs []error
	for _, shape := range shapes {
		field, found := v.TryGetByKey(shape.Field)
		if !found {
			if shape.Required {
				errs = append(errs, fmt.Errorf("required field %q is missing", shape.Field))
			}
			continue
		}
		if field.Type() != shape.Type {
			errs = append(errs, fmt.Errorf("field %q is %s, expected %s (value: %s)",
				shape.Field, field.Type(), shape.Type, field.JSONString()))
		}
	}
	return errs
}

// Contracts for the target API's success and error responses.
var (
	// UserEnvelopeShape applies to the body of GET /api/users/{id}.
	UserEnvelopeShape = []Shape{
		{Field: "data", Type: ldvalue.ObjectType, Required: true},
		{Field: "support", Type: ldvalue.ObjectType, Required: false},
	}

	// UserShape applies to the data object inside the user envelope.
	UserShape = []Shape{
		{Field: "id", Type: ldvalue.NumberType, Required: true},
		{Field: "email", Type: ldvalue.StringType, Required: true},
		{Field: "first_name", Type: ldvalue.StringType, Required: true},
		{Field: "last_name", Type: ldvalue.StringType, Required: true},
		{Field: "avatar", Type: ldvalue.StringType, Required: true},
	}

	// CreatedUserShape applies to the body of a successful POST /api/users.
	CreatedUserShape = []Shape{
		{Field: "name", Type: ldvalue.StringType, Required: true},
		{Field: "job", Type: ldvalue.StringType, Required: true},
		{Field: "id", Type: ldvalue.StringType, Required: true},
		{Field: "createdAt", Type: ldvalue.StringType, Required: true},
	}

	// ErrorShape applies to 4xx error bodies such as a failed login.
	ErrorShape = []Shape{
		{Field: "error", Type: ldvalue.StringType, Required: true},
	}
)
