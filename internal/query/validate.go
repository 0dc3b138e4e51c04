package query

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"jobscout/pkg/utils"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their inbound parameter name
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateQuery runs the struct rules and converts the first failure, in
// field order, into the error taxonomy
func validateQuery(q *FilterQuery) error {
	err := validate.Struct(q)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return utils.NewInternalServerError("query validation failed").WithCause(err)
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return utils.NewMissingFieldError(fe.Field())
	case "oneof":
		return utils.NewInvalidFilterValueError(fe.Field(), fmt.Sprint(fe.Value()), strings.Fields(fe.Param()))
	case "max":
		if fe.Field() == FieldCompany {
			return utils.NewTooManyCompaniesError(len(q.Companies), MaxCompanies)
		}
	}
	return utils.NewInvalidFilterValueError(fe.Field(), fmt.Sprint(fe.Value()), nil)
}
