// Package storage provides the data persistence layer for leadpipe.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jcourtner/leadpipe/internal/model"
)

// Validation errors.
var (
	ErrNilContext           = errors.New("context cannot be nil")
	ErrEmptyString          = errors.New("string parameter cannot be empty")
	ErrNilParameter         = errors.New("parameter cannot be nil")
	ErrInvalidProspect      = errors.New("invalid prospect")
	ErrInvalidCompany       = errors.New("invalid company")
	ErrInvalidContactMethod = errors.New("invalid contact method")
	ErrInvalidActivity      = errors.New("invalid activity")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateCompany(company *model.Company) error {
	if company == nil {
		return fmt.Errorf("%w: company", ErrNilParameter)
	}
	if strings.TrimSpace(company.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidCompany)
	}
	return nil
}

func validateProspect(prospect *model.Prospect) error {
	if prospect == nil {
		return fmt.Errorf("%w: prospect", ErrNilParameter)
	}
	if prospect.CompanyID == 0 {
		return fmt.Errorf("%w: missing company ID", ErrInvalidProspect)
	}
	if _, err := model.ParsePopulation(string(prospect.Population)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProspect, err)
	}
	if prospect.Stage != nil {
		if _, err := model.ParseEngagementStage(string(*prospect.Stage)); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidProspect, err)
		}
	}
	return nil
}

func validateContactMethod(method *model.ContactMethod) error {
	if method == nil {
		return fmt.Errorf("%w: contact method", ErrNilParameter)
	}
	if method.ProspectID == 0 {
		return fmt.Errorf("%w: missing prospect ID", ErrInvalidContactMethod)
	}
	if _, ok := model.ParseContactMethodType(string(method.Type)); !ok {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidContactMethod, method.Type)
	}
	if strings.TrimSpace(method.Value) == "" {
		return fmt.Errorf("%w: missing value", ErrInvalidContactMethod)
	}
	return nil
}

func validateActivity(activity *model.Activity) error {
	if activity == nil {
		return fmt.Errorf("%w: activity", ErrNilParameter)
	}
	if activity.ProspectID == 0 {
		return fmt.Errorf("%w: missing prospect ID", ErrInvalidActivity)
	}
	if activity.Type == "" {
		return fmt.Errorf("%w: missing type", ErrInvalidActivity)
	}
	return nil
}
