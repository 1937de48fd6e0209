package school

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

type School struct {
	ID       int    `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Archived bool   `json:"archived" db:"archived"`
}

// NewSchool contains information needed to create a new School.
type NewSchool struct {
	Name string `json:"name" validate:"required"`
}

func (ns *NewSchool) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	return validate.Struct(ns)
}

// UpdateSchool defines what information may be provided to modify an existing School.
type UpdateSchool struct {
	Name     string `json:"name" validate:"required"`
	Archived *bool  `json:"archived"`
}

func (us *UpdateSchool) Validate(validate *validator.Validate) error {
	us.Name = core.CleanString(us.Name)
	return validate.Struct(us)
}
