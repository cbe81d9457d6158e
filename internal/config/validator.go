// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `internal/config/loader.go` calls `validateStruct` immediately after
// it unmarshals the merged Koanf tree into a `Config` instance.  Any tag
// mismatch or validation error aborts the command, ensuring a run never
// starts with partial or malformed driver configuration.  A half-formed
// driver block would route tenant migrations to the wrong place.
//
// The rules in use are `required` on the default connection name and on
// each driver's migration path, plus `dive` into the driver map so
// nested `connection` blocks are checked too.

package config

import "github.com/go-playground/validator/v10"

var v = validator.New()

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	return v.Struct(c)
}
