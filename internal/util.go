package internal

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
)

var validate = validator.New()

// NewYAMLDecoder creates a new YAML decoder with strict mode and validation enabled.
// JSON documents are accepted as well since JSON is a subset of YAML.
func NewYAMLDecoder(reader io.Reader, opts ...yaml.DecodeOption) *yaml.Decoder {
	return yaml.NewDecoder(reader,
		append(opts,
			yaml.Strict(),
			yaml.Validator(validate))...)
}

// ValidateStruct runs the struct validation used by the YAML decoder on an already decoded value.
func ValidateStruct(v any) error {
	return validate.Struct(v)
}

// IsDecodeErrorAndPrint checks if the error is a YAML decoding error.
// If it is, it prints the formatted error to stderr and returns true.
// Stdout is left alone since it may carry the generated script.
func IsDecodeErrorAndPrint(err error) bool {
	var yamlError yaml.Error
	if errors.As(err, &yamlError) {
		fmt.Fprintln(os.Stderr, yamlError.FormatError(true, true))
		return true
	}
	return false
}
