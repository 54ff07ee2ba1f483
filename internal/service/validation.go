package service

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/PaulBabatuyi/biovault/internal/storage"
	"github.com/PaulBabatuyi/biovault/internal/vaulterr"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// user ids name storage directories and catalog key prefixes verbatim
	_ = v.RegisterValidation("userid", func(fl validator.FieldLevel) bool {
		return storage.ValidateUserID(fl.Field().String()) == nil
	})
	return v
}

type userRequest struct {
	UserID string `validate:"required,userid"`
}

type fileRequest struct {
	UserID   string `validate:"required,userid"`
	Filename string `validate:"required,max=255"`
}

type accessRequest struct {
	Bound    string `validate:"required,userid"`
	Owner    string `validate:"required,userid"`
	Filename string `validate:"required,max=255"`
}

// validateRequest runs the struct tags and reports the first failure as a
// validation error.
func validateRequest(req any) error {
	if err := validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return vaulterr.Validation("%s is %s", strings.ToLower(fe.Field()), describeTag(fe.Tag()))
		}
		return vaulterr.Validation("%v", err)
	}
	return nil
}

func describeTag(tag string) string {
	switch tag {
	case "required":
		return "required"
	case "max":
		return "too long"
	case "userid":
		return "not a valid user id"
	default:
		return fmt.Sprintf("invalid (%s)", tag)
	}
}

// sniffContentType reads up to 512 bytes from rs and rewinds it.
func sniffContentType(rs io.ReadSeeker) (string, error) {
	buffer := make([]byte, 512)
	n, err := io.ReadFull(rs, buffer)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", fmt.Errorf("read magic bytes: %w", err)
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind: %w", err)
	}
	return http.DetectContentType(buffer[:n]), nil
}
