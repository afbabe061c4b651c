package validator

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/mgn-tools/launch-template-patcher/internal/types"
)

var validate = validator.New()

// ValidateRow checks one override row's enumerated columns before parsing.
func ValidateRow(row *types.OverrideRow) error {
	if err := validate.Struct(row); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("row for server %q: field %s has invalid value %q", row.ServerName, fe.Field(), fmt.Sprint(fe.Value()))
		}
		return err
	}
	return nil
}

// ValidatePropagation checks a propagation request before any target is
// touched: exactly one source, a target selector, whitelisted parameters
// only, and flag combinations that actually have a source to read from.
func ValidatePropagation(req *types.PropagationRequest) error {
	if req.SourceServer != "" && req.TemplateID != "" {
		return types.ErrConflictingSource
	}
	if req.SourceServer == "" && req.TemplateID == "" {
		return errors.New("either a source server or a launch template id is required")
	}
	if req.CopyLaunchSettings && req.SourceServer == "" && req.LaunchSettingsFile == "" {
		return errors.New("--copy-launch-settings requires a source server or a launch settings file")
	}
	if req.CopyPostLaunchSettings && req.SourceServer == "" {
		return errors.New("--copy-post-launch-settings requires a source server")
	}
	if req.CopyReplicationSettings && req.SourceServer == "" {
		return errors.New("--copy-replication-settings requires a source server")
	}
	return validate.Struct(req)
}
