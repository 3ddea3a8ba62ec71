package usecase

import (
	"fmt"
	"slices"

	"github.com/Nzyazin/invest/internal/core/models"
)

// MethodInfo describes a channel for rendering the method picker.
type MethodInfo struct {
	Method         models.Method      `json:"id"`
	Label          string             `json:"name"`
	RequiredFields []models.FieldName `json:"required_fields"`
}

var methodCatalog = []MethodInfo{
	{
		Method: models.MethodBankTransfer,
		Label:  "Bank Transfer",
		RequiredFields: []models.FieldName{
			models.FieldBankName,
			models.FieldAccountOwnerName,
			models.FieldAccountNumber,
		},
	},
	{
		Method:         models.MethodMobileWalletA,
		Label:          "JazzCash",
		RequiredFields: []models.FieldName{models.FieldAccountOwnerName, models.FieldPhoneNumber},
	},
	{
		Method:         models.MethodMobileWalletB,
		Label:          "EasyPaisa",
		RequiredFields: []models.FieldName{models.FieldAccountOwnerName, models.FieldPhoneNumber},
	},
}

func Methods() []MethodInfo {
	out := make([]MethodInfo, len(methodCatalog))
	for i, m := range methodCatalog {
		m.RequiredFields = slices.Clone(m.RequiredFields)
		out[i] = m
	}
	return out
}

// FieldsRequiredFor returns the fields a method needs, or ErrUnknownMethod.
func FieldsRequiredFor(method models.Method) ([]models.FieldName, error) {
	for _, m := range methodCatalog {
		if m.Method == method {
			return slices.Clone(m.RequiredFields), nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
}

// SelectMethod switches the draft to method. A real switch clears every
// field entered for the previous channel, the holder name included;
// selecting the current method again keeps them.
func SelectMethod(draft *models.TransactionDraft, method models.Method) error {
	if _, err := FieldsRequiredFor(method); err != nil {
		return err
	}
	if draft.Method == method {
		return nil
	}

	draft.Method = method
	clear(draft.MethodFields)
	return nil
}

// MissingFields lists required fields that are absent or blank.
func MissingFields(draft *models.TransactionDraft) ([]models.FieldName, error) {
	if draft.Method == "" {
		return nil, ErrMethodRequired
	}
	required, err := FieldsRequiredFor(draft.Method)
	if err != nil {
		return nil, err
	}

	var missing []models.FieldName
	for _, name := range required {
		if draft.Field(name) == "" {
			missing = append(missing, name)
		}
	}
	return missing, nil
}

// ValidateMethodFields returns ErrMissingFields naming what is absent.
func ValidateMethodFields(draft *models.TransactionDraft) error {
	missing, err := MissingFields(draft)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrMissingFields, missing)
	}
	return nil
}
