package wizard

import (
	"fmt"
	"slices"

	"github.com/Nzyazin/invest/internal/core/models"
	"github.com/Nzyazin/invest/internal/core/usecase"
)

// DraftUpdate is a partial edit of a transaction draft. Nil members are left
// untouched.
type DraftUpdate struct {
	Amount      *string                     `json:"amount,omitempty"`
	Method      *models.Method              `json:"method,omitempty"`
	Fields      map[models.FieldName]string `json:"fields,omitempty"`
	ReferenceID *string                     `json:"reference_id,omitempty"`
	Proof       *models.Proof               `json:"-"`
}

// Apply writes the update into d. A method change runs first so the fields
// are checked against the new method.
func (u DraftUpdate) Apply(d *models.TransactionDraft) error {
	if u.Method != nil {
		if err := usecase.SelectMethod(d, *u.Method); err != nil {
			return err
		}
	}

	if len(u.Fields) > 0 {
		if d.Method == "" {
			return usecase.ErrMethodRequired
		}
		allowed, err := usecase.FieldsRequiredFor(d.Method)
		if err != nil {
			return err
		}
		for name, value := range u.Fields {
			if !slices.Contains(allowed, name) {
				return fmt.Errorf("%w: %s for %s", usecase.ErrFieldNotAllowed, name, d.Method)
			}
			d.SetField(name, value)
		}
	}

	if u.Amount != nil {
		d.AmountInput = *u.Amount
	}
	if u.ReferenceID != nil {
		d.ReferenceID = *u.ReferenceID
	}
	if u.Proof != nil {
		d.Proof = u.Proof
	}
	return nil
}
