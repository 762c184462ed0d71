package interfaces

import (
	"errors"
	"net/http"

	billing "github.com/VitorRandrade/monetary-mind-71177-sub000/internal/billing/domain"
)

func respondServiceError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, billing.ErrCardNotFound),
		errors.Is(err, billing.ErrInvoiceNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, billing.ErrInvoiceNotOpen),
		errors.Is(err, billing.ErrInvoiceNotClosed):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, billing.ErrInvalidClosingDay),
		errors.Is(err, billing.ErrInvalidDueDay),
		errors.Is(err, billing.ErrInvalidCompetency),
		errors.Is(err, billing.ErrInvalidInstallmentCount),
		errors.Is(err, billing.ErrSimplePurchaseSplit),
		errors.Is(err, billing.ErrNonPositiveAmount),
		errors.Is(err, billing.ErrMissingPayingAccount),
		errors.Is(err, billing.ErrMissingPaidDate),
		errors.Is(err, billing.ErrNilCard):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
