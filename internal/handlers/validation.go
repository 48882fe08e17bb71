package handlers

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/huangang/coachflow/backend/internal/models"
)

var registerOnce sync.Once

// RegisterValidators adds the domain tags used in request bindings to gin's
// validator engine. It is safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterValidation("org_role", func(fl validator.FieldLevel) bool {
			return models.IsValidRole(fl.Field().String())
		})
		v.RegisterValidation("membership_status", func(fl validator.FieldLevel) bool {
			return models.IsValidMembershipStatus(fl.Field().String())
		})
		v.RegisterValidation("session_outcome", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == models.SessionCompleted || s == models.SessionCancelled
		})
		v.RegisterValidation("invoice_target", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == models.InvoiceViewed || s == models.InvoicePaid
		})
	})
}
