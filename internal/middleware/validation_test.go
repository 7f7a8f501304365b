package middleware

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Request shape mirroring the catalog write payloads
type testProductPayload struct {
	Name       string  `json:"nombre" validate:"required,max=100"`
	BasePrice  float64 `json:"precio_base" validate:"gte=0"`
	CategoryID string  `json:"id_categoria" validate:"required,uuid"`
}

func TestProperty_RequiredFieldValidationWorks(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("missing required fields are rejected", prop.ForAll(
		func(includeName bool, includeCategory bool) bool {
			reqMap := map[string]interface{}{
				"precio_base": 9.99,
			}

			if includeName {
				reqMap["nombre"] = "Pizza Margarita"
			}
			if includeCategory {
				reqMap["id_categoria"] = "0188a2f0-5f44-7cde-a1b2-0123456789ab"
			}

			allFieldsPresent := includeName && includeCategory

			reqBody, _ := json.Marshal(reqMap)
			req := httptest.NewRequest("POST", "/api/v1/productos", bytes.NewReader(reqBody))
			req.Header.Set("Content-Type", "application/json")

			var payload testProductPayload
			err := DecodeAndValidate(req, &payload)

			if allFieldsPresent {
				return err == nil
			}
			return err != nil
		},
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Test that validation errors are properly formatted
func TestProperty_ValidationErrorsAreFormatted(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("validation errors include field information", prop.ForAll(
		func() bool {
			// id_categoria is not a UUID
			reqMap := map[string]interface{}{
				"nombre":       "Pizza Margarita",
				"precio_base":  9.99,
				"id_categoria": "not-a-uuid",
			}

			reqBody, _ := json.Marshal(reqMap)
			req := httptest.NewRequest("POST", "/api/v1/productos", bytes.NewReader(reqBody))
			req.Header.Set("Content-Type", "application/json")

			var payload testProductPayload
			err := DecodeAndValidate(req, &payload)

			if err == nil {
				return false // Should have validation error
			}

			// Format the errors
			validationErrors := FormatValidationErrors(err)

			// Should have at least one error
			if len(validationErrors) == 0 {
				return false
			}

			// Each error should have a field and message
			for _, ve := range validationErrors {
				if ve.Field == "" || ve.Message == "" {
					return false
				}
			}

			return true
		},
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Test that valid requests pass validation
func TestProperty_ValidRequestsPassValidation(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("valid requests pass validation", prop.ForAll(
		func(price float64) bool {
			reqMap := map[string]interface{}{
				"nombre":       "Pizza Margarita",
				"precio_base":  price,
				"id_categoria": "0188a2f0-5f44-7cde-a1b2-0123456789ab",
			}

			reqBody, _ := json.Marshal(reqMap)
			req := httptest.NewRequest("POST", "/api/v1/productos", bytes.NewReader(reqBody))
			req.Header.Set("Content-Type", "application/json")

			var payload testProductPayload
			err := DecodeAndValidate(req, &payload)

			return err == nil
		},
		gen.Float64Range(0, 9999.99),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Test price range validation
func TestProperty_NegativePriceValidation(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("negative prices are rejected", prop.ForAll(
		func(price float64) bool {
			reqMap := map[string]interface{}{
				"nombre":       "Pizza Margarita",
				"precio_base":  price,
				"id_categoria": "0188a2f0-5f44-7cde-a1b2-0123456789ab",
			}

			reqBody, _ := json.Marshal(reqMap)
			req := httptest.NewRequest("POST", "/api/v1/productos", bytes.NewReader(reqBody))
			req.Header.Set("Content-Type", "application/json")

			var payload testProductPayload
			err := DecodeAndValidate(req, &payload)

			if price >= 0 {
				return err == nil // Should pass
			}
			return err != nil // Should fail
		},
		gen.Float64Range(-100, 100),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
