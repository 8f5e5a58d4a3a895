package service

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/Ahmat91/Ecommerce-ALX/internal/entity"
)

const (
	maxCategoryNameLen = 100
	maxProductNameLen  = 255
	// NUMERIC(10, 2): at most eight integer digits.
	maxPriceIntegerDigits = 8
)

var maxPrice = decimal.New(1, maxPriceIntegerDigits)

// ProductInput carries the writable product fields.
type ProductInput struct {
	CategoryID    string
	Name          string
	Description   string
	Price         *decimal.Decimal
	StockQuantity int
	ImageURL      string
}

func validateCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", entity.NewValidationError("name", "this field is required")
	}
	if utf8.RuneCountInString(name) > maxCategoryNameLen {
		return "", entity.NewValidationError("name", "must be at most %d characters", maxCategoryNameLen)
	}
	return name, nil
}

func validateProductInput(in *ProductInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.CategoryID = strings.TrimSpace(in.CategoryID)
	in.ImageURL = strings.TrimSpace(in.ImageURL)

	if in.CategoryID == "" {
		return entity.NewValidationError("category_id", "this field is required")
	}
	if in.Name == "" {
		return entity.NewValidationError("name", "this field is required")
	}
	if utf8.RuneCountInString(in.Name) > maxProductNameLen {
		return entity.NewValidationError("name", "must be at most %d characters", maxProductNameLen)
	}
	if strings.TrimSpace(in.Description) == "" {
		return entity.NewValidationError("description", "this field is required")
	}
	if in.Price == nil {
		return entity.NewValidationError("price", "this field is required")
	}
	if in.Price.IsNegative() {
		return entity.NewValidationError("price", "must not be negative")
	}
	if !in.Price.Equal(in.Price.Round(entity.PriceDecimals)) {
		return entity.NewValidationError("price", "must have at most %d decimal places", entity.PriceDecimals)
	}
	if in.Price.GreaterThanOrEqual(maxPrice) {
		return entity.NewValidationError("price", "must have at most %d digits before the decimal point", maxPriceIntegerDigits)
	}
	if in.StockQuantity < 0 {
		return entity.NewValidationError("stock_quantity", "must not be negative")
	}
	if in.StockQuantity > entity.MaxStock {
		return entity.NewValidationError("stock_quantity", "must be at most %d", entity.MaxStock)
	}
	if in.ImageURL != "" {
		u, err := url.Parse(in.ImageURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return entity.NewValidationError("image_url", "must be an absolute http(s) URL")
		}
	}
	return nil
}

func requireStaff(actor entity.Identity) error {
	if !actor.Authenticated() {
		return entity.ErrUnauthenticated
	}
	if !actor.IsStaff {
		return entity.ErrPermission
	}
	return nil
}

func requireUser(userID string) error {
	if userID == "" {
		return entity.ErrUnauthenticated
	}
	return nil
}
