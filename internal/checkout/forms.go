package checkout

import (
	"strings"

	"github.com/fjod/storefront/internal/domain"
)

// AddressForm is the new-address form of the delivery step. City,
// district and neighborhood come from cascading selects.
type AddressForm struct {
	Title        string `json:"title"`
	City         string `json:"city"`
	District     string `json:"district"`
	Neighborhood string `json:"neighborhood"`
	Street       string `json:"street"`
	ZipCode      string `json:"zipCode"`
	Phone        string `json:"phone"`

	Corporate   bool   `json:"corporate"`
	CompanyName string `json:"companyName"`
	TaxNo       string `json:"taxNo"`
	TaxOffice   string `json:"taxOffice"`
}

func (f AddressForm) validate(v *domain.ValidationError, locations LocationDirectory) {
	v.Require("city", f.City)
	v.Require("district", f.District)
	v.Require("street", f.Street)
	v.Require("phone", f.Phone)
	if f.Corporate {
		v.Require("companyName", f.CompanyName)
		v.Require("taxNo", f.TaxNo)
		v.Require("taxOffice", f.TaxOffice)
	}
	if locations != nil {
		validateLocation(v, locations, "", f.City, f.District, f.Neighborhood)
	}
}

// Address builds the stored form, composing Content from the parts.
func (f AddressForm) Address() domain.Address {
	a := domain.Address{
		Title:        strings.TrimSpace(f.Title),
		City:         strings.TrimSpace(f.City),
		District:     strings.TrimSpace(f.District),
		Neighborhood: strings.TrimSpace(f.Neighborhood),
		ZipCode:      strings.TrimSpace(f.ZipCode),
		Phone:        strings.TrimSpace(f.Phone),
		Content:      domain.ComposeContent(f.Street, f.Neighborhood, f.District, f.City, f.ZipCode),
	}
	if a.Title == "" {
		a.Title = a.District + "/" + a.City
	}
	if f.Corporate {
		a.Billing = &domain.CorporateBilling{
			CompanyName: strings.TrimSpace(f.CompanyName),
			TaxNo:       strings.TrimSpace(f.TaxNo),
			TaxOffice:   strings.TrimSpace(f.TaxOffice),
		}
	}
	return a
}

// BillingForm is filled only when the invoice goes somewhere other than
// the delivery address.
type BillingForm struct {
	Name     string `json:"name"`
	City     string `json:"city"`
	District string `json:"district"`
	Content  string `json:"content"`
	Phone    string `json:"phone"`

	Corporate   bool   `json:"corporate"`
	CompanyName string `json:"companyName"`
	TaxNo       string `json:"taxNo"`
	TaxOffice   string `json:"taxOffice"`
}

func (f BillingForm) validate(v *domain.ValidationError, locations LocationDirectory) {
	v.Require("billing.name", f.Name)
	v.Require("billing.city", f.City)
	v.Require("billing.district", f.District)
	v.Require("billing.content", f.Content)
	if f.Corporate {
		v.Require("billing.companyName", f.CompanyName)
		v.Require("billing.taxNo", f.TaxNo)
		v.Require("billing.taxOffice", f.TaxOffice)
	}
	if locations != nil {
		validateLocation(v, locations, "billing.", f.City, f.District, "")
	}
}

func (f BillingForm) Billing() *domain.BillingAddress {
	b := &domain.BillingAddress{
		Name:     strings.TrimSpace(f.Name),
		City:     strings.TrimSpace(f.City),
		District: strings.TrimSpace(f.District),
		Content:  strings.TrimSpace(f.Content),
		Phone:    strings.TrimSpace(f.Phone),
	}
	if f.Corporate {
		b.Company = &domain.CorporateBilling{
			CompanyName: strings.TrimSpace(f.CompanyName),
			TaxNo:       strings.TrimSpace(f.TaxNo),
			TaxOffice:   strings.TrimSpace(f.TaxOffice),
		}
	}
	return b
}
