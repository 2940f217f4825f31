package domain

import "strings"

type CorporateBilling struct {
	CompanyName string `json:"companyName"`
	TaxNo       string `json:"taxNo"`
	TaxOffice   string `json:"taxOffice"`
}

type Address struct {
	Title        string `json:"title"`
	City         string `json:"city"`
	District     string `json:"district"`
	Neighborhood string `json:"neighborhood,omitempty"`
	ZipCode      string `json:"zipCode,omitempty"`
	Content      string `json:"content"`
	Phone        string `json:"phone,omitempty"`
	// Billing is set only for corporate invoices.
	Billing *CorporateBilling `json:"billing,omitempty"`
}

// IsCorporate reports whether the address carries corporate billing fields.
func (a Address) IsCorporate() bool {
	return a.Billing != nil
}

// SameLocation compares the dedupe tuple verbatim.
func (a Address) SameLocation(b Address) bool {
	return a.Content == b.Content && a.City == b.City && a.District == b.District
}

// ComposeContent joins the structured parts of an address form into the
// free-text line stored on the address.
func ComposeContent(street, neighborhood, district, city, zip string) string {
	parts := make([]string, 0, 4)
	if s := strings.TrimSpace(street); s != "" {
		parts = append(parts, s)
	}
	if n := strings.TrimSpace(neighborhood); n != "" {
		parts = append(parts, n)
	}
	loc := strings.TrimSpace(district)
	if c := strings.TrimSpace(city); c != "" {
		if loc != "" {
			loc += "/" + c
		} else {
			loc = c
		}
	}
	if loc != "" {
		parts = append(parts, loc)
	}
	if z := strings.TrimSpace(zip); z != "" {
		parts = append(parts, z)
	}
	return strings.Join(parts, ", ")
}

type Addresses []Address

// AppendUnique appends a when no address with the same (content, city,
// district) exists. It reports whether the list grew.
func (as Addresses) AppendUnique(a Address) (Addresses, bool) {
	for _, existing := range as {
		if existing.SameLocation(a) {
			return as, false
		}
	}
	return append(as, a), true
}

// BillingAddress is the diverging invoice address captured at checkout.
type BillingAddress struct {
	Name     string            `json:"name"`
	City     string            `json:"city"`
	District string            `json:"district"`
	Content  string            `json:"content"`
	Phone    string            `json:"phone,omitempty"`
	Company  *CorporateBilling `json:"company,omitempty"`
}
