package entity

import (
	"strings"
	"time"
)

// Section names one partition of a merchant draft or record.
type Section string

// Draft sections, keyed by their JSON names
const (
	SectionBusiness Section = "business"
	SectionPersonal Section = "personal"
	SectionProduct  Section = "product"
	SectionBank     Section = "bank"
	SectionVPA      Section = "vpa"
	SectionKYCDocs  Section = "kycDocs"
)

// Sections lists the map-valued sections in wizard order.
var Sections = []Section{
	SectionBusiness,
	SectionPersonal,
	SectionProduct,
	SectionBank,
	SectionVPA,
	SectionKYCDocs,
}

// IsValid reports whether s names a known section
func (s Section) IsValid() bool {
	for _, known := range Sections {
		if s == known {
			return true
		}
	}
	return false
}

// Fields is a flat field-name to value mapping. An absent key and an empty
// value both mean "unset".
type Fields map[string]string

// Clone returns an independent copy. A nil receiver yields an empty map.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Present reports whether key holds a non-blank value
func (f Fields) Present(key string) bool {
	return strings.TrimSpace(f[key]) != ""
}

// IsEmpty reports whether no field holds a non-blank value
func (f Fields) IsEmpty() bool {
	for k := range f {
		if f.Present(k) {
			return false
		}
	}
	return true
}

// Draft is the in-progress onboarding data. Every section is always non-nil.
type Draft struct {
	BusinessEntityType string `json:"businessEntityType"`
	Business           Fields `json:"business"`
	Personal           Fields `json:"personal"`
	Product            Fields `json:"product"`
	Bank               Fields `json:"bank"`
	VPA                Fields `json:"vpa"`
	KYCDocs            Fields `json:"kycDocs"`
}

// DefaultProduct returns the platform product defaults
func DefaultProduct() Fields {
	return Fields{
		"productType": DefaultProductType,
		"maxDaily":    DefaultMaxDaily,
		"minPerTxn":   DefaultMinPerTxn,
		"maxPerTxn":   DefaultMaxPerTxn,
		"creditLimit": DefaultCreditLimit,
	}
}

// NewDraft returns an empty draft carrying the product defaults
func NewDraft() Draft {
	return Draft{
		Business: Fields{},
		Personal: Fields{},
		Product:  DefaultProduct(),
		Bank:     Fields{},
		VPA:      Fields{},
		KYCDocs:  Fields{},
	}
}

// Clone deep-copies the draft
func (d Draft) Clone() Draft {
	return Draft{
		BusinessEntityType: d.BusinessEntityType,
		Business:           d.Business.Clone(),
		Personal:           d.Personal.Clone(),
		Product:            d.Product.Clone(),
		Bank:               d.Bank.Clone(),
		VPA:                d.VPA.Clone(),
		KYCDocs:            d.KYCDocs.Clone(),
	}
}

// Section returns the named section, or nil for an unknown name
func (d *Draft) Section(s Section) Fields {
	switch s {
	case SectionBusiness:
		return d.Business
	case SectionPersonal:
		return d.Personal
	case SectionProduct:
		return d.Product
	case SectionBank:
		return d.Bank
	case SectionVPA:
		return d.VPA
	case SectionKYCDocs:
		return d.KYCDocs
	}
	return nil
}

// SetSection replaces the named section wholesale
func (d *Draft) SetSection(s Section, f Fields) {
	if f == nil {
		f = Fields{}
	}
	switch s {
	case SectionBusiness:
		d.Business = f
	case SectionPersonal:
		d.Personal = f
	case SectionProduct:
		d.Product = f
	case SectionBank:
		d.Bank = f
	case SectionVPA:
		d.VPA = f
	case SectionKYCDocs:
		d.KYCDocs = f
	}
}

// Normalize replaces nil sections with empty maps
func (d *Draft) Normalize() {
	for _, s := range Sections {
		if d.Section(s) == nil {
			d.SetSection(s, Fields{})
		}
	}
}

// Merchant is the persisted merchant record
type Merchant struct {
	ID string `json:"_id"`
	Draft
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone deep-copies the record
func (m *Merchant) Clone() *Merchant {
	if m == nil {
		return nil
	}
	c := *m
	c.Draft = m.Draft.Clone()
	return &c
}

// MerchantPatch is a shallow top-level update. Each set section replaces the
// stored section in full; unset sections are left untouched.
type MerchantPatch struct {
	BusinessEntityType *string
	Sections           map[Section]Fields
}

// NewSectionPatch builds a patch that replaces one section
func NewSectionPatch(s Section, f Fields) MerchantPatch {
	return MerchantPatch{Sections: map[Section]Fields{s: f.Clone()}}
}

// NewEntityTypePatch builds a patch that sets only businessEntityType
func NewEntityTypePatch(entityType string) MerchantPatch {
	return MerchantPatch{BusinessEntityType: &entityType}
}

// NewDraftPatch builds a patch carrying every section of d
func NewDraftPatch(d Draft) MerchantPatch {
	c := d.Clone()
	p := MerchantPatch{
		BusinessEntityType: &c.BusinessEntityType,
		Sections:           make(map[Section]Fields, len(Sections)),
	}
	for _, s := range Sections {
		p.Sections[s] = c.Section(s)
	}
	return p
}

// IsEmpty reports whether the patch changes nothing
func (p MerchantPatch) IsEmpty() bool {
	return p.BusinessEntityType == nil && len(p.Sections) == 0
}

// Apply merges the patch into the draft at the top level
func (p MerchantPatch) Apply(d *Draft) {
	if p.BusinessEntityType != nil {
		d.BusinessEntityType = *p.BusinessEntityType
	}
	for s, f := range p.Sections {
		d.SetSection(s, f.Clone())
	}
}

// MerchantFilter narrows a merchant listing
type MerchantFilter struct {
	Status *Status
	Search string
}

// Matches applies the filter in memory
func (f MerchantFilter) Matches(m *Merchant) bool {
	if f.Status != nil && m.Status != *f.Status {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" {
		return true
	}
	for _, v := range []string{
		m.Business["brandName"],
		m.Business["legalName"],
		m.Personal["name"],
		m.Personal["email"],
	} {
		if strings.Contains(strings.ToLower(v), term) {
			return true
		}
	}
	return false
}
