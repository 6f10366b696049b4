package onboarding

import (
	"strings"

	"github.com/garyjia/merchant-onboarding/internal/domain/entity"
)

// Validation messages surfaced to the operator
const (
	MsgSelectEntityType = "Select business entity type"
	MsgFillBusiness     = "Fill all Business Information fields"
	MsgFillPersonal     = "Fill all Personal Information fields"
	MsgFillProduct      = "Fill all Product Information fields"
	MsgFillBank         = "Fill all Bank Information fields"
	MsgEnterVPA         = "Enter VPA handle"
	MsgUploadKYC        = "Upload all required KYC documents"
	MsgSelectITRFiled   = "Select ITR filed status"
	MsgUploadITRFile    = "Upload ITR file"
	MsgProvideITRReason = "Provide ITR reason"
)

// BusinessRequired are the step 1 required keys
var BusinessRequired = []string{
	"legalName", "brandName", "storeName", "address", "pinCode", "state", "district", "city",
	"establishmentYear", "registeredMobile", "registeredEmail", "pan", "registrationNumber",
	"turnoverFinancialYear", "turnoverAmount", "natureOfBusiness", "mcc", "gstin", "websiteUrl",
}

// PersonalRequired are the step 2 required keys, before the passport rule
var PersonalRequired = []string{
	"name", "address", "pinCode", "state", "district", "city", "mobile", "email", "pan",
	"kycDocumentType", "kycDocumentNumber",
}

// ProductRequired are the step 3 required keys
var ProductRequired = []string{"productType", "maxDaily", "minPerTxn", "maxPerTxn", "creditLimit"}

// BankRequired are the step 4 required keys
var BankRequired = []string{
	"accountType", "beneficiaryName", "accountNumber", "ifsc", "bankName", "branchName",
	"bankPinCode", "state", "district", "city",
}

// VPARequired are the step 5 required keys
var VPARequired = []string{"handle"}

// KYCRequired are the step 6 document keys, before the ITR rules
var KYCRequired = []string{
	"businessPan", "businessAddressProofType", "businessAddressProof", "signedMoa", "signedAoa",
	"registrationCertificate", "gstRegistration", "businessLicence", "storeInsideImage",
	"storeOutsideImage", "boardResolution", "nsdlDeclaration", "nsdlMaDeclaration", "individualPan",
	"kycFront", "kycBack", "individualAddressProofType", "individualAddressProof", "individualPhoto",
	"bankAccountProofType", "bankAccountProof",
}

// RequiredKeys returns the keys a step needs for the given draft. The personal
// step adds passportExpiryDate when the KYC document is a passport.
func RequiredKeys(kind StepKind, d entity.Draft) []string {
	switch kind {
	case StepEntityType:
		return []string{"businessEntityType"}
	case StepBusiness:
		return BusinessRequired
	case StepPersonal:
		if d.Personal["kycDocumentType"] == entity.KYCDocPassport {
			return append(append([]string{}, PersonalRequired...), "passportExpiryDate")
		}
		return PersonalRequired
	case StepProduct:
		return ProductRequired
	case StepBank:
		return BankRequired
	case StepVPA:
		return VPARequired
	case StepKYCDocuments:
		keys := append(append([]string{}, KYCRequired...), "itrFiled")
		switch d.KYCDocs["itrFiled"] {
		case entity.ITRFiledYes:
			keys = append(keys, "itrFile")
		case entity.ITRFiledNo:
			keys = append(keys, "itrReason")
		}
		return keys
	}
	return nil
}

// Validate checks presence of the step's required keys and returns the first
// failure, or nil.
func Validate(kind StepKind, d entity.Draft) error {
	switch kind {
	case StepEntityType:
		if strings.TrimSpace(d.BusinessEntityType) == "" {
			return invalid(kind, MsgSelectEntityType)
		}
	case StepBusiness:
		return requireAll(kind, d.Business, BusinessRequired, MsgFillBusiness)
	case StepPersonal:
		return requireAll(kind, d.Personal, RequiredKeys(kind, d), MsgFillPersonal)
	case StepProduct:
		return requireAll(kind, d.Product, ProductRequired, MsgFillProduct)
	case StepBank:
		return requireAll(kind, d.Bank, BankRequired, MsgFillBank)
	case StepVPA:
		return requireAll(kind, d.VPA, VPARequired, MsgEnterVPA)
	case StepKYCDocuments:
		return validateKYC(d.KYCDocs)
	default:
		return ErrInvalidStep
	}
	return nil
}

// ValidateIndex validates the step at index i
func ValidateIndex(i int, d entity.Draft) error {
	kind, ok := StepForIndex(i)
	if !ok {
		return ErrInvalidStep
	}
	return Validate(kind, d)
}

// ValidateAll validates every step in order and returns the first failure
func ValidateAll(d entity.Draft) error {
	for i := FirstStep; i <= LastStep; i++ {
		if err := Validate(StepKind(i), d); err != nil {
			return err
		}
	}
	return nil
}

func validateKYC(docs entity.Fields) error {
	if err := requireAll(StepKYCDocuments, docs, KYCRequired, MsgUploadKYC); err != nil {
		return err
	}
	if !docs.Present("itrFiled") {
		return invalid(StepKYCDocuments, MsgSelectITRFiled)
	}
	// any other answer only needs to be present
	switch docs["itrFiled"] {
	case entity.ITRFiledYes:
		if !docs.Present("itrFile") {
			return invalid(StepKYCDocuments, MsgUploadITRFile)
		}
	case entity.ITRFiledNo:
		if !docs.Present("itrReason") {
			return invalid(StepKYCDocuments, MsgProvideITRReason)
		}
	}
	return nil
}

func requireAll(kind StepKind, fields entity.Fields, keys []string, message string) error {
	for _, k := range keys {
		if !fields.Present(k) {
			return invalid(kind, message)
		}
	}
	return nil
}

// IsDocumentField reports whether a kycDocs key holds an uploaded file URL
// rather than a selection.
func IsDocumentField(key string) bool {
	if key == "itrFile" {
		return true
	}
	if strings.HasSuffix(key, "Type") {
		return false
	}
	for _, k := range KYCRequired {
		if k == key {
			return true
		}
	}
	return false
}
