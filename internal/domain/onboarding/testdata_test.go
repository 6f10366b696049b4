package onboarding

import "github.com/garyjia/merchant-onboarding/internal/domain/entity"

func fill(keys []string, value string) entity.Fields {
	f := entity.Fields{}
	for _, k := range keys {
		f[k] = value
	}
	return f
}

// completeDraft returns a draft that passes every step
func completeDraft() entity.Draft {
	d := entity.NewDraft()
	d.BusinessEntityType = entity.EntityPrivateLimited
	d.Business = fill(BusinessRequired, "x")
	d.Personal = fill(PersonalRequired, "x")
	d.Personal["kycDocumentType"] = entity.KYCDocAadhar
	d.Bank = fill(BankRequired, "x")
	d.VPA = entity.Fields{"handle": "acme"}
	d.KYCDocs = fill(KYCRequired, "https://files.example.com/doc.pdf")
	d.KYCDocs["itrFiled"] = entity.ITRFiledYes
	d.KYCDocs["itrFile"] = "https://files.example.com/itr.pdf"
	return d
}
