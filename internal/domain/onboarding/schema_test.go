package onboarding

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/merchant-onboarding/internal/domain/entity"
)

func TestStepForIndex(t *testing.T) {
	for i := 0; i < StepCount; i++ {
		kind, ok := StepForIndex(i)
		require.True(t, ok)
		assert.Equal(t, i, kind.Index())
	}

	_, ok := StepForIndex(-1)
	assert.False(t, ok)
	_, ok = StepForIndex(StepCount)
	assert.False(t, ok)
}

func TestStepKind_Section(t *testing.T) {
	_, ok := StepEntityType.Section()
	assert.False(t, ok)

	section, ok := StepKYCDocuments.Section()
	assert.True(t, ok)
	assert.Equal(t, entity.SectionKYCDocs, section)
	assert.True(t, StepKYCDocuments.IsLast())
	assert.False(t, StepVPA.IsLast())
}

func TestValidate_CompleteDraftPassesEveryStep(t *testing.T) {
	d := completeDraft()
	for i := 0; i < StepCount; i++ {
		assert.NoError(t, ValidateIndex(i, d), "step %d", i)
	}
	assert.NoError(t, ValidateAll(d))
}

func TestValidate_BlankRequiredKeyFails(t *testing.T) {
	tests := []struct {
		name    string
		step    StepKind
		mutate  func(d *entity.Draft)
		message string
	}{
		{"entity type unset", StepEntityType, func(d *entity.Draft) { d.BusinessEntityType = "" }, MsgSelectEntityType},
		{"business pan unset", StepBusiness, func(d *entity.Draft) { delete(d.Business, "pan") }, MsgFillBusiness},
		{"business name whitespace", StepBusiness, func(d *entity.Draft) { d.Business["legalName"] = "   " }, MsgFillBusiness},
		{"personal email empty", StepPersonal, func(d *entity.Draft) { d.Personal["email"] = "" }, MsgFillPersonal},
		{"product limit cleared", StepProduct, func(d *entity.Draft) { d.Product["maxDaily"] = "" }, MsgFillProduct},
		{"bank ifsc unset", StepBank, func(d *entity.Draft) { delete(d.Bank, "ifsc") }, MsgFillBank},
		{"vpa unset", StepVPA, func(d *entity.Draft) { d.VPA = entity.Fields{} }, MsgEnterVPA},
		{"kyc front missing", StepKYCDocuments, func(d *entity.Draft) { delete(d.KYCDocs, "kycFront") }, MsgUploadKYC},
		{"itr filed unset", StepKYCDocuments, func(d *entity.Draft) { delete(d.KYCDocs, "itrFiled") }, MsgSelectITRFiled},
		{"itr file missing", StepKYCDocuments, func(d *entity.Draft) { delete(d.KYCDocs, "itrFile") }, MsgUploadITRFile},
		{"itr reason missing", StepKYCDocuments, func(d *entity.Draft) { d.KYCDocs["itrFiled"] = entity.ITRFiledNo }, MsgProvideITRReason},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := completeDraft()
			tt.mutate(&d)

			err := Validate(tt.step, d)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.step, vErr.Step)
			assert.Equal(t, tt.message, vErr.Message)
		})
	}
}

func TestValidate_PassportExpiryOnlyForPassport(t *testing.T) {
	d := completeDraft()
	d.Personal["kycDocumentType"] = entity.KYCDocAadhar
	delete(d.Personal, "passportExpiryDate")
	assert.NoError(t, Validate(StepPersonal, d))

	d.Personal["kycDocumentType"] = entity.KYCDocPassport
	assert.Error(t, Validate(StepPersonal, d))

	d.Personal["passportExpiryDate"] = "2030-01-01"
	assert.NoError(t, Validate(StepPersonal, d))
}

func TestValidate_ITRNoRequiresReasonNotFile(t *testing.T) {
	d := completeDraft()
	d.KYCDocs["itrFiled"] = entity.ITRFiledNo
	delete(d.KYCDocs, "itrFile")
	d.KYCDocs["itrReason"] = "Income below threshold"

	assert.NoError(t, Validate(StepKYCDocuments, d))
}

func TestValidate_ITRFiledOnlyNeedsAnAnswer(t *testing.T) {
	d := completeDraft()
	d.KYCDocs["itrFiled"] = "MAYBE"
	delete(d.KYCDocs, "itrFile")

	assert.NoError(t, Validate(StepKYCDocuments, d))

	d.KYCDocs["itrFiled"] = "   "
	var verr *ValidationError
	require.ErrorAs(t, Validate(StepKYCDocuments, d), &verr)
	assert.Equal(t, MsgSelectITRFiled, verr.Message)
}

func TestValidate_ProductDefaultsSatisfyStep(t *testing.T) {
	assert.NoError(t, Validate(StepProduct, entity.NewDraft()))
}

func TestValidateAll_ReturnsFirstFailure(t *testing.T) {
	d := completeDraft()
	delete(d.Bank, "ifsc")
	d.VPA = entity.Fields{}

	err := ValidateAll(d)

	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, StepBank, vErr.Step)
}

func TestValidateIndex_OutOfRange(t *testing.T) {
	assert.ErrorIs(t, ValidateIndex(7, completeDraft()), ErrInvalidStep)
}

func TestRequiredKeys_KYCIncludesITRBranch(t *testing.T) {
	d := completeDraft()
	keys := RequiredKeys(StepKYCDocuments, d)
	assert.Len(t, keys, len(KYCRequired)+2)
	assert.Contains(t, keys, "itrFile")
	assert.Len(t, KYCRequired, 21)
}

func TestIsDocumentField(t *testing.T) {
	assert.True(t, IsDocumentField("businessPan"))
	assert.True(t, IsDocumentField("itrFile"))
	assert.True(t, IsDocumentField("bankAccountProof"))
	assert.False(t, IsDocumentField("bankAccountProofType"))
	assert.False(t, IsDocumentField("itrFiled"))
	assert.False(t, IsDocumentField("itrReason"))
	assert.False(t, IsDocumentField("unknown"))
}
