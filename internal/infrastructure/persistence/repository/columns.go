package repository

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/garyjia/merchant-onboarding/internal/domain/entity"
)

// sectionColumns maps each draft section to its JSON column
var sectionColumns = map[entity.Section]string{
	entity.SectionBusiness: "business",
	entity.SectionPersonal: "personal",
	entity.SectionProduct:  "product",
	entity.SectionBank:     "bank",
	entity.SectionVPA:      "vpa",
	entity.SectionKYCDocs:  "kyc_docs",
}

func encodeFields(f entity.Fields) (string, error) {
	if f == nil {
		f = entity.Fields{}
	}
	data, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("failed to encode section: %w", err)
	}
	return string(data), nil
}

func decodeFields(raw string) (entity.Fields, error) {
	f := entity.Fields{}
	if raw == "" {
		return f, nil
	}
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return nil, fmt.Errorf("failed to decode section: %w", err)
	}
	return f, nil
}

// likePattern builds a case-insensitive substring pattern for LIKE ... ESCAPE '\'
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(r.Replace(term)) + "%"
}
