package model

// TriageCategory is a closed set; anything the model returns outside it is CategoryOther.
type TriageCategory string

const (
	CategoryProductionIssue TriageCategory = "production_issue"
	CategoryAccountBilling  TriageCategory = "account_billing"
	CategoryFeatureRequest  TriageCategory = "feature_request"
	CategoryOther           TriageCategory = "other"
)

func ParseTriageCategory(s string) TriageCategory {
	switch c := TriageCategory(s); c {
	case CategoryProductionIssue, CategoryAccountBilling, CategoryFeatureRequest, CategoryOther:
		return c
	default:
		return CategoryOther
	}
}

type TriageResult struct {
	Subject   string
	Summary   string
	Category  TriageCategory
	InvoiceID *string
}
