package enums

import "fmt"

// VendorProductStatus maps to the vendor_product_status enum in Postgres.
type VendorProductStatus string

const (
	VendorProductStatusPending   VendorProductStatus = "pending"
	VendorProductStatusDraft     VendorProductStatus = "draft"
	VendorProductStatusPublished VendorProductStatus = "published"
)

var validVendorProductStatuses = []VendorProductStatus{
	VendorProductStatusPending,
	VendorProductStatusDraft,
	VendorProductStatusPublished,
}

// String implements fmt.Stringer.
func (s VendorProductStatus) String() string {
	return string(s)
}

// IsValid reports whether the value matches the canonical enum.
func (s VendorProductStatus) IsValid() bool {
	for _, candidate := range validVendorProductStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseVendorProductStatus converts raw input into VendorProductStatus.
func ParseVendorProductStatus(value string) (VendorProductStatus, error) {
	for _, candidate := range validVendorProductStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid vendor product status %q", value)
}

// PostValidationAction is the vendor's choice of what happens to a product once
// its design is approved.
type PostValidationAction string

const (
	PostValidationAutoPublish PostValidationAction = "auto_publish"
	PostValidationToDraft     PostValidationAction = "to_draft"
)

var validPostValidationActions = []PostValidationAction{
	PostValidationAutoPublish,
	PostValidationToDraft,
}

func (a PostValidationAction) String() string {
	return string(a)
}

func (a PostValidationAction) IsValid() bool {
	for _, candidate := range validPostValidationActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParsePostValidationAction converts raw input into PostValidationAction.
func ParsePostValidationAction(value string) (PostValidationAction, error) {
	for _, candidate := range validPostValidationActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid post validation action %q", value)
}

// TargetStatus resolves the status a product moves to when its design is
// approved. An unset action drafts the product.
func TargetStatus(action *PostValidationAction) VendorProductStatus {
	if action != nil && *action == PostValidationAutoPublish {
		return VendorProductStatusPublished
	}
	return VendorProductStatusDraft
}

// ValidatorKind records who validated a vendor product.
type ValidatorKind string

const (
	ValidatorAdmin  ValidatorKind = "admin"
	ValidatorSystem ValidatorKind = "system"
)

func (k ValidatorKind) String() string {
	return string(k)
}

func (k ValidatorKind) IsValid() bool {
	return k == ValidatorAdmin || k == ValidatorSystem
}
