package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetStatus(t *testing.T) {
	auto := PostValidationAutoPublish
	draft := PostValidationToDraft

	assert.Equal(t, VendorProductStatusPublished, TargetStatus(&auto))
	assert.Equal(t, VendorProductStatusDraft, TargetStatus(&draft))
	assert.Equal(t, VendorProductStatusDraft, TargetStatus(nil))
}

func TestParseValidationAction(t *testing.T) {
	action, err := ParseValidationAction(" validate ")
	require.NoError(t, err)
	assert.Equal(t, ValidationActionValidate, action)

	action, err = ParseValidationAction("REJECT")
	require.NoError(t, err)
	assert.Equal(t, ValidationActionReject, action)

	_, err = ParseValidationAction("approve")
	require.Error(t, err)
}

func TestParseVendorProductStatus(t *testing.T) {
	status, err := ParseVendorProductStatus("published")
	require.NoError(t, err)
	assert.Equal(t, VendorProductStatusPublished, status)

	_, err = ParseVendorProductStatus("archived")
	require.Error(t, err)
}

func TestParsePostValidationAction(t *testing.T) {
	_, err := ParsePostValidationAction("AUTO_PUBLISH")
	require.Error(t, err)

	action, err := ParsePostValidationAction("to_draft")
	require.NoError(t, err)
	assert.Equal(t, PostValidationToDraft, action)
}

func TestValidatorKindIsValid(t *testing.T) {
	assert.True(t, ValidatorAdmin.IsValid())
	assert.True(t, ValidatorSystem.IsValid())
	assert.False(t, ValidatorKind("robot").IsValid())
}
