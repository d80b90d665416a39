package salesforce

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDescribe_Success(t *testing.T) {
	body := `{"name":"Lead","label":"Lead","fields":[{"name":"LeadSource","label":"Lead Source","type":"picklist","length":255,"updateable":true}]}`

	desc, err := decodeDescribe(strings.NewReader(body), "Lead")
	require.NoError(t, err)
	assert.Equal(t, "Lead", desc.Name)
	require.Len(t, desc.Fields, 1)
	assert.Equal(t, "LeadSource", desc.Fields[0].Name)
	assert.Equal(t, "picklist", desc.Fields[0].Type)
	assert.True(t, desc.Fields[0].Updateable)
}

func TestDecodeDescribe_ErrorArray(t *testing.T) {
	body := ` [{"message":"The requested resource does not exist","errorCode":"NOT_FOUND"}]`

	_, err := decodeDescribe(strings.NewReader(body), "Enquiry__c")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sf: describe Enquiry__c")
	assert.Contains(t, err.Error(), "NOT_FOUND: The requested resource does not exist")
}

func TestDecodeDescribe_InvalidJSON(t *testing.T) {
	_, err := decodeDescribe(strings.NewReader(`{invalid json`), "Lead")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sf: decode describe Lead")
}

func TestDecodeDescribe_EmptyBody(t *testing.T) {
	_, err := decodeDescribe(strings.NewReader(""), "Lead")
	assert.Error(t, err)
}

func TestDecodeDescribe_MissingName(t *testing.T) {
	_, err := decodeDescribe(strings.NewReader(`{"fields":[]}`), "Lead")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no object name")
}
