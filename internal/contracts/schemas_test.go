package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKeyFromPath(t *testing.T) {
	cases := map[string]string{
		"responses/page/v1.json":         "PageResponse/1.0.0",
		"events/record-event/v1.json":    "RecordEvent/1.0.0",
		"events/listing-removed/v2.json": "ListingRemovedEvent/2.0.0",
		"events/broken.json":             "",
		"other/page/v1.json":             "",
	}
	for path, want := range cases {
		assert.Equal(t, want, generateKeyFromPath(path), path)
	}
}

func TestSchemasAreRegistered(t *testing.T) {
	require.Contains(t, compiledSchemas, PageResponseV1)
	require.Contains(t, compiledSchemas, RecordEventV1)
}

func TestValidate_PageResponse(t *testing.T) {
	valid := `{"data":[{"_id":"a"}],"pagination":{"total":1,"page":1,"limit":5}}`
	assert.NoError(t, Validate(PageResponseV1, []byte(valid)))

	missing := `{"data":[]}`
	assert.Error(t, Validate(PageResponseV1, []byte(missing)))

	negative := `{"data":[],"pagination":{"total":-1,"page":1,"limit":5}}`
	assert.Error(t, Validate(PageResponseV1, []byte(negative)))

	zeroLimit := `{"data":[],"pagination":{"total":0,"page":1,"limit":0}}`
	assert.Error(t, Validate(PageResponseV1, []byte(zeroLimit)))
}

func TestValidate_RecordEvent(t *testing.T) {
	assert.NoError(t, Validate(RecordEventV1, []byte(`{"record_id":"42","action":"deleted"}`)))
	assert.Error(t, Validate(RecordEventV1, []byte(`{"record_id":"42","action":"archived"}`)))
	assert.Error(t, Validate(RecordEventV1, []byte(`{"resource":"posts"}`)))
}

func TestValidate_UnknownSchemaAndBadJSON(t *testing.T) {
	assert.ErrorContains(t, Validate("Nope/1.0.0", []byte(`{}`)), "not found")
	assert.ErrorContains(t, Validate(PageResponseV1, []byte(`{`)), "not a valid JSON")
}
