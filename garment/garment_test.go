package garment

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loganand612/inspection-server/utils"
)

func TestDataJSON_StringEncodedCounts(t *testing.T) {
	// Clients send quantities and carton counts as strings; both forms
	// must decode to the same payload.
	raw := `{
		"quantities": {
			"Blue": {"M": {"orderQty": "120", "offeredQty": "100"}}
		},
		"cartonOffered": "10",
		"cartonInspected": 4,
		"cartonToInspect": "",
		"defects": [
			{"type": "Stitching", "remarks": "loose thread", "critical": "0", "major": 2, "minor": "1"}
		],
		"aqlSettings": {
			"aqlLevel": "2.5",
			"inspectionLevel": "II",
			"samplingPlan": "Single",
			"severity": "Normal",
			"status": "PASS"
		}
	}`

	var d Data
	require.NoError(t, json.Unmarshal([]byte(raw), &d))

	assert.Equal(t, utils.Count(120), d.Quantities["Blue"]["M"].OrderQty)
	assert.Equal(t, utils.Count(100), d.Quantities["Blue"]["M"].OfferedQty)
	assert.Equal(t, utils.Count(10), d.CartonOffered)
	assert.Equal(t, utils.Count(4), d.CartonInspected)
	assert.Equal(t, utils.Count(0), d.CartonToInspect, "empty string reads as zero")
	require.Len(t, d.Defects, 1)
	assert.Equal(t, utils.Count(0), d.Defects[0].Critical)
	assert.Equal(t, utils.Count(2), d.Defects[0].Major)
	assert.Equal(t, utils.Count(1), d.Defects[0].Minor)
	require.NotNil(t, d.AQLSettings)
	assert.Equal(t, "PASS", d.AQLSettings.Status)

	// Counts marshal back out as plain numbers.
	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"cartonOffered":10`)
}

func TestValidate_Counts(t *testing.T) {
	t.Run("negative counts are rejected, not clamped", func(t *testing.T) {
		d := &Data{CartonOffered: -1}
		var ve *ValidationError
		require.ErrorAs(t, Validate(d, nil), &ve)
		assert.Equal(t, "cartonOffered", ve.Field)
		assert.Equal(t, utils.Count(-1), d.CartonOffered, "payload left untouched")
	})

	t.Run("negative defect tallies rejected", func(t *testing.T) {
		d := &Data{Defects: []Defect{{Type: "Stitching", Major: -2}}}
		var ve *ValidationError
		require.ErrorAs(t, Validate(d, nil), &ve)
		assert.Equal(t, "defects[0]", ve.Field)
	})

	t.Run("defect type is required", func(t *testing.T) {
		d := &Data{Defects: []Defect{{Major: 1}}}
		var ve *ValidationError
		require.ErrorAs(t, Validate(d, nil), &ve)
		assert.Equal(t, "defects[0].type", ve.Field)
	})

	t.Run("negative quantity cell rejected", func(t *testing.T) {
		d := &Data{Quantities: map[string]map[string]SizeQuantity{
			"Blue": {"M": {OrderQty: -5}},
		}}
		var ve *ValidationError
		require.ErrorAs(t, Validate(d, nil), &ve)
		assert.Equal(t, "quantities.Blue.M", ve.Field)
	})

	t.Run("inspecting more cartons than offered is allowed", func(t *testing.T) {
		d := &Data{CartonOffered: 5, CartonInspected: 8}
		assert.NoError(t, Validate(d, nil))
	})

	t.Run("nil payload is valid", func(t *testing.T) {
		assert.NoError(t, Validate(nil, nil))
	})
}

func TestValidate_Tokens(t *testing.T) {
	settings := &SectionSettings{
		Sizes:  []string{"S", "M", "L"},
		Colors: []string{"Blue", "Red"},
	}

	t.Run("declared tokens pass", func(t *testing.T) {
		d := &Data{Quantities: map[string]map[string]SizeQuantity{
			"Blue": {"M": {OrderQty: 10, OfferedQty: 10}},
		}}
		assert.NoError(t, Validate(d, settings))
	})

	t.Run("unknown color rejected", func(t *testing.T) {
		d := &Data{Quantities: map[string]map[string]SizeQuantity{
			"Green": {"M": {}},
		}}
		var ve *ValidationError
		require.ErrorAs(t, Validate(d, settings), &ve)
		assert.Equal(t, "quantities", ve.Field)
	})

	t.Run("unknown size rejected", func(t *testing.T) {
		d := &Data{Quantities: map[string]map[string]SizeQuantity{
			"Blue": {"XXL": {}},
		}}
		var ve *ValidationError
		require.ErrorAs(t, Validate(d, settings), &ve)
		assert.Equal(t, "quantities.Blue", ve.Field)
	})

	t.Run("empty declaration accepts any token", func(t *testing.T) {
		d := &Data{Quantities: map[string]map[string]SizeQuantity{
			"Chartreuse": {"XXS": {OrderQty: 1}},
		}}
		assert.NoError(t, Validate(d, &SectionSettings{}))
	})
}

func TestValidate_AQLStatus(t *testing.T) {
	for _, status := range []string{"", "PASS", "FAIL"} {
		d := &Data{AQLSettings: &AQLSettings{Status: status}}
		assert.NoError(t, Validate(d, nil), status)
	}

	d := &Data{AQLSettings: &AQLSettings{Status: "MAYBE"}}
	var ve *ValidationError
	require.ErrorAs(t, Validate(d, nil), &ve)
	assert.Equal(t, "aqlSettings.status", ve.Field)
}
