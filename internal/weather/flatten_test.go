package weather

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatten_SingleDayTwoSlots(t *testing.T) {
	doc := decodeDoc(t, `{"forecast3h": {"features": [{"properties": {"days": [{
		"date": "2024-05-14",
		"timeline": [
			{"valid": "2024-05-14T09:00:00+00:00", "t": "14", "rh": "70", "msl": "1015", "ff_val": "6",
			 "dd_shortText": "JZ", "clouds_shortText": "pretežno oblačno", "nn_shortText": "rahel dež",
			 "tp_acc": "1.2", "nn_icon": "overcast_lightRA"},
			{"valid": "2024-05-14T12:00:00+00:00", "t": "17", "rh": "60", "msl": "1014", "ff_val": "8",
			 "dd_shortText": "J", "clouds_shortText": "jasno"}
		]
	}]}}]}}`)

	f, ok := Flatten(doc, quietLogger())
	require.True(t, ok)

	assert.Equal(t, "Pretežno oblačno, 14°C", f.Headline)
	require.Len(t, f.Groups, 2)
	assert.Equal(t, "2024-05-14 09:00", f.Groups[0].Label)
	assert.Equal(t, "2024-05-14 12:00", f.Groups[1].Label)

	fields := []string{
		FieldTemperature, FieldHumidity, FieldPressure, FieldWindSpeed, FieldWindDirection,
		FieldClouds, FieldDescription, FieldPrecipitation, FieldIcon, FieldCloudsIcon,
	}
	for _, g := range f.Groups {
		assert.Len(t, g.Fields, len(fields))
		for _, name := range fields {
			assert.Contains(t, g.Fields, name, "group %s", g.Label)
		}
	}

	first := f.Groups[0].Fields
	assert.Equal(t, "rahel dež", first[FieldDescription])
	assert.Equal(t, "1.2", first[FieldPrecipitation])
	assert.Equal(t, "pretežno oblačno overcast_lightRA", first[FieldCloudsIcon])

	second := f.Groups[1].Fields
	assert.Equal(t, "17", second[FieldTemperature])
	assert.Equal(t, "", second[FieldDescription])
	assert.Equal(t, 0, second[FieldPrecipitation])
	assert.Equal(t, "", second[FieldIcon])
	assert.Equal(t, "jasno ", second[FieldCloudsIcon])
}

func TestFlatten_AttributesAreFlat(t *testing.T) {
	doc := decodeDoc(t, `{"forecast3h": {"features": [{"properties": {"days": [
		{"date": "2024-05-14", "timeline": [{"valid": "2024-05-14T21:00:00+00:00", "t": 9, "clouds_shortText": "oblačno"}]},
		{"date": "2024-05-15", "timeline": [{"valid": "2024-05-15T00:00:00+00:00", "t": 7, "clouds_shortText": "megla"}]}
	]}}]}}`)

	f, ok := Flatten(doc, quietLogger())
	require.True(t, ok)
	assert.Equal(t, "Oblačno, 9°C", f.Headline)

	attrs := f.Attributes()
	assert.Equal(t, 9.0, attrs["Temperature"])
	assert.Equal(t, "oblačno", attrs["Clouds"])
	assert.Equal(t, 9.0, attrs["2024-05-14 21:00 "+FieldTemperature])
	assert.Equal(t, 7.0, attrs["2024-05-15 00:00 "+FieldTemperature])
	assert.Equal(t, "megla", attrs["2024-05-15 00:00 "+FieldClouds])
	assert.Len(t, attrs, len(f.Current)+20)
}

func TestFlatten_SkipsMalformedValidity(t *testing.T) {
	doc := decodeDoc(t, `{"forecast3h": `+section(
		`{"valid": "2024-05-14", "t": 1}`,
		`{"valid": "2024-05-14T15:00:00Z", "t": 2}`,
	)+`}`)

	f, ok := Flatten(doc, quietLogger())
	require.True(t, ok)
	require.Len(t, f.Groups, 1)
	assert.Equal(t, "2024-05-14 15:00", f.Groups[0].Label)
}

func TestFlatten_MissingSection(t *testing.T) {
	doc := decodeDoc(t, `{"forecast24h": `+section(`{"t": 1}`)+`}`)

	f, ok := Flatten(doc, quietLogger())
	assert.False(t, ok)
	assert.Empty(t, f.Groups)
	assert.Empty(t, f.Headline)

	_, ok = Flatten(nil, nil)
	assert.False(t, ok)
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Jasno", capitalize("JASNO"))
	assert.Equal(t, "Čisto", capitalize("čisto"))
	assert.Equal(t, "", capitalize(""))
}
