package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/DrapeCalc/internal/grid"
)

func TestFabricJSON_UnrecognizedGridKeepsFabric(t *testing.T) {
	data := []byte(`{"id":"f1","name":"Chenille","width":140,"price_per_meter":30,"pricing_grid_data":{"foo":1}}`)

	var f FabricSelection
	require.NoError(t, json.Unmarshal(data, &f))

	assert.Equal(t, "Chenille", f.Name)
	assert.Equal(t, 140.0, f.Width)
	assert.Nil(t, f.PricingGrid)
	assert.Contains(t, f.PricingGridIssue, "foo")
	assert.False(t, f.UsesPricingGrid())

	out, err := json.Marshal(f)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"pricing_grid_data":{"foo":1}`)
}

func TestFabricJSON_BadGridInLibrary(t *testing.T) {
	data := []byte(`{"fabrics":[
		{"id":"a","name":"Good","width":137,"price_per_meter":20},
		{"id":"b","name":"Bad","width":137,"price_per_meter":20,"pricing_grid_data":[1,2]},
		{"id":"c","name":"Invalid","width":137,"price_per_meter":20,"pricing_grid_data":{"widthColumns":[],"dropRows":[]}}
	]}`)

	var lib Library
	require.NoError(t, json.Unmarshal(data, &lib))
	require.Len(t, lib.Fabrics, 3)

	assert.Empty(t, lib.Fabrics[0].PricingGridIssue)
	assert.Contains(t, lib.Fabrics[1].PricingGridIssue, "unrecognized pricing grid format")
	assert.Equal(t, "widthColumns array is empty", lib.Fabrics[2].PricingGridIssue)
	for _, f := range lib.Fabrics {
		assert.False(t, f.UsesPricingGrid(), f.Name)
	}

	res, err := Calculate(CalculationInput{
		RailWidth: 300, CurtainDrop: 225, Heading: pencilPleat(),
		Fabric: lib.Fabrics[1], Template: bareTemplate(), Config: DefaultAppConfig(),
	})
	require.NoError(t, err)
	assert.Nil(t, res.GridPrice)
}

func TestFabricJSON_ValidGridRoundTrip(t *testing.T) {
	g, err := grid.Parse([]byte(`{"widths":[100,200],"heights":[250],"prices":[[40,60]]}`))
	require.NoError(t, err)
	f := plainLinen()
	f.PricingGrid = &g

	data, err := json.Marshal(f)
	require.NoError(t, err)

	var decoded FabricSelection
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.NotNil(t, decoded.PricingGrid)
	assert.Equal(t, grid.FormatWidthsHeights, decoded.PricingGrid.Format)
	assert.Empty(t, decoded.PricingGridIssue)
	assert.True(t, decoded.UsesPricingGrid())
}

func TestFabricJSON_NullGrid(t *testing.T) {
	var f FabricSelection
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Voile","pricing_grid_data":null}`), &f))
	assert.Nil(t, f.PricingGrid)
	assert.Empty(t, f.PricingGridIssue)

	out, err := json.Marshal(f)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "pricing_grid_data")
}
