package project

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/piwi3910/DrapeCalc/internal/grid"
	"github.com/piwi3910/DrapeCalc/internal/model"
)

func TestLoadLibraryCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "library.json")

	lib, err := LoadLibrary(path)
	if err != nil {
		t.Fatalf("LoadLibrary failed: %v", err)
	}
	if len(lib.Fabrics) == 0 || len(lib.Headings) == 0 {
		t.Error("expected default fabrics and headings")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected default library to be saved: %v", err)
	}
}

func TestSaveAndLoadLibraryWithGrid(t *testing.T) {
	path := LibraryPath(t.TempDir())

	g, err := grid.Parse([]byte(`{"widths":[100,200],"heights":[150,250],"prices":[[40,55],[60,75]]}`))
	if err != nil {
		t.Fatalf("grid parse failed: %v", err)
	}
	fabric := model.NewFabric("Roller Blackout", 200, 0, 0)
	fabric.PricingGrid = &g

	lib := model.Library{Fabrics: []model.FabricSelection{fabric}}
	if err := SaveLibrary(path, lib); err != nil {
		t.Fatalf("SaveLibrary failed: %v", err)
	}

	loaded, err := LoadLibrary(path)
	if err != nil {
		t.Fatalf("LoadLibrary failed: %v", err)
	}
	if len(loaded.Fabrics) != 1 {
		t.Fatalf("expected 1 fabric, got %d", len(loaded.Fabrics))
	}
	got := loaded.Fabrics[0]
	if got.PricingGrid == nil {
		t.Fatal("expected pricing grid to survive a round trip")
	}
	if got.PricingGrid.Format != grid.FormatWidthsHeights {
		t.Errorf("expected widths_heights format, got %s", got.PricingGrid.Format)
	}
	if !got.UsesPricingGrid() {
		t.Error("expected fabric to use its pricing grid")
	}
	if len(loaded.Linings) == 0 {
		t.Error("expected default linings to be filled in")
	}
}

func TestLoadLibraryWithUnreadableGrid(t *testing.T) {
	dir := t.TempDir()
	data := `{"fabrics":[
		{"id":"ok","name":"Linen","width":137,"price_per_meter":25},
		{"id":"bad","name":"Chenille","width":140,"price_per_meter":30,"pricing_grid_data":{"foo":1}}
	],"headings":[{"id":"pp","name":"Pencil Pleat","fullness":2,"price":4}]}`
	if err := os.WriteFile(LibraryPath(dir), []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	lib, err := LoadLibrary(LibraryPath(dir))
	if err != nil {
		t.Fatalf("LoadLibrary failed: %v", err)
	}
	if len(lib.Fabrics) != 2 {
		t.Fatalf("expected both fabrics, got %d", len(lib.Fabrics))
	}
	bad := lib.FindFabricByID("bad")
	if bad.PricingGrid != nil || bad.PricingGridIssue == "" {
		t.Errorf("expected grid issue on Chenille, got grid=%v issue=%q", bad.PricingGrid, bad.PricingGridIssue)
	}

	ws, err := OpenWorkspace(dir)
	if err != nil {
		t.Fatalf("OpenWorkspace failed: %v", err)
	}
	if err := ws.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	reloaded, err := LoadLibrary(LibraryPath(dir))
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if issue := reloaded.FindFabricByID("bad").PricingGridIssue; !strings.Contains(issue, "foo") {
		t.Errorf("saving should keep the original grid data, got issue %q", issue)
	}
}
