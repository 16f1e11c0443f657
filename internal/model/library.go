package model

// Library holds the business's reference data: fabrics, heading styles and
// lining choices.
type Library struct {
	Fabrics  []FabricSelection `json:"fabrics"`
	Headings []HeadingOption   `json:"headings"`
	Linings  []LiningOption    `json:"linings"`
}

// DefaultLibrary returns a library populated with common defaults.
func DefaultLibrary() Library {
	return Library{
		Fabrics: []FabricSelection{
			withCategory(NewFabric("Plain Linen Natural", 137, 25.5, 0), "curtain_fabric"),
			withCategory(NewFabric("Velvet Charcoal", 140, 38.0, 0), "curtain_fabric"),
			withCategory(NewFabric("Floral Print Cotton", 137, 29.0, 64), "curtain_fabric"),
			withCategory(NewFabric("Damask Jacquard", 140, 42.0, 32), "curtain_fabric"),
			withCategory(NewFabric("Wide Voile White", 300, 14.0, 0), "voile"),
		},
		Headings: []HeadingOption{
			NewHeading("Pencil Pleat", 2.0, 4.0),
			NewHeading("Pinch Pleat", 2.25, 9.5),
			NewHeading("Goblet Pleat", 2.5, 12.0),
			NewHeading("Eyelet", 1.75, 6.0),
			NewHeading("Wave", 2.2, 8.0),
		},
		Linings: DefaultLiningOptions(),
	}
}

func withCategory(f FabricSelection, category string) FabricSelection {
	f.Category = category
	return f
}

// FindFabricByID returns a pointer to the fabric with the given ID, or nil.
func (l *Library) FindFabricByID(id string) *FabricSelection {
	for i := range l.Fabrics {
		if l.Fabrics[i].ID == id {
			return &l.Fabrics[i]
		}
	}
	return nil
}

// FindHeadingByID returns a pointer to the heading with the given ID, or nil.
func (l *Library) FindHeadingByID(id string) *HeadingOption {
	for i := range l.Headings {
		if l.Headings[i].ID == id {
			return &l.Headings[i]
		}
	}
	return nil
}

// FindLining returns the lining with the given value. An empty value means
// unlined. The second result is false when the value is unknown.
func (l *Library) FindLining(value string) (LiningOption, bool) {
	if value == "" {
		value = LiningNone
	}
	for _, o := range l.Linings {
		if o.Value == value {
			return o, true
		}
	}
	return LiningOption{}, false
}

// FindFabricByName returns a pointer to the first fabric with the given name, or nil.
func (l *Library) FindFabricByName(name string) *FabricSelection {
	for i := range l.Fabrics {
		if l.Fabrics[i].Name == name {
			return &l.Fabrics[i]
		}
	}
	return nil
}

// MergeFabrics adds imported fabrics to the library. A fabric whose name
// already exists replaces the stored one but keeps its ID. Returns the
// number added and the number updated.
func (l *Library) MergeFabrics(fabrics []FabricSelection) (added, updated int) {
	for _, f := range fabrics {
		if existing := l.FindFabricByName(f.Name); existing != nil {
			f.ID = existing.ID
			*existing = f
			updated++
			continue
		}
		if f.ID == "" {
			f.ID = NewFabric(f.Name, 0, 0, 0).ID
		}
		l.Fabrics = append(l.Fabrics, f)
		added++
	}
	return added, updated
}

// RemoveFabric removes a fabric by ID. Returns true if found and removed.
func (l *Library) RemoveFabric(id string) bool {
	for i, f := range l.Fabrics {
		if f.ID == id {
			l.Fabrics = append(l.Fabrics[:i], l.Fabrics[i+1:]...)
			return true
		}
	}
	return false
}
