package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mallguide-server-go/internal/platform/errors"
)

func TestStoreID(t *testing.T) {
	cases := map[string]string{
		"Acme Tools":          "Acme_Tools",
		"  Acme   Tools  ":    "Acme_Tools",
		"Acme\tTools\nOutlet": "Acme_Tools_Outlet",
		"Solo":                "Solo",
		"   ":                 "",
	}
	for in, want := range cases {
		assert.Equal(t, want, StoreID(in), "name %q", in)
	}
}

func validStore() *Store {
	return &Store{
		ID:          "Acme_Tools",
		Name:        "Acme Tools",
		Category:    "DIY",
		Description: "Hardware",
		Phone:       "555-0100",
		Floor:       "Ground",
		MapLocation: DefaultMapLocation,
	}
}

func TestStoreValidate(t *testing.T) {
	assert.NoError(t, validStore().Validate())

	s := validStore()
	s.Phone = " "
	s.Description = ""
	err := s.Validate()
	assert.True(t, errors.IsKind(err, errors.KindValidation))
	assert.Contains(t, err.Error(), "description, phone")

	s = validStore()
	s.ID = "other"
	assert.True(t, errors.IsKind(s.Validate(), errors.KindValidation))

	var nilStore *Store
	assert.Error(t, nilStore.Validate())
}

func TestCatalogLookup(t *testing.T) {
	c := NewCatalog("Pop-up Stalls", "DIY", " ")

	cat, ok := c.Lookup("Health and Wellness")
	assert.True(t, ok)
	assert.Equal(t, "health-and-wellness", cat.Bucket)
	assert.Equal(t, "detail/health-and-wellness", cat.Template)

	cat, ok = c.Lookup(" Pop-up Stalls ")
	assert.True(t, ok)
	assert.Equal(t, "pop-up-stalls", cat.Bucket)

	_, ok = c.Lookup("Weapons")
	assert.False(t, ok)
	_, ok = c.Lookup("diy")
	assert.False(t, ok, "lookup is case sensitive")

	assert.Len(t, c.Categories(), len(DefaultCategories)+1)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "diy", Slug("DIY"))
	assert.Equal(t, "snacks-and-dessert", Slug("Snacks and Dessert"))
	assert.Equal(t, "food-court", Slug("Food  Court!"))
}
