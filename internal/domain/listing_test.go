package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListingID_Deterministic(t *testing.T) {
	u := "https://www.landwatch.com/virginia-land-for-sale/king-george/property/pid/123"

	first := ListingID(u)
	assert.Equal(t, first, ListingID(u), "same URL must always yield the same id")
	assert.Len(t, first, 36)
}

func TestListingID_CanonicalizesVariants(t *testing.T) {
	base := ListingID("https://www.landsearch.com/properties/king-george-county-va/123456")

	variants := []string{
		"https://WWW.LandSearch.com/properties/king-george-county-va/123456",
		"https://www.landsearch.com/properties/king-george-county-va/123456/",
		"https://www.landsearch.com/properties/king-george-county-va/123456?utm_source=email",
		"https://www.landsearch.com/properties/king-george-county-va/123456#photos",
	}
	for _, v := range variants {
		assert.Equal(t, base, ListingID(v), "variant: %s", v)
	}
}

func TestListingID_DistinctURLsDiffer(t *testing.T) {
	a := ListingID("https://www.landsearch.com/properties/foo/1")
	b := ListingID("https://www.landsearch.com/properties/foo/2")
	assert.NotEqual(t, a, b)
}
