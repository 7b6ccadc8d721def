package extract

// Canonical keys produced by the extractor.
const (
	KeySiteAddress      = "Site Address"
	KeyParcelNo         = "Parcel No."
	KeyOwnerName        = "Owner Name"
	KeyOwnerAddress1    = "Owner Address 1"
	KeyOwnerCity        = "Owner City"
	KeyOwnerState       = "Owner State"
	KeyOwnerZip         = "Owner Zip"
	KeyLandUse          = "Land Use"
	KeyZoning           = "Zoning"
	KeyPropertyType     = "Property Type"
	KeyBuildingArea     = "Building Area"
	KeyLotArea          = "Lot Area"
	KeyYearBuilt        = "Year Built"
	KeyUnits            = "Units"
	KeyStories          = "Stories"
	KeyAssessedValue    = "Assessed Value"
	KeyLandValue        = "Land Value"
	KeyImprovementValue = "Improvement Value"
	KeyTaxAmount        = "Tax Amount"
	KeyLastSaleDate     = "Last Sale Date"
	KeyLastSalePrice    = "Last Sale Price"
	KeyLender           = "Lender"
	KeyLoanAmount       = "Loan Amount"

	KeyPopulation   = "Population"
	KeyMedianIncome = "Median Household Income"
	KeyMedianAge    = "Median Age"

	// keyOwnerMailing is split into the four owner address keys and never emitted.
	keyOwnerMailing = "Owner Mailing Address"
)

// labelKeys maps the display labels of the detail panel to canonical keys.
var labelKeys = map[string]string{
	"Parcel No. (APN)":           KeyParcelNo,
	"APN":                        KeyParcelNo,
	"Owner":                      KeyOwnerName,
	"Owner Name":                 KeyOwnerName,
	"Owner Mailing Address":      keyOwnerMailing,
	"Mailing Address":            keyOwnerMailing,
	"Site Address":               KeySiteAddress,
	"Land Use":                   KeyLandUse,
	"Land Use Description":       KeyLandUse,
	"Zoning":                     KeyZoning,
	"Property Type":              KeyPropertyType,
	"Building Area":              KeyBuildingArea,
	"Building Sq Ft":             KeyBuildingArea,
	"Lot Area":                   KeyLotArea,
	"Lot Size":                   KeyLotArea,
	"Year Built":                 KeyYearBuilt,
	"Units":                      KeyUnits,
	"Number of Units":            KeyUnits,
	"Stories":                    KeyStories,
	"Assessed Value":             KeyAssessedValue,
	"Total Assessed Value":       KeyAssessedValue,
	"Land Value":                 KeyLandValue,
	"Assessed Land Value":        KeyLandValue,
	"Improvement Value":          KeyImprovementValue,
	"Assessed Improvement Value": KeyImprovementValue,
	"Tax Amount":                 KeyTaxAmount,
	"Last Sale Date":             KeyLastSaleDate,
	"Sale Date":                  KeyLastSaleDate,
	"Last Sale Price":            KeyLastSalePrice,
	"Sale Price":                 KeyLastSalePrice,
	"Lender":                     KeyLender,
	"Lender Name":                KeyLender,
	"Loan Amount":                KeyLoanAmount,
	"Mortgage Amount":            KeyLoanAmount,
}

var demographicKeys = map[string]string{
	"Population":              KeyPopulation,
	"Median Household Income": KeyMedianIncome,
	"Median Age":              KeyMedianAge,
}

// LookupLabel returns the canonical key for a display label.
func LookupLabel(label string) (string, bool) {
	key, ok := labelKeys[normalizeLabel(label)]

	return key, ok
}
