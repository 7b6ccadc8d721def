package record

import (
	"property-scraper/internal/entity"
	"property-scraper/internal/extract"
)

type source int

const (
	fromInput source = iota
	fromScraped
	fromRemark
	placeholder
)

type column struct {
	name   string
	source source
	key    string
	input  func(coordinate string, in entity.InputRecord) string
}

// Input column names as they appear in the uploaded table.
const (
	ColLatLong       = "Lat/Long"
	ColPropertyName  = "Property name"
	ColAddress1      = "Address 1"
	ColCity          = "City"
	ColState         = "State"
	ColZipCode       = "Zip code"
	ColCounty        = "County"
	ColListedPrice   = "Listed Price"
	ColListedNOI     = "Listed NOI*"
	ColListCAP       = "List CAP"
	ColBrokerList    = "Broker List"
	ColOwnerCompany  = "Owner.Company"
	ColOwnerAddress1 = "Owner.Address 1"
	ColOwnerCity     = "Owner.City"
	ColOwnerState    = "Owner.State"
	ColOwnerZipCode  = "Owner.Zip code"

	ColRemarks = "Remarks"
)

func in(name string, get func(string, entity.InputRecord) string) column {
	return column{name: name, source: fromInput, input: get}
}

func scraped(name, key string) column {
	return column{name: name, source: fromScraped, key: key}
}

func empty(name string) column {
	return column{name: name, source: placeholder}
}

var schema = []column{
	in(ColLatLong, func(c string, _ entity.InputRecord) string { return c }),
	in(ColPropertyName, func(_ string, r entity.InputRecord) string { return r.PropertyName }),
	in(ColAddress1, func(_ string, r entity.InputRecord) string { return r.Address1 }),
	in(ColCity, func(_ string, r entity.InputRecord) string { return r.City }),
	in(ColState, func(_ string, r entity.InputRecord) string { return r.State }),
	in(ColZipCode, func(_ string, r entity.InputRecord) string { return r.ZipCode }),
	in(ColCounty, func(_ string, r entity.InputRecord) string { return r.County }),
	in(ColListedPrice, func(_ string, r entity.InputRecord) string { return r.ListedPrice }),
	in(ColListedNOI, func(_ string, r entity.InputRecord) string { return r.ListedNOI }),
	in(ColListCAP, func(_ string, r entity.InputRecord) string { return r.ListCAP }),
	in(ColBrokerList, func(_ string, r entity.InputRecord) string { return r.BrokerList }),
	in(ColOwnerCompany, func(_ string, r entity.InputRecord) string { return r.OwnerCompany }),
	in(ColOwnerAddress1, func(_ string, r entity.InputRecord) string { return r.OwnerAddress1 }),
	in(ColOwnerCity, func(_ string, r entity.InputRecord) string { return r.OwnerCity }),
	in(ColOwnerState, func(_ string, r entity.InputRecord) string { return r.OwnerState }),
	in(ColOwnerZipCode, func(_ string, r entity.InputRecord) string { return r.OwnerZipCode }),

	scraped("Site Address", extract.KeySiteAddress),
	scraped("Parcel No.", extract.KeyParcelNo),
	scraped("Owner Name", extract.KeyOwnerName),
	scraped("Owner Address 1", extract.KeyOwnerAddress1),
	scraped("Owner City", extract.KeyOwnerCity),
	scraped("Owner State", extract.KeyOwnerState),
	scraped("Owner Zip", extract.KeyOwnerZip),
	scraped("Land Use", extract.KeyLandUse),
	scraped("Zoning", extract.KeyZoning),
	scraped("Property Type", extract.KeyPropertyType),
	scraped("Building Area (SF)", extract.KeyBuildingArea),
	scraped("Lot Area (Acres)", extract.KeyLotArea),
	scraped("Year Built", extract.KeyYearBuilt),
	scraped("Units", extract.KeyUnits),
	scraped("Stories", extract.KeyStories),
	scraped("Assessed Value", extract.KeyAssessedValue),
	scraped("Land Value", extract.KeyLandValue),
	scraped("Improvement Value", extract.KeyImprovementValue),
	scraped("Tax Amount", extract.KeyTaxAmount),
	scraped("Last Sale Date", extract.KeyLastSaleDate),
	scraped("Last Sale Price", extract.KeyLastSalePrice),
	scraped("Lender", extract.KeyLender),
	scraped("Loan Amount", extract.KeyLoanAmount),
	scraped("Population (1 mi)", extract.KeyPopulation),
	scraped("Median HH Income (1 mi)", extract.KeyMedianIncome),
	scraped("Median Age (1 mi)", extract.KeyMedianAge),

	// Not sourced by any extractor rule yet.
	empty("Owner Phone"),
	empty("Owner Email"),
	empty("True Owner"),

	{name: ColRemarks, source: fromRemark},
}

// Columns returns the fixed output header.
func Columns() []string {
	names := make([]string, len(schema))
	for i, c := range schema {
		names[i] = c.name
	}

	return names
}

// Merge builds the output row for one coordinate. Missing scraped keys
// render as empty strings.
func Merge(fields entity.ScrapedFields, coordinate string, input entity.InputRecord, remark string) entity.OutputRecord {
	columns := make([]entity.Column, len(schema))

	for i, c := range schema {
		var value string

		switch c.source {
		case fromInput:
			value = c.input(coordinate, input)
		case fromScraped:
			value = fields.Get(c.key)
		case fromRemark:
			value = remark
		}

		columns[i] = entity.Column{Name: c.name, Value: value}
	}

	return entity.OutputRecord{Columns: columns}
}
