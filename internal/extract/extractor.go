// Package extract turns the markup of a property detail panel into
// ScrapedFields.
//
// The panel is a set of label/value cell pairs. Labels are looked up in a
// fixed dictionary; unknown labels are dropped. A few keys carry a transform
// (area units, acreage, owner address split, currency). The site address
// comes from a heading outside the table and is overridden by a table row
// with the same key.
package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"property-scraper/internal/config"
	"property-scraper/internal/entity"
	"property-scraper/pkg/logg"
)

const extractorName = "FieldExtractor"

var (
	acresPattern     = regexp.MustCompile(`(?i)\(\s*(\d+(?:\.\d+)?)\s*ACRES?\s*\)`)
	areaUnitPattern  = regexp.MustCompile(`(?i)\s*(square\s+feet|sq\.?\s*ft\.?|sqft|sf)\s*$`)
	whitespaceRegexp = regexp.MustCompile(`\s+`)
)

type Extractor struct {
	logger             *zap.Logger
	siteAddress        string
	demographicsPrefix string
}

type Params struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
}

func NewExtractor(params Params) *Extractor {
	return &Extractor{
		logger:             params.Logger.With(zap.String(logg.Layer, extractorName)),
		siteAddress:        params.Config.SelectorsConfig.SiteAddress,
		demographicsPrefix: params.Config.SelectorsConfig.DemographicsID,
	}
}

// Extract parses markup and returns the recognized fields. It never fails:
// unparseable or unrecognized markup yields an empty mapping.
func (e *Extractor) Extract(markup string) entity.ScrapedFields {
	fields := entity.ScrapedFields{}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		e.logger.Warn("Failed to parse panel markup", zap.Error(err))

		return fields
	}

	if e.siteAddress != "" {
		if text := cleanText(doc.Find(e.siteAddress).First().Text()); text != "" {
			fields[KeySiteAddress] = text
		}
	}

	demographics := ""
	if e.demographicsPrefix != "" {
		demographics = `[id^="` + e.demographicsPrefix + `"]`
	}

	rows := doc.Find("tr")
	if demographics != "" {
		rows = rows.Not(demographics + " tr")
	}

	eachPair(rows, func(label, value string) {
		key, ok := labelKeys[label]
		if !ok {
			return
		}

		applyTransform(fields, key, value)
	})

	if demographics != "" {
		eachPair(doc.Find(demographics+" tr"), func(label, value string) {
			key, ok := demographicKeys[label]
			if !ok {
				return
			}

			if key == KeyMedianIncome {
				value = StripCurrency(value)
			}

			fields[key] = value
		})
	}

	e.logger.Debug("Extracted panel fields", zap.Int("fields", len(fields)))

	return fields
}

// eachPair walks the direct th/td children of every row as label, value pairs.
func eachPair(rows *goquery.Selection, fn func(label, value string)) {
	rows.Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("th, td")

		for i := 0; i+1 < cells.Length(); i += 2 {
			label := normalizeLabel(cells.Eq(i).Text())
			if label == "" {
				continue
			}

			fn(label, cleanText(cells.Eq(i+1).Text()))
		}
	})
}

func applyTransform(fields entity.ScrapedFields, key, value string) {
	switch key {
	case KeyBuildingArea:
		fields[key] = StripAreaUnit(value)
	case KeyLotArea:
		fields[key] = LotAcres(value)
	case keyOwnerMailing:
		street, city, state, zip := SplitOwnerAddress(value)
		fields[KeyOwnerAddress1] = street
		fields[KeyOwnerCity] = city
		fields[KeyOwnerState] = state
		fields[KeyOwnerZip] = zip
	default:
		fields[key] = value
	}
}

// LotAcres returns the acreage inside "(N.NN ACRES)", or raw unchanged.
func LotAcres(raw string) string {
	if m := acresPattern.FindStringSubmatch(raw); m != nil {
		return m[1]
	}

	return raw
}

// StripAreaUnit removes a trailing square-feet unit.
func StripAreaUnit(raw string) string {
	return strings.TrimSpace(areaUnitPattern.ReplaceAllString(raw, ""))
}

// SplitOwnerAddress splits "street, city state zip". The last two tokens
// after the first comma are state and zip; everything before them is the
// city, so multi-word cities survive.
func SplitOwnerAddress(raw string) (street, city, state, zip string) {
	head, tail, found := strings.Cut(raw, ",")
	street = strings.TrimSpace(head)

	if !found {
		return street, "", "", ""
	}

	tokens := strings.Fields(tail)

	switch n := len(tokens); {
	case n >= 3:
		city = strings.Join(tokens[:n-2], " ")
		state = tokens[n-2]
		zip = tokens[n-1]
	case n == 2:
		state, zip = tokens[0], tokens[1]
	case n == 1:
		city = tokens[0]
	}

	return street, city, state, zip
}

// StripCurrency drops dollar signs and thousands separators.
func StripCurrency(raw string) string {
	return strings.TrimSpace(strings.NewReplacer("$", "", ",", "").Replace(raw))
}

func cleanText(s string) string {
	return strings.TrimSpace(s)
}

func normalizeLabel(s string) string {
	s = whitespaceRegexp.ReplaceAllString(strings.TrimSpace(s), " ")

	return strings.TrimSpace(strings.TrimSuffix(s, ":"))
}
