package record

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"property-scraper/internal/entity"
	"property-scraper/pkg/apperr"
)

var inputColumns = []string{
	ColLatLong, ColPropertyName, ColAddress1, ColCity, ColState, ColZipCode,
	ColCounty, ColListedPrice, ColListedNOI, ColListCAP, ColBrokerList,
	ColOwnerCompany, ColOwnerAddress1, ColOwnerCity, ColOwnerState, ColOwnerZipCode,
}

// ReadInputFile reads the input table at path.
func ReadInputFile(path string) ([]entity.InputRecord, error) {
	const op = "ReadInputFile"

	f, err := os.Open(path)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeInvalidInput, err, map[string]any{
			apperr.MetaReason: "open_failed",
			apperr.MetaStage:  apperr.StageInput,
			apperr.MetaPath:   path,
		})
	}
	defer f.Close()

	return ReadInputs(f)
}

// ReadInputs parses a header-driven CSV. Rows with a blank Lat/Long are
// skipped. InputRecord.Row is the 1-based data row number.
func ReadInputs(r io.Reader) ([]entity.InputRecord, error) {
	const op = "ReadInputs"

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}

	if err != nil {
		return nil, apperr.WrapWithReason(op, apperr.CodeInvalidInput, err, "header_unreadable")
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}

		index[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, name := range inputColumns {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return nil, apperr.Wrap(op, apperr.CodeInvalidInput,
			fmt.Errorf("missing columns: %s", strings.Join(missing, ", ")),
			map[string]any{
				apperr.MetaReason: "missing_columns",
				apperr.MetaStage:  apperr.StageInput,
			})
	}

	var records []entity.InputRecord

	for row := 1; ; row++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, apperr.Wrap(op, apperr.CodeInvalidInput, err, map[string]any{
				apperr.MetaReason: "row_unreadable",
				apperr.MetaStage:  apperr.StageInput,
			})
		}

		get := func(name string) string {
			i := index[name]
			if i >= len(fields) {
				return ""
			}

			return strings.TrimSpace(fields[i])
		}

		coordinates := get(ColLatLong)
		if coordinates == "" {
			continue
		}

		records = append(records, entity.InputRecord{
			Row:           row,
			Coordinates:   coordinates,
			PropertyName:  get(ColPropertyName),
			Address1:      get(ColAddress1),
			City:          get(ColCity),
			State:         get(ColState),
			ZipCode:       get(ColZipCode),
			County:        get(ColCounty),
			ListedPrice:   get(ColListedPrice),
			ListedNOI:     get(ColListedNOI),
			ListCAP:       get(ColListCAP),
			BrokerList:    get(ColBrokerList),
			OwnerCompany:  get(ColOwnerCompany),
			OwnerAddress1: get(ColOwnerAddress1),
			OwnerCity:     get(ColOwnerCity),
			OwnerState:    get(ColOwnerState),
			OwnerZipCode:  get(ColOwnerZipCode),
		})
	}

	return records, nil
}
