package energy

import "encoding/json"

// ResidentialRate is the average residential price for the utility serving an address.
type ResidentialRate struct {
	UtilityName     string  `json:"utility_name"`
	ResidentialRate float64 `json:"residential_rate"`
}

// UsageQuery selects EIA retail-sales rows.
type UsageQuery struct {
	State     string
	Sector    string
	Start     string // YYYY-MM
	End       string // YYYY-MM
	Frequency string
}

// UsageRecord is one EIA retail-sales data point.
type UsageRecord struct {
	Period           string      `json:"period"`
	StateID          string      `json:"stateid"`
	StateDescription string      `json:"stateDescription"`
	SectorID         string      `json:"sectorid"`
	SectorName       string      `json:"sectorName"`
	Sales            json.Number `json:"sales"`
	SalesUnits       string      `json:"sales-units"`
}

// UsageReport is the usage endpoint payload.
type UsageReport struct {
	Data         []UsageRecord `json:"data"`
	TotalRecords int           `json:"total_records"`
}
