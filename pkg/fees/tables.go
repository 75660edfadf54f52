package fees

import "math"

// FeeRange is an inclusive amount band with the fee charged inside it
type FeeRange struct {
	Min float64
	Max float64
	Fee float64
}

// FeeModel identifies how a country's fee is composed
type FeeModel string

const (
	ModelFlat     FeeModel = "flat"     // range fee only
	ModelCompound FeeModel = "compound" // range fee plus a percentage tax
)

// countryTable is a fee schedule for one destination country
type countryTable struct {
	Name     string
	Currency string
	Model    FeeModel
	TaxRate  float64
	Ranges   []FeeRange
}

var unbounded = math.Inf(1)

// Tanzania mobile-money cashout fees in TZS
var tanzaniaRanges = []FeeRange{
	{Min: 0, Max: 999, Fee: 185},
	{Min: 1000, Max: 1999, Fee: 360},
	{Min: 2000, Max: 2999, Fee: 500},
	{Min: 3000, Max: 3999, Fee: 620},
	{Min: 4000, Max: 4999, Fee: 750},
	{Min: 5000, Max: 6999, Fee: 1000},
	{Min: 7000, Max: 7999, Fee: 1150},
	{Min: 8000, Max: 9999, Fee: 1250},
	{Min: 10000, Max: 14999, Fee: 1550},
	{Min: 15000, Max: 19999, Fee: 1700},
	{Min: 20000, Max: 29999, Fee: 2250},
	{Min: 30000, Max: 39999, Fee: 2500},
	{Min: 40000, Max: 49999, Fee: 2700},
	{Min: 50000, Max: 99999, Fee: 3500},
	{Min: 100000, Max: 199999, Fee: 4900},
	{Min: 200000, Max: 299999, Fee: 6000},
	{Min: 300000, Max: 399999, Fee: 7200},
	{Min: 400000, Max: 499999, Fee: 8000},
	{Min: 500000, Max: 599999, Fee: 8200},
	{Min: 600000, Max: 699999, Fee: 8500},
	{Min: 700000, Max: 799999, Fee: 8800},
	{Min: 800000, Max: 899999, Fee: 9000},
	{Min: 900000, Max: 1000000, Fee: 9500},
	{Min: 1000001, Max: 3000000, Fee: 10000},
	{Min: 3000001, Max: unbounded, Fee: 12000},
}

// Uganda mobile-money withdraw fees in UGX, charged before the 0.5% tax
var ugandaRanges = []FeeRange{
	{Min: 0, Max: 2500, Fee: 330},
	{Min: 2501, Max: 5000, Fee: 440},
	{Min: 5001, Max: 15000, Fee: 700},
	{Min: 15001, Max: 30000, Fee: 880},
	{Min: 30001, Max: 45000, Fee: 1210},
	{Min: 45001, Max: 60000, Fee: 1500},
	{Min: 60001, Max: 125000, Fee: 1925},
	{Min: 125001, Max: 250000, Fee: 3575},
	{Min: 250001, Max: 500000, Fee: 7000},
	{Min: 500001, Max: 1000000, Fee: 12500},
	{Min: 1000001, Max: 2000000, Fee: 15000},
	{Min: 2000001, Max: 4000000, Fee: 18000},
	{Min: 4000001, Max: unbounded, Fee: 20000},
}

// UgandaTaxRate is the withdrawal levy applied on top of the range fee
const UgandaTaxRate = 0.005

var tables = map[string]countryTable{
	"tanzania": {Name: "Tanzania", Currency: "TZS", Model: ModelFlat, Ranges: tanzaniaRanges},
	"uganda":   {Name: "Uganda", Currency: "UGX", Model: ModelCompound, TaxRate: UgandaTaxRate, Ranges: ugandaRanges},
}

// Ranges returns a copy of a country's fee schedule
func Ranges(country string) ([]FeeRange, bool) {
	t, ok := lookup(country)
	if !ok {
		return nil, false
	}
	out := make([]FeeRange, len(t.Ranges))
	copy(out, t.Ranges)
	return out, true
}

// Currency returns the ISO code fees for country are charged in
func Currency(country string) (string, bool) {
	t, ok := lookup(country)
	return t.Currency, ok
}
