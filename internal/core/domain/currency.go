package domain

// Currency is a supported treasury currency code.
type Currency string

const (
	KES Currency = "KES"
	USD Currency = "USD"
	NGN Currency = "NGN"
)

// CurrencyInfo carries display metadata for a supported currency.
type CurrencyInfo struct {
	Code    Currency `json:"code"`
	Name    string   `json:"name"`
	Country string   `json:"country"`
	Symbol  string   `json:"symbol"`
}

// SupportedCurrencies is the closed set of currencies the ledger operates on.
var SupportedCurrencies = []CurrencyInfo{
	{Code: KES, Name: "Kenyan Shilling", Country: "Kenya", Symbol: "KSh"},
	{Code: USD, Name: "US Dollar", Country: "United States", Symbol: "$"},
	{Code: NGN, Name: "Nigerian Naira", Country: "Nigeria", Symbol: "₦"},
}

// IsSupportedCurrency reports whether code is one of the supported currencies.
func IsSupportedCurrency(code Currency) bool {
	for _, c := range SupportedCurrencies {
		if c.Code == code {
			return true
		}
	}
	return false
}
