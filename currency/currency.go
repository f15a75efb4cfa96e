package currency

import (
	"errors"
	"fmt"
	"strings"
)

// Delimiter used by Poloniex style pair strings e.g. BTC_ETH
const Delimiter = "_"

var errInvalidPair = errors.New("invalid currency pair string")

// Code is an upper-cased currency identifier e.g. BTC
type Code string

// NewCode normalizes a raw currency string into a Code
func NewCode(c string) Code {
	return Code(strings.ToUpper(strings.TrimSpace(c)))
}

// String implements the stringer interface
func (c Code) String() string {
	return string(c)
}

// IsEmpty returns true when no currency is set
func (c Code) IsEmpty() bool {
	return c == ""
}

// Pair holds a currency pair. Base is the first element of the exchange pair
// string and is the currency trades are priced in; Quote is the second
// element and is the currency actually traded. e.g. for BTC_ETH the rate of
// an ETH trade is denominated in BTC.
type Pair struct {
	Delimiter string `json:"delimiter"`
	Base      Code   `json:"base"`
	Quote     Code   `json:"quote"`
}

// NewPair returns a pair from two currency codes
func NewPair(base, quote Code) Pair {
	return Pair{Delimiter: Delimiter, Base: base, Quote: quote}
}

// NewPairFromString splits an exchange pair string on the standard delimiter
func NewPairFromString(currencyPair string) (Pair, error) {
	result := strings.Split(currencyPair, Delimiter)
	if len(result) != 2 || result[0] == "" || result[1] == "" {
		return Pair{}, fmt.Errorf("%w: %q", errInvalidPair, currencyPair)
	}
	return NewPair(NewCode(result[0]), NewCode(result[1])), nil
}

// String returns the pair in exchange request format
func (p Pair) String() string {
	return p.Base.String() + p.Delimiter + p.Quote.String()
}
