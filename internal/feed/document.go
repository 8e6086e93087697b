package feed

// Namespaces used by the RBA exchange-rate RDF/RSS feed.
const (
	NamespaceRDF     = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NamespaceRBA     = "https://www.rba.gov.au/statistics/frequency/exchange-rates.html"
	NamespaceCB      = "http://www.cbwiki.net/wiki/index.php/Specification_1.2/"
	NamespaceDC      = "http://purl.org/dc/elements/1.1/"
	NamespaceDCTerms = "http://purl.org/dc/terms/"
	NamespaceRSS     = "http://purl.org/rss/1.0/"
)

// The root element is deliberately unnamed: any well-formed document is
// accepted and simply yields no items if it is not an RDF feed.
//
// Elements that may repeat are collected as slices and read through the
// accessors below, which take the first match in document order. A single
// pointer field would instead merge repeated blocks, last one winning.
type document struct {
	Channels []channel `xml:"http://purl.org/rss/1.0/ channel"`
	Items    []item    `xml:"http://purl.org/rss/1.0/ item"`
}

type channel struct {
	Dates []string `xml:"http://purl.org/dc/elements/1.1/ date"`
}

type item struct {
	Titles     []string     `xml:"http://purl.org/rss/1.0/ title"`
	Statistics []statistics `xml:"http://www.cbwiki.net/wiki/index.php/Specification_1.2/ statistics"`
}

type statistics struct {
	ExchangeRates []exchangeRate `xml:"http://www.cbwiki.net/wiki/index.php/Specification_1.2/ exchangeRate"`
}

type exchangeRate struct {
	TargetCurrencies   []string            `xml:"http://www.cbwiki.net/wiki/index.php/Specification_1.2/ targetCurrency"`
	Observations       []observation       `xml:"http://www.cbwiki.net/wiki/index.php/Specification_1.2/ observation"`
	ObservationPeriods []observationPeriod `xml:"http://www.cbwiki.net/wiki/index.php/Specification_1.2/ observationPeriod"`
}

type observation struct {
	Values   []string `xml:"http://www.cbwiki.net/wiki/index.php/Specification_1.2/ value"`
	Decimals []string `xml:"http://www.cbwiki.net/wiki/index.php/Specification_1.2/ decimals"`
}

type observationPeriod struct {
	Periods []string `xml:"http://www.cbwiki.net/wiki/index.php/Specification_1.2/ period"`
}

func first[T any](values []T) (T, bool) {
	if len(values) == 0 {
		var zero T
		return zero, false
	}
	return values[0], true
}

// asAt is the first channel date.
func (d document) asAt() (string, bool) {
	ch, ok := first(d.Channels)
	if !ok {
		return "", false
	}
	return first(ch.Dates)
}

// exchangeRate is the first statistics/exchangeRate block of the item.
func (it item) exchangeRate() (exchangeRate, bool) {
	for _, st := range it.Statistics {
		if ex, ok := first(st.ExchangeRates); ok {
			return ex, true
		}
	}
	return exchangeRate{}, false
}

// period is the first observationPeriod/period of the block.
func (ex exchangeRate) period() (string, bool) {
	for _, op := range ex.ObservationPeriods {
		if p, ok := first(op.Periods); ok {
			return p, true
		}
	}
	return "", false
}
