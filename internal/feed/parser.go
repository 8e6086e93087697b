package feed

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/net/html/charset"

	"github.com/taylorsudo/rba-aud-rates/internal/rates"
)

// ErrMalformedFeed is returned when the payload is not well-formed XML.
var ErrMalformedFeed = errors.New("malformed feed")

// Parser turns raw RBA feed bytes into a snapshot.
type Parser struct {
	logger zerolog.Logger
}

// NewParser builds a feed parser.
func NewParser(logger zerolog.Logger) *Parser {
	return &Parser{logger: logger.With().Str("component", "feed_parser").Logger()}
}

// Parse decodes data and extracts every usable exchange rate. Items that are
// not rate items or carry unusable values are dropped one by one; only a
// document that is not well-formed fails the parse.
//
// Provenance fields (Source, SourceURL) are left for the caller.
func (p *Parser) Parse(data []byte) (rates.Snapshot, error) {
	doc, err := decode(data)
	if err != nil {
		return rates.Snapshot{}, err
	}

	snap := rates.Snapshot{
		Base:  rates.BaseCurrency,
		Rates: make([]rates.RateRecord, 0, len(doc.Items)),
	}

	if asAt, ok := doc.asAt(); ok && asAt != "" {
		snap.AsAtAEST = &asAt
	}

	seen := make(map[string]struct{}, len(doc.Items))
	for i, it := range doc.Items {
		c, reason := normalize(it)
		if reason != "" {
			p.logger.Debug().Int("item", i).Str("reason", reason).Msg("skipping feed item")
			continue
		}
		if _, dup := seen[c.record.Code]; dup {
			p.logger.Debug().Int("item", i).Str("code", c.record.Code).Msg("skipping duplicate currency")
			continue
		}
		seen[c.record.Code] = struct{}{}
		snap.Rates = append(snap.Rates, c.record)

		if snap.Date == nil && c.period != "" {
			period := c.period
			snap.Date = &period
		}
	}

	slices.SortFunc(snap.Rates, func(a, b rates.RateRecord) int {
		return strings.Compare(a.Code, b.Code)
	})

	p.logger.Debug().
		Int("items", len(doc.Items)).
		Int("rates", len(snap.Rates)).
		Str("date", snap.DateLabel()).
		Msg("feed parsed")

	return snap, nil
}

func decode(data []byte) (document, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return document{}, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
	}

	// Anything but whitespace, comments or processing instructions after the
	// root element makes the document ill-formed.
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return document{}, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return document{}, fmt.Errorf("%w: unexpected element <%s> after document root", ErrMalformedFeed, t.Name.Local)
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return document{}, fmt.Errorf("%w: unexpected text after document root", ErrMalformedFeed)
			}
		}
	}

	return doc, nil
}

type candidate struct {
	record rates.RateRecord
	period string
}

// normalize maps one feed item to a rate record. A non-empty reason means the
// item is skipped.
func normalize(it item) (candidate, string) {
	ex, ok := it.exchangeRate()
	if !ok {
		return candidate{}, "no exchange rate block"
	}

	target, hasTarget := first(ex.TargetCurrencies)
	obs, hasObs := first(ex.Observations)
	if !hasTarget || !hasObs {
		return candidate{}, "missing target currency or observation"
	}

	code := strings.TrimSpace(target)
	if code == "" {
		return candidate{}, "empty target currency"
	}
	if code == rates.TradeWeightedIndexCode {
		return candidate{}, "trade-weighted index"
	}

	value, _ := first(obs.Values)
	if value == "" {
		return candidate{}, "missing observation value"
	}

	perAUD, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(perAUD) || math.IsInf(perAUD, 0) {
		return candidate{}, "non-numeric observation value"
	}

	title, _ := first(it.Titles)
	decimals, _ := first(obs.Decimals)

	c := candidate{
		record: rates.NewRateRecord(code, perAUD, parseDecimals(decimals), title),
	}
	c.period, _ = ex.period()
	return c, ""
}

// parseDecimals accepts only plain ASCII digit strings.
func parseDecimals(raw string) *int {
	if raw == "" {
		return nil
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return nil
		}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}
