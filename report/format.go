package report

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/warp/treasury-engine/treasury"
)

// Formatter renders amounts for one locale. Amounts are rounded to two
// decimals here and nowhere else.
type Formatter struct {
	tag     language.Tag
	printer *message.Printer
	symbol  string
}

// NewFormatter parses a BCP 47 locale such as "es" or "en-US". symbol is
// prefixed to every amount; empty means no prefix.
func NewFormatter(locale, symbol string) (Formatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return Formatter{}, err
	}
	return Formatter{tag: tag, printer: message.NewPrinter(tag), symbol: strings.TrimSpace(symbol)}, nil
}

func (f Formatter) Locale() string { return f.tag.String() }

// Number formats d with two decimals and locale grouping.
func (f Formatter) Number(d decimal.Decimal) string {
	v := d.Round(2).InexactFloat64()
	return f.printer.Sprint(number.Decimal(v, number.Scale(2)))
}

// Amount is Number with the currency symbol.
func (f Formatter) Amount(d decimal.Decimal) string {
	if f.symbol == "" {
		return f.Number(d)
	}
	return f.symbol + " " + f.Number(d)
}

var categoryLabels = map[treasury.Category]string{
	treasury.Primicia:        "Primicia",
	treasury.Diezmo:          "Diezmo",
	treasury.Pobres:          "Pobres",
	treasury.Agradecimiento:  "Agradecimiento",
	treasury.Cultos:          "Cultos",
	treasury.EscuelaSabatica: "Escuela Sabática",
	treasury.Jovenes:         "Jóvenes",
	treasury.Adolescentes:    "Adolescentes",
	treasury.Ninos:           "Niños",
	treasury.Educacion:       "Educación",
	treasury.Salud:           "Salud",
	treasury.ObraMisionera:   "Obra Misionera",
	treasury.Musica:          "Música",
	treasury.RenuevaRadio:    "Renueva Radio",
	treasury.PrimerSabado:    "Primer Sábado",
	treasury.SemanaOracion:   "Semana de Oración",
	treasury.MisionExtranj:   "Misión Extranjera",
	treasury.Construccion:    "Construcción",
}

// CategoryLabel returns the display name of c.
func CategoryLabel(c treasury.Category) string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}
