/*
Package report turns reconciliations into render-neutral documents.

PURPOSE:
  A Document is a title, a few notes and a list of tables of already
  formatted strings. HTML, PDF or plain text writers only lay them out;
  they never compute. WriteText is the plain-text writer.

SEE ALSO:
  - treasury/aggregate.go: Reconciliation
  - treasury/history.go: AnnualSummary
*/
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/warp/treasury-engine/treasury"
)

type Table struct {
	Title   string     `json:"title"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

type Document struct {
	Title        string   `json:"title"`
	Organization string   `json:"organization"`
	Period       string   `json:"period"`
	Notes        []string `json:"notes,omitempty"`
	Tables       []Table  `json:"tables"`
}

// Table returns the table with the given title, if present.
func (d Document) Table(title string) (Table, bool) {
	for _, t := range d.Tables {
		if t.Title == title {
			return t, true
		}
	}
	return Table{}, false
}

const (
	TableSummary    = "Resumen"
	TableCategories = "Rubros"
	TableReceipts   = "Ingresos"
	TableExpenses   = "Egresos"
	TableMonths     = "Meses"
)

// =============================================================================
// BUILDERS
// =============================================================================

// Reconciliation builds the arqueo report of rec.
func Reconciliation(rec treasury.Reconciliation, org string, f Formatter) Document {
	doc := Document{
		Title:        "Arqueo de caja",
		Organization: org,
		Period:       fmt.Sprintf("%s al %s", rec.Range.Start, rec.Range.End),
	}
	if rec.Source == treasury.SourceRecomputed {
		doc.Notes = append(doc.Notes, "Cifras recalculadas con los registros actuales.")
	}

	doc.Tables = append(doc.Tables,
		Table{
			Title:   TableSummary,
			Columns: []string{"Concepto", "Monto"},
			Rows: [][]string{
				{"Saldo inicial", f.Amount(rec.OpeningBalance)},
				{"Total ingresos", f.Amount(rec.TotalIncome)},
				{"Ingresos iglesia", f.Amount(rec.FundAllocation.Church.Total)},
				{"Egresos", f.Amount(rec.TotalExpenses)},
				{"Saldo neto iglesia", f.Amount(rec.ChurchNetIncome)},
				{"Saldo final", f.Amount(rec.ClosingBalance)},
				{"Asociación y otros", f.Amount(rec.AssociationAndOtherTotal)},
			},
		},
		categoryTable(rec, f),
		receiptTable(rec.Receipts, f),
		expenseTable(rec.Expenses, f),
	)
	return doc
}

// Export builds the report of a saved arqueo and notes any drift from the
// current records.
func Export(exp treasury.Export, org string, f Formatter) Document {
	doc := Reconciliation(exp.Reconciliation, org, f)
	if exp.Arqueo.Description != "" {
		doc.Title += ": " + exp.Arqueo.Description
	}
	if d := exp.Divergence; d.Diverged {
		doc.Notes = append(doc.Notes, fmt.Sprintf(
			"Los registros actuales difieren del arqueo guardado: saldo final %s guardado, %s recalculado; %d ingresos guardados, %d actuales.",
			f.Amount(d.StoredClosingBalance), f.Amount(d.RecomputedClosingBalance),
			d.StoredReceiptCount, d.CurrentReceiptCount,
		))
	}
	return doc
}

// Annual builds the yearly report, one row per month plus a total row.
func Annual(sum treasury.AnnualSummary, org string, f Formatter) Document {
	t := Table{
		Title:   TableMonths,
		Columns: []string{"Mes", "Saldo inicial", "Ingresos", "Ingresos iglesia", "Egresos", "Saldo final"},
	}
	for _, m := range sum.Months {
		t.Rows = append(t.Rows, []string{
			string(m.Period),
			f.Amount(m.OpeningBalance),
			f.Amount(m.TotalIncome),
			f.Amount(m.ChurchIncome),
			f.Amount(m.Expenses),
			f.Amount(m.ClosingBalance),
		})
	}
	t.Rows = append(t.Rows, []string{
		"Total",
		f.Amount(sum.OpeningBalance),
		f.Amount(sum.TotalIncome),
		f.Amount(sum.ChurchIncome),
		f.Amount(sum.Expenses),
		f.Amount(sum.ClosingBalance),
	})
	return Document{
		Title:        "Reporte anual",
		Organization: org,
		Period:       fmt.Sprint(sum.Year),
		Tables:       []Table{t},
	}
}

func categoryTable(rec treasury.Reconciliation, f Formatter) Table {
	t := Table{
		Title:   TableCategories,
		Columns: []string{"Rubro", "Total", "Asociación", "Iglesia", "Otros"},
	}
	fa := rec.FundAllocation
	for _, c := range treasury.Categories {
		total := rec.CategoryTotals.Get(c)
		if total.IsZero() {
			continue
		}
		t.Rows = append(t.Rows, []string{
			CategoryLabel(c),
			f.Amount(total),
			f.Amount(fa.Association.Amounts.Get(c)),
			f.Amount(fa.Church.Amounts.Get(c)),
			f.Amount(fa.Other.Amounts.Get(c)),
		})
	}
	t.Rows = append(t.Rows, []string{
		"Total",
		f.Amount(rec.CategoryTotals.Sum()),
		f.Amount(fa.Association.Total),
		f.Amount(fa.Church.Total),
		f.Amount(fa.Other.Total),
	})
	return t
}

func receiptTable(receipts []treasury.IncomeReceipt, f Formatter) Table {
	t := Table{Title: TableReceipts, Columns: []string{"Fecha", "Nombre", "Iglesia", "Total"}}
	for _, r := range receipts {
		t.Rows = append(t.Rows, []string{string(r.Date), r.DonorName, r.ChurchName, f.Amount(r.Total)})
	}
	return t
}

func expenseTable(expenses []treasury.Expense, f Formatter) Table {
	t := Table{Title: TableExpenses, Columns: []string{"Fecha", "Descripción", "Monto"}}
	for _, e := range expenses {
		t.Rows = append(t.Rows, []string{string(e.Date), e.Description, f.Amount(e.Amount)})
	}
	return t
}

// =============================================================================
// TEXT WRITER
// =============================================================================

// WriteText lays the document out as aligned plain text.
func (d Document) WriteText(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n%s\n", d.Title, d.Organization, d.Period)
	for _, n := range d.Notes {
		fmt.Fprintf(&b, "* %s\n", n)
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}

	for _, t := range d.Tables {
		if _, err := fmt.Fprintf(w, "\n%s\n", t.Title); err != nil {
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, strings.Join(t.Columns, "\t")+"\t")
		for _, row := range t.Rows {
			fmt.Fprintln(tw, strings.Join(row, "\t")+"\t")
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}
