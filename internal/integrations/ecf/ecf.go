// Package ecf reads Dominican electronic fiscal receipts (e-CF) issued by
// suppliers.
package ecf

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const dateLayout = "02-01-2006"

// Item is a line of the receipt
type Item struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

// Document holds the fields of an e-CF needed to register a payable
type Document struct {
	ENCF       string
	IssuerRNC  string
	IssuerName string
	IssueDate  time.Time
	DueDate    time.Time
	Total      decimal.Decimal
	Items      []Item
}

// Parser extracts Documents from e-CF XML
type Parser struct {
	log *logrus.Logger
}

func NewParser(log *logrus.Logger) *Parser {
	return &Parser{log: log}
}

// Parse reads one e-CF document
func (p *Parser) Parse(r io.Reader) (*Document, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	root := doc.FindElement("//ECF")
	if root == nil {
		return nil, fmt.Errorf("ECF element not found in XML")
	}

	d := &Document{
		ENCF:       text(root, "./Encabezado/IdDoc/eNCF"),
		IssuerRNC:  text(root, "./Encabezado/Emisor/RNCEmisor"),
		IssuerName: text(root, "./Encabezado/Emisor/RazonSocialEmisor"),
	}
	if d.ENCF == "" {
		return nil, fmt.Errorf("eNCF not found in XML")
	}
	if d.IssuerRNC == "" {
		return nil, fmt.Errorf("RNCEmisor not found in XML")
	}

	var err error
	if d.IssueDate, err = date(root, "./Encabezado/Emisor/FechaEmision"); err != nil {
		return nil, err
	}
	if d.IssueDate.IsZero() {
		return nil, fmt.Errorf("FechaEmision not found in XML")
	}
	if d.DueDate, err = date(root, "./Encabezado/IdDoc/FechaLimitePago"); err != nil {
		return nil, err
	}
	if d.DueDate.IsZero() {
		d.DueDate = d.IssueDate
	}
	if d.Total, err = amount(root, "./Encabezado/Totales/MontoTotal"); err != nil {
		return nil, err
	}

	for _, el := range root.FindElements("./DetallesItems/Item") {
		item := Item{Description: text(el, "./NombreItem")}
		if item.Quantity, err = amount(el, "./CantidadItem"); err != nil {
			return nil, err
		}
		if item.UnitPrice, err = amount(el, "./PrecioUnitarioItem"); err != nil {
			return nil, err
		}
		d.Items = append(d.Items, item)
	}

	p.log.Debugf("Parsed e-CF %s from %s with %d items", d.ENCF, d.IssuerRNC, len(d.Items))
	return d, nil
}

func text(el *etree.Element, path string) string {
	found := el.FindElement(path)
	if found == nil {
		return ""
	}
	return strings.TrimSpace(found.Text())
}

func date(el *etree.Element, path string) (time.Time, error) {
	raw := text(el, path)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return t, nil
}

func amount(el *etree.Element, path string) (decimal.Decimal, error) {
	raw := text(el, path)
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return d, nil
}
