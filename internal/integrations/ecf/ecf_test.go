package ecf

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `<?xml version="1.0" encoding="utf-8"?>
<ECF>
  <Encabezado>
    <Version>1.0</Version>
    <IdDoc>
      <TipoeCF>31</TipoeCF>
      <eNCF>E310000000123</eNCF>
      <FechaLimitePago>15-11-2026</FechaLimitePago>
    </IdDoc>
    <Emisor>
      <RNCEmisor>131234567</RNCEmisor>
      <RazonSocialEmisor>Ascensores del Caribe SRL</RazonSocialEmisor>
      <FechaEmision>16-10-2026</FechaEmision>
    </Emisor>
    <Totales>
      <MontoTotal>12000.00</MontoTotal>
    </Totales>
  </Encabezado>
  <DetallesItems>
    <Item>
      <NombreItem>Mantenimiento ascensor</NombreItem>
      <CantidadItem>2</CantidadItem>
      <PrecioUnitarioItem>6000.00</PrecioUnitarioItem>
    </Item>
  </DetallesItems>
</ECF>`

func quietParser() *Parser {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewParser(log)
}

func TestParse(t *testing.T) {
	d, err := quietParser().Parse(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, "E310000000123", d.ENCF)
	assert.Equal(t, "131234567", d.IssuerRNC)
	assert.Equal(t, "Ascensores del Caribe SRL", d.IssuerName)
	assert.Equal(t, time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), d.IssueDate)
	assert.Equal(t, time.Date(2026, 11, 15, 0, 0, 0, 0, time.UTC), d.DueDate)
	assert.True(t, d.Total.Equal(decimal.NewFromInt(12000)))
	require.Len(t, d.Items, 1)
	assert.Equal(t, "Mantenimiento ascensor", d.Items[0].Description)
	assert.True(t, d.Items[0].Quantity.Equal(decimal.NewFromInt(2)))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		xml  string
	}{
		{"not xml", "hello"},
		{"no ECF root", "<Factura/>"},
		{"no eNCF", "<ECF><Encabezado><Emisor><RNCEmisor>1</RNCEmisor></Emisor></Encabezado></ECF>"},
		{"bad date", strings.Replace(sample, "16-10-2026", "2026-10-16", 1)},
		{"bad total", strings.Replace(sample, "12000.00", "doce mil", 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := quietParser().Parse(strings.NewReader(tt.xml))
			assert.Error(t, err)
		})
	}
}

func TestDueDateDefaultsToIssueDate(t *testing.T) {
	xml := strings.Replace(sample, "<FechaLimitePago>15-11-2026</FechaLimitePago>", "", 1)
	d, err := quietParser().Parse(strings.NewReader(xml))
	require.NoError(t, err)
	assert.Equal(t, d.IssueDate, d.DueDate)
}
