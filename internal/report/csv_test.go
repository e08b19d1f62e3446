package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDebtors(t *testing.T) {
	var buf bytes.Buffer
	err := WriteDebtors(&buf, []DebtorRow{
		{Unit: "A-101", Owner: "María Pérez", Status: "Debe", Balance: "13000.00"},
		{Unit: "B-202", Owner: "Pérez, José", Status: "Debe", Balance: "300.00"},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Unidad,Propietario,Estado,Saldo", lines[0])
	assert.Equal(t, "A-101,María Pérez,Debe,13000.00", lines[1])
	assert.Equal(t, `B-202,"Pérez, José",Debe,300.00`, lines[2])
}

func TestReadSuppliers(t *testing.T) {
	in := "Nombre,RNC,Contacto,Telefono,Email,Categoria\n" +
		"Ferretería Central, 101010101 ,Ana,809-555-0101,ana@ferreteria.do,Materiales\n" +
		" ,999,,,,\n" +
		"Jardines SRL,,Luis,,,Jardinería\n"

	rows, err := ReadSuppliers(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Ferretería Central", rows[0].Name)
	assert.Equal(t, "101010101", rows[0].RNC)
	assert.Equal(t, "Materiales", rows[0].Category)
	assert.Equal(t, "Jardines SRL", rows[1].Name)
}
