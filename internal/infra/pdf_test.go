package infra

import (
	"bytes"
	"testing"
	"time"

	"taquilla/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTicketPDF(t *testing.T) {
	now := time.Now()
	punto, retira, otro, par, cel := "Norte", model.RetiraOtro, "Luis Pérez", "Hermano", "0999999999"
	tk := &model.Ticket{
		TicketID:       "TK-1",
		TransactionID:  "TX1",
		FirstName:      "Ana",
		LastName:       "Núñez",
		Localidad:      "GENERAL",
		Asiento:        "A-12",
		Cedula:         "0102030405",
		Impreso:        true,
		FechaImpresion: &now,
		PuntoTrabajo:   &punto,
		QuienRetira:    &retira,
		QuienOtro:      &otro,
		Parentesco:     &par,
		Celular:        &cel,
		Reimpresiones:  []model.Reimpresion{{Motivo: "Papel atascado", Fecha: now}},
	}

	out, err := GenerateTicketPDF(tk)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "corto", truncate("corto", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
