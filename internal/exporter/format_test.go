package exporter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"mlbcli/pkg/contracts/domain"
)

func TestFormatCell(t *testing.T) {
	tests := []struct {
		name string
		cell domain.Cell
		want string
	}{
		{"absent uses token", domain.Absent(), "NA"},
		{"float shortest form", domain.FloatCell(4.5), "4.5"},
		{"float integral", domain.FloatCell(162), "162"},
		{"integer", domain.IntCell(2021), "2021"},
		{"date", domain.DateCell(time.Date(2021, 6, 3, 0, 0, 0, 0, time.UTC)), "2021-06-03"},
		{"category", domain.CategoryCell("Athletics"), "Athletics"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatCell(tt.cell, "NA"))
		})
	}
}

func TestFormatCellEmptyToken(t *testing.T) {
	assert.Equal(t, "", formatCell(domain.Absent(), ""))
}

func TestFormatRow(t *testing.T) {
	row := domain.Row{
		domain.CategoryCell("ATH"),
		domain.IntCell(90),
		domain.Absent(),
	}
	assert.Equal(t, []string{"ATH", "90", "NA"}, formatRow(row, "NA"))
}
