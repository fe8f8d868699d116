package importer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight-hq/burnwatch/internal/importer"
	"github.com/finsight-hq/burnwatch/pkg/model"
)

const sampleCSV = `date,amount,type,vendor,category,recurring,payroll
2025-05-10,1250.75,debit,aws,cloud,true,false
2025-05-12,50000,credit,,revenue,,
2025-05-15,42000,DEBIT,gusto,payroll,true,true
`

func TestParse(t *testing.T) {
	txns, err := importer.Parse(strings.NewReader(sampleCSV), "org-1")
	require.NoError(t, err)
	require.Len(t, txns, 3)

	assert.Equal(t, "org-1", txns[0].OrgID)
	assert.Equal(t, model.TxnDebit, txns[0].Type)
	assert.Equal(t, "-1250.75", txns[0].Amount.String())
	assert.Equal(t, "aws", txns[0].Vendor)
	assert.True(t, txns[0].Recurring)

	assert.Equal(t, model.TxnCredit, txns[1].Type)
	assert.Equal(t, "50000", txns[1].Amount.String())

	// Type is case-insensitive; both flags parse.
	assert.Equal(t, model.TxnDebit, txns[2].Type)
	assert.True(t, txns[2].Payroll)
}

func TestParse_HeaderOnly(t *testing.T) {
	txns, err := importer.Parse(strings.NewReader("date,amount,type,vendor,category,recurring,payroll\n"), "org-1")
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestParse_BadDate(t *testing.T) {
	csv := "date,amount,type,vendor,category,recurring,payroll\n05/10/2025,100,debit,aws,,,\n"
	_, err := importer.Parse(strings.NewReader(csv), "org-1")
	assert.ErrorContains(t, err, "row 2")
}

func TestParse_UnknownType(t *testing.T) {
	csv := "date,amount,type,vendor,category,recurring,payroll\n2025-05-10,100,transfer,aws,,,\n"
	_, err := importer.Parse(strings.NewReader(csv), "org-1")
	assert.ErrorContains(t, err, "unknown transaction type")
}

func TestParse_WrongFieldCount(t *testing.T) {
	csv := "date,amount,type\n2025-05-10,100,debit\n"
	_, err := importer.Parse(strings.NewReader(csv), "org-1")
	assert.Error(t, err)
}
