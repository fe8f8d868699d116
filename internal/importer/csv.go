// Package importer parses bank-export CSV files into transactions.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finsight-hq/burnwatch/pkg/model"
)

// Expected layout: date,amount,type,vendor,category,recurring,payroll with a
// header row. Amounts may be signed or unsigned; the type column decides the
// sign convention.
const (
	dateFormat   = "2006-01-02"
	numFields    = 7
	colDate      = 0
	colAmount    = 1
	colType      = 2
	colVendor    = 3
	colCategory  = 4
	colRecurring = 5
	colPayroll   = 6
)

// Parse reads a transaction CSV and returns normalized transactions tagged
// with the given organization.
func Parse(r io.Reader, orgID string) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading transaction CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var txns []model.Transaction
	for i, rec := range records[1:] {
		txn, err := parseRow(rec, orgID)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

func parseRow(rec []string, orgID string) (model.Transaction, error) {
	date, err := time.Parse(dateFormat, rec[colDate])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing date %q: %w", rec[colDate], err)
	}

	amount, err := decimal.NewFromString(rec[colAmount])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", rec[colAmount], err)
	}

	txType := model.TxnType(strings.ToLower(strings.TrimSpace(rec[colType])))
	if txType != model.TxnDebit && txType != model.TxnCredit {
		return model.Transaction{}, fmt.Errorf("unknown transaction type %q", rec[colType])
	}

	recurring, err := parseFlag(rec[colRecurring])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing recurring flag: %w", err)
	}
	payroll, err := parseFlag(rec[colPayroll])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing payroll flag: %w", err)
	}

	return model.Transaction{
		OrgID:      orgID,
		Date:       date,
		Amount:     model.NormalizeAmount(amount, txType),
		Type:       txType,
		Vendor:     strings.TrimSpace(rec[colVendor]),
		CategoryID: strings.TrimSpace(rec[colCategory]),
		Recurring:  recurring,
		Payroll:    payroll,
	}, nil
}

func parseFlag(s string) (bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}
