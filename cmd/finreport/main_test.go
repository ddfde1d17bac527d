package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/mtlprog/finreport/internal/domain"
)

func writeJSONFile(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "in.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestDeriveCommand(t *testing.T) {
	r := domain.Report{Year: 2021}
	r.IncomeStatement.Revenue = 100
	r.IncomeStatement.TotalCOGS = 30
	r.IncomeStatement.SharesOutstandingBasic = 10
	r.BalanceSheet.TotalAssets = 50
	r.CashFlowStatement.OperatingCashFlow = 40
	r.CashFlowStatement.CapitalExpenditure = 10
	r.FinancialRatios.AvgSharePrice = 20

	in := writeJSONFile(t, domain.StockReport{Ticker: "PEP", Data: []domain.Report{r}})
	out := filepath.Join(t.TempDir(), "out.json")

	err := newApp().Run([]string{"finreport", "--env-file", "", "derive", "-o", out, in})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var got domain.StockReport
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got.Data, 1)
	require.NotNil(t, got.LatestUpdate)
	require.NotNil(t, got.Data[0].IncomeStatement.GrossProfit)
	assert.Equal(t, domain.Amount(70), *got.Data[0].IncomeStatement.GrossProfit)
	require.NotNil(t, got.Data[0].CashFlowStatement.FreeCashFlow)
	assert.Equal(t, domain.Amount(30), *got.Data[0].CashFlowStatement.FreeCashFlow)
	assert.Nil(t, got.Data[0].IncomeStatementYoY)
}

func TestDeriveCommandInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ticker":`), 0o600))

	err := newApp().Run([]string{"finreport", "--env-file", "", "derive", path})
	assert.ErrorContains(t, err, "decoding stock report")
}

func TestImportCommandRequiresFile(t *testing.T) {
	app := newApp()
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.Run([]string{"finreport", "--env-file", "", "import"})
	assert.ErrorContains(t, err, "at least one FILE")
}
