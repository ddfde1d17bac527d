package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/mtlprog/finreport/internal/derive"
	"github.com/mtlprog/finreport/internal/domain"
	"github.com/mtlprog/finreport/internal/report"
)

type mockReportRepo struct {
	series  map[string]domain.StockReport
	listErr error
}

func (m *mockReportRepo) Save(_ context.Context, s domain.StockReport) error {
	m.series[s.Ticker] = s
	return nil
}

func (m *mockReportRepo) AppendWith(_ context.Context, ticker string, latestUpdate int64, build report.BuildFunc) (domain.Report, int, error) {
	s := m.series[ticker]
	r := build(s.Latest())
	s.Ticker = ticker
	s.Version++
	s.LatestUpdate = &latestUpdate
	s.Data = append(s.Data, r)
	m.series[ticker] = s
	return r, s.Version, nil
}

func (m *mockReportRepo) Get(_ context.Context, ticker string) (*domain.StockReport, error) {
	s, ok := m.series[ticker]
	if !ok {
		return nil, report.ErrNotFound
	}
	return &s, nil
}

func (m *mockReportRepo) List(_ context.Context) ([]domain.StockReport, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]domain.StockReport, 0, len(m.series))
	for _, s := range m.series {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out, nil
}

func (m *mockReportRepo) ListTickers(ctx context.Context) ([]string, error) {
	all, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	tickers := make([]string, 0, len(all))
	for _, s := range all {
		tickers = append(tickers, s.Ticker)
	}
	return tickers, nil
}

func (m *mockReportRepo) Delete(_ context.Context, ticker string) error {
	if _, ok := m.series[ticker]; !ok {
		return report.ErrNotFound
	}
	delete(m.series, ticker)
	return nil
}

func newTestRouter(repo *mockReportRepo, adminKey string) http.Handler {
	if repo.series == nil {
		repo.series = make(map[string]domain.StockReport)
	}
	return NewRouter(report.NewService(repo, derive.NewProcessor()), adminKey)
}

func sampleReport(year int, revenue domain.Amount) domain.Report {
	return domain.Report{
		Year: year,
		IncomeStatement: domain.IncomeStatement{
			Revenue: revenue, TotalCOGS: 40, OperatingExpense: 20, InterestExpense: 1,
			NetIncome: 15, EPSBasic: 3, SharesOutstandingBasic: 5,
		},
		BalanceSheet: domain.BalanceSheet{
			CashAndEquivalents: 10, TotalAssets: 200, ShortTermDebt: 5, LongTermDebt: 20, TotalLiabilities: 80,
		},
		CashFlowStatement: domain.CashFlowStatement{
			OperatingCashFlow: 30, InvestingCashFlow: -10, CapitalExpenditure: 8, FinancingCashFlow: -5,
			DividendsPaid: 6, DividendsPerShare: 1.2,
		},
		FinancialRatios: domain.FinancialRatios{AvgSharePrice: 60},
	}
}

func doRequest(h http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestPushReportDerivesSeries(t *testing.T) {
	repo := &mockReportRepo{}
	h := newTestRouter(repo, "")

	body := domain.StockReport{Ticker: "PEP", Data: []domain.Report{sampleReport(2020, 100), sampleReport(2021, 150)}}
	w := doRequest(h, http.MethodPost, "/api/v1/reports", body)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", w.Code, w.Body.String())
	}

	var got domain.StockReport
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.LatestUpdate == nil {
		t.Error("latest-update was not set")
	}
	if got.Data[0].IncomeStatement.GrossProfit == nil || *got.Data[0].IncomeStatement.GrossProfit != 60 {
		t.Errorf("gross-profit = %v, want 60", got.Data[0].IncomeStatement.GrossProfit)
	}
	if got.Data[0].IncomeStatementYoY != nil {
		t.Error("first report should have no YoY block")
	}
	if yoy := got.Data[1].IncomeStatementYoY; yoy == nil || yoy.Revenue != 0.5 {
		t.Errorf("revenue growth = %v, want 0.5", yoy)
	}
	if _, ok := repo.series["PEP"]; !ok {
		t.Error("series was not stored")
	}
}

func TestPushReportLegacyRoute(t *testing.T) {
	h := newTestRouter(&mockReportRepo{}, "")

	body := domain.StockReport{Ticker: "KO", Data: []domain.Report{sampleReport(2020, 100)}}
	w := doRequest(h, http.MethodPost, "/push_initial_report", body)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", w.Code)
	}

	w = doRequest(h, http.MethodGet, "/items", nil)
	var list []domain.StockReport
	json.NewDecoder(w.Body).Decode(&list)
	if len(list) != 1 || list[0].Ticker != "KO" {
		t.Errorf("items = %+v, want one KO series", list)
	}
}

func TestPushReportMalformedBody(t *testing.T) {
	h := newTestRouter(&mockReportRepo{}, "")

	w := doRequest(h, http.MethodPost, "/api/v1/reports", `{"ticker": "PEP", "data": [`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "invalid request body") {
		t.Errorf("body = %s, want invalid request body error", w.Body.String())
	}
}

func TestPushReportEmptyTicker(t *testing.T) {
	h := newTestRouter(&mockReportRepo{}, "")

	w := doRequest(h, http.MethodPost, "/api/v1/reports", domain.StockReport{Ticker: "  "})

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestPushReportMissingBaseFields(t *testing.T) {
	repo := &mockReportRepo{}
	h := newTestRouter(repo, "")

	body := `{"ticker":"PEP","data":[{"year":2020,"income-statement":{},"balance-sheet":{},` +
		`"cash-flow-statement":{},"financial-ratios":{}}]}`
	w := doRequest(h, http.MethodPost, "/api/v1/reports", body)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body %s", w.Code, w.Body.String())
	}
	for _, want := range []string{"data[0].income-statement.revenue", "data[0].balance-sheet.total-assets", "data[0].financial-ratios.avg-share-price"} {
		if !strings.Contains(w.Body.String(), want) {
			t.Errorf("body = %s, want it to name %s", w.Body.String(), want)
		}
	}
	if len(repo.series) != 0 {
		t.Errorf("stored %d series, want none", len(repo.series))
	}
}

func TestPushReportMissingFieldInLaterReport(t *testing.T) {
	repo := &mockReportRepo{}
	h := newTestRouter(repo, "")

	second, _ := json.Marshal(sampleReport(2021, 150))
	var fields map[string]any
	json.Unmarshal(second, &fields)
	delete(fields["cash-flow-statement"].(map[string]any), "dividends-per-share")
	first, _ := json.Marshal(sampleReport(2020, 100))
	trimmed, _ := json.Marshal(fields)
	body := `{"ticker":"PEP","data":[` + string(first) + `,` + string(trimmed) + `]}`

	w := doRequest(h, http.MethodPost, "/api/v1/reports", body)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "data[1].cash-flow-statement.dividends-per-share") {
		t.Errorf("body = %s, want the missing field of the second report", w.Body.String())
	}
	if strings.Contains(w.Body.String(), "data[0]") {
		t.Errorf("body = %s, the first report is complete", w.Body.String())
	}
}

func TestPushReportRejectsPathTicker(t *testing.T) {
	repo := &mockReportRepo{}
	h := newTestRouter(repo, "")

	body := domain.StockReport{Ticker: "../escaped", Data: []domain.Report{sampleReport(2020, 100)}}
	w := doRequest(h, http.MethodPost, "/api/v1/reports", body)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if len(repo.series) != 0 {
		t.Errorf("stored %d series, want none", len(repo.series))
	}
}

func TestPushReportNonFiniteRoundTrip(t *testing.T) {
	h := newTestRouter(&mockReportRepo{}, "")

	r := sampleReport(2020, 0)
	w := doRequest(h, http.MethodPost, "/api/v1/reports", domain.StockReport{Ticker: "ZERO", Data: []domain.Report{r}})

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"operating-profit-margin":"-Infinity"`) {
		t.Errorf("body = %s, want -Infinity operating-profit-margin", w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"net-profit-margin":"Infinity"`) {
		t.Errorf("body = %s, want Infinity net-profit-margin", w.Body.String())
	}
}

func TestGetReport(t *testing.T) {
	repo := &mockReportRepo{series: map[string]domain.StockReport{
		"PEP": {Ticker: "PEP", Version: 2},
	}}
	h := newTestRouter(repo, "")

	w := doRequest(h, http.MethodGet, "/api/v1/reports/PEP", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var got domain.StockReport
	json.NewDecoder(w.Body).Decode(&got)
	if got.Version != 2 {
		t.Errorf("version = %d, want 2", got.Version)
	}

	w = doRequest(h, http.MethodGet, "/api/v1/reports/KO", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGetReportBlankTicker(t *testing.T) {
	h := newTestRouter(&mockReportRepo{}, "")

	w := doRequest(h, http.MethodGet, "/api/v1/reports/%20", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestListReportsError(t *testing.T) {
	h := newTestRouter(&mockReportRepo{listErr: errors.New("connection refused")}, "")

	w := doRequest(h, http.MethodGet, "/api/v1/reports", nil)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), "connection refused") {
		t.Error("internal error details leaked to the client")
	}
}

func TestAppendReport(t *testing.T) {
	repo := &mockReportRepo{}
	h := newTestRouter(repo, "")
	doRequest(h, http.MethodPost, "/api/v1/reports", domain.StockReport{Ticker: "PEP", Data: []domain.Report{sampleReport(2020, 100)}})

	w := doRequest(h, http.MethodPost, "/api/v1/reports/PEP/reports", sampleReport(2021, 200))
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", w.Code, w.Body.String())
	}

	var got domain.Report
	json.NewDecoder(w.Body).Decode(&got)
	if got.IncomeStatementYoY == nil || got.IncomeStatementYoY.Revenue != 1 {
		t.Errorf("revenue growth = %v, want 1", got.IncomeStatementYoY)
	}
	if n := len(repo.series["PEP"].Data); n != 2 {
		t.Errorf("stored reports = %d, want 2", n)
	}
}

func TestAppendReportMissingBaseFields(t *testing.T) {
	repo := &mockReportRepo{}
	h := newTestRouter(repo, "")

	w := doRequest(h, http.MethodPost, "/api/v1/reports/PEP/reports", `{"year":2021,"income-statement":{"revenue":null}}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "income-statement.revenue") {
		t.Errorf("body = %s, want it to name income-statement.revenue", w.Body.String())
	}
	if strings.Contains(w.Body.String(), "data[") {
		t.Errorf("body = %s, an appended report has no index", w.Body.String())
	}
	if len(repo.series) != 0 {
		t.Errorf("stored %d series, want none", len(repo.series))
	}
}

func TestRederiveReport(t *testing.T) {
	repo := &mockReportRepo{series: map[string]domain.StockReport{
		"PEP": {Ticker: "PEP", Data: []domain.Report{sampleReport(2020, 100)}},
	}}
	h := newTestRouter(repo, "")

	w := doRequest(h, http.MethodPost, "/api/v1/reports/PEP/rederive", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if repo.series["PEP"].Data[0].BalanceSheet.TotalDebt == nil {
		t.Error("stored series was not rederived")
	}

	w = doRequest(h, http.MethodPost, "/api/v1/reports/KO/rederive", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestDeleteReport(t *testing.T) {
	repo := &mockReportRepo{series: map[string]domain.StockReport{"PEP": {Ticker: "PEP"}}}
	h := newTestRouter(repo, "")

	w := doRequest(h, http.MethodDelete, "/api/v1/reports/PEP", nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}

	w = doRequest(h, http.MethodDelete, "/api/v1/reports/PEP", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
