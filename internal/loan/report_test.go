package loan

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeReportPort struct {
	statuses    []StatusStat
	trends      []DisbursementStat
	products    []ProductStat
	total       int64
	outstanding float64
	active      int64
	decided     int64
	approved    int64
}

func (f *fakeReportPort) CountByStatus(ctx context.Context) ([]StatusStat, error) {
	return f.statuses, nil
}

func (f *fakeReportPort) DisbursementTrends(ctx context.Context, since time.Time) ([]DisbursementStat, error) {
	return f.trends, nil
}

func (f *fakeReportPort) CountByProduct(ctx context.Context) ([]ProductStat, error) {
	return f.products, nil
}

func (f *fakeReportPort) PortfolioTotals(ctx context.Context) (int64, float64, int64, int64, int64, error) {
	return f.total, f.outstanding, f.active, f.decided, f.approved, nil
}

func TestDashboardSummary(t *testing.T) {
	reports := NewReports(&fakeReportPort{
		total:       10,
		outstanding: 1_250_000,
		active:      4,
		decided:     6,
		approved:    4,
	})

	summary, err := reports.DashboardSummary(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(10), summary.TotalApplications)
	require.Equal(t, int64(4), summary.ActiveLoans)
	require.Equal(t, 66.67, summary.ApprovalRate)
	require.Equal(t, "Rp1.250.000,00", summary.TotalOutstandingLabel)
}

func TestDashboardSummaryNoDecisions(t *testing.T) {
	reports := NewReports(&fakeReportPort{total: 3})

	summary, err := reports.DashboardSummary(context.Background())
	require.NoError(t, err)
	require.Zero(t, summary.ApprovalRate)
}

func TestBestSellingProductsKeepsRanking(t *testing.T) {
	ranked := []ProductStat{
		{ProductName: "Gold 12 bln", Count: 9},
		{ProductName: "Silver 6 bln", Count: 5},
		{ProductName: "Bronze 6 bln", Count: 1},
	}
	reports := NewReports(&fakeReportPort{products: ranked})

	stats, err := reports.BestSellingProducts(context.Background())
	require.NoError(t, err)
	require.Equal(t, ranked, stats)
}
