package loan

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// StatusStat counts applications per status.
type StatusStat struct {
	Status Status `json:"status"`
	Count  int64  `json:"count"`
}

// DisbursementStat sums disbursed principal per calendar month.
type DisbursementStat struct {
	Year   string  `json:"year"`
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
}

// ProductStat counts applications per product for the best-sellers widget.
type ProductStat struct {
	ProductName string `json:"productName"`
	Count       int64  `json:"count"`
}

// Summary is the dashboard KPI block.
type Summary struct {
	TotalApplications     int64   `json:"totalApplications"`
	TotalOutstanding      float64 `json:"totalOutstanding"`
	TotalOutstandingLabel string  `json:"totalOutstandingLabel"`
	ActiveLoans           int64   `json:"activeLoans"`
	ApprovalRate          float64 `json:"approvalRate"`
}

// ReportPort describes the aggregate queries behind the dashboard.
type ReportPort interface {
	CountByStatus(ctx context.Context) ([]StatusStat, error)
	DisbursementTrends(ctx context.Context, since time.Time) ([]DisbursementStat, error)
	CountByProduct(ctx context.Context) ([]ProductStat, error)
	PortfolioTotals(ctx context.Context) (total int64, outstanding float64, active int64, decided int64, approved int64, err error)
}

// Reports serves the read-only dashboard statistics.
type Reports struct {
	repo ReportPort
}

// NewReports constructs the report service.
func NewReports(repo ReportPort) *Reports {
	return &Reports{repo: repo}
}

// ApplicationsByStatus returns counts for every lifecycle status.
func (r *Reports) ApplicationsByStatus(ctx context.Context) ([]StatusStat, error) {
	return r.repo.CountByStatus(ctx)
}

// DisbursementTrends returns monthly disbursed amounts for the past year.
func (r *Reports) DisbursementTrends(ctx context.Context) ([]DisbursementStat, error) {
	since := time.Now().UTC().AddDate(-1, 0, 0)
	return r.repo.DisbursementTrends(ctx, since)
}

// BestSellingProducts ranks products by the number of applications taken
// against them.
func (r *Reports) BestSellingProducts(ctx context.Context) ([]ProductStat, error) {
	return r.repo.CountByProduct(ctx)
}

// DashboardSummary assembles the KPI block.
func (r *Reports) DashboardSummary(ctx context.Context) (Summary, error) {
	total, outstanding, active, decided, approved, err := r.repo.PortfolioTotals(ctx)
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{
		TotalApplications:     total,
		TotalOutstanding:      outstanding,
		TotalOutstandingLabel: FormatIDR(outstanding),
		ActiveLoans:           active,
	}
	if decided > 0 {
		summary.ApprovalRate = round2(float64(approved) / float64(decided) * 100)
	}
	return summary, nil
}

var idrPrinter = message.NewPrinter(language.Indonesian)

// FormatIDR renders an amount with Indonesian digit grouping, e.g.
// "Rp1.250.000,00".
func FormatIDR(amount float64) string {
	return idrPrinter.Sprintf("Rp%.2f", amount)
}

// CountByStatus implements ReportPort.
func (r *Repository) CountByStatus(ctx context.Context) ([]StatusStat, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM loans GROUP BY status ORDER BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var stats []StatusStat
	for rows.Next() {
		var stat StatusStat
		if err := rows.Scan(&stat.Status, &stat.Count); err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

// DisbursementTrends implements ReportPort. A loan counts toward the month
// its DISBURSED history entry was recorded.
func (r *Repository) DisbursementTrends(ctx context.Context, since time.Time) ([]DisbursementStat, error) {
	rows, err := r.pool.Query(ctx, `SELECT to_char(h.performed_at, 'YYYY') AS year, to_char(h.performed_at, 'MM') AS month, COALESCE(SUM(l.principal_debt), 0)
FROM loan_status_histories h JOIN loans l ON l.id = h.loan_id
WHERE h.action = 'DISBURSED' AND h.performed_at >= $1
GROUP BY 1, 2 ORDER BY 1, 2`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var stats []DisbursementStat
	for rows.Next() {
		var stat DisbursementStat
		if err := rows.Scan(&stat.Year, &stat.Month, &stat.Amount); err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

// CountByProduct implements ReportPort. Products carry no name of their own,
// so the label combines the plafond name with the tenor.
func (r *Repository) CountByProduct(ctx context.Context) ([]ProductStat, error) {
	rows, err := r.pool.Query(ctx, `SELECT pl.name, p.tenor, COUNT(*) AS applications
FROM loans l
JOIN products p ON p.id = l.product_id
JOIN plafonds pl ON pl.id = p.plafond_id
GROUP BY pl.name, p.tenor
ORDER BY applications DESC, pl.name, p.tenor`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var stats []ProductStat
	for rows.Next() {
		var name string
		var tenor int
		var stat ProductStat
		if err := rows.Scan(&name, &tenor, &stat.Count); err != nil {
			return nil, err
		}
		stat.ProductName = fmt.Sprintf("%s %d bln", name, tenor)
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

// PortfolioTotals implements ReportPort. Active loans are disbursed loans
// with outstanding debt remaining; the approval rate is approved-or-later
// over all decided applications.
func (r *Repository) PortfolioTotals(ctx context.Context) (int64, float64, int64, int64, int64, error) {
	row := r.pool.QueryRow(ctx, `SELECT COUNT(*),
COALESCE(SUM(outstanding_debt) FILTER (WHERE status = 'DISBURSED'), 0),
COUNT(*) FILTER (WHERE status = 'DISBURSED' AND outstanding_debt > 0),
COUNT(*) FILTER (WHERE status IN ('APPROVED', 'REJECTED', 'DISBURSED')),
COUNT(*) FILTER (WHERE status IN ('APPROVED', 'DISBURSED'))
FROM loans`)
	var total, active, decided, approved int64
	var outstanding float64
	if err := row.Scan(&total, &outstanding, &active, &decided, &approved); err != nil {
		return 0, 0, 0, 0, 0, err
	}
	return total, outstanding, active, decided, approved, nil
}

var _ ReportPort = (*Repository)(nil)
