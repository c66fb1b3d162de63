// Package report renders payroll aggregates into the four spreadsheet
// layouts and maintains the metadata side index over generated files.
package report

// AdminLayoutSpec pins the cell geometry of the consolidated admin report.
// The PDF reconstructor recovers structure from a generated file using the
// same constants, so generator and reconstructor cannot drift apart without
// a version bump here.
type AdminLayoutSpec struct {
	Version int

	TitleCell       string
	ProcessedByCell string
	// CreatorCell is the out-of-view cell carrying the raw username for
	// later metadata recovery.
	CreatorCell string

	SummaryHeaderRow int
	// SummaryStartCol shifts the summary table right to visually center it.
	SummaryStartCol int
	SummaryHeaders  []string

	GrandTotalLabel string
	DetailTitle     string

	// BandStartCols are the three fixed column offsets the detail section
	// tiles employees across; BandWidth includes one gap column.
	BandStartCols []int
	BandWidth     int
	DetailHeaders []string

	// Terminators end a band's day rows during reconstruction.
	TotalLabel      string
	RoundedLabel    string
	SignatureLabel  string
	DateLineLabel   string
	ProcessedPrefix string
}

// AdminLayout is the single source of truth for admin-report geometry,
// version 1.
var AdminLayout = AdminLayoutSpec{
	Version: 1,

	TitleCell:       "A1",
	ProcessedByCell: "A2",
	CreatorCell:     "AA1",

	SummaryHeaderRow: 3,
	SummaryStartCol:  8,
	SummaryHeaders:   []string{"Person ID", "Employee Name", "Total Hours", "Total Pay", "Rounded Pay"},

	GrandTotalLabel: "GRAND TOTAL",
	DetailTitle:     "Detailed Breakdown by Employee",

	BandStartCols: []int{1, 8, 15},
	BandWidth:     6,
	DetailHeaders: []string{"Date", "In", "Out", "Hours", "Pay"},

	TotalLabel:      "Total:",
	RoundedLabel:    "Rounded Pay:",
	SignatureLabel:  "Signature: _______________",
	DateLineLabel:   "Date: _________",
	ProcessedPrefix: "Processed by:",
}

// Report filename prefixes; the suffix is the run's week token.
const (
	AdminPrefix    = "admin_report_"
	SummaryPrefix  = "payroll_summary_"
	PayslipsPrefix = "employee_payslips_"
	CuttingPrefix  = "payslips_for_cutting_"
)

func AdminFilename(week string) string    { return AdminPrefix + week + ".xlsx" }
func SummaryFilename(week string) string  { return SummaryPrefix + week + ".xlsx" }
func PayslipsFilename(week string) string { return PayslipsPrefix + week + ".xlsx" }
func CuttingFilename(week string) string  { return CuttingPrefix + week + ".xlsx" }
