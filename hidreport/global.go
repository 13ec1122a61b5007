package hidreport

// Global item tags (HID 1.11 §6.2.2.7 Table 8).
const (
	globalTagUsagePage = iota
	globalTagLogicalMinimum
	globalTagLogicalMaximum
	globalTagPhysicalMinimum
	globalTagPhysicalMaximum
	globalTagUnitExponent
	globalTagUnit
	globalTagReportSize
	globalTagReportID
	globalTagReportCount
	globalTagPush
	globalTagPop
)

// globalTable holds the Global item state, which persists across Main
// items (and across Collection boundaries) until overwritten.
type globalTable struct {
	usagePage       *uint16
	logicalMinimum  *int32
	logicalMaximum  *int32
	physicalMinimum *int32
	physicalMaximum *int32
	unitExponent    *uint32
	unit            *uint32
	reportSize      *uint32
	reportID        *uint8
	reportCount     *uint32
}
