package hidreport

// buildLocalUsage turns a raw Local Usage/UsageMinimum/UsageMaximum item
// into a localUsage: a 4-byte item is an extended usage carrying its own
// page in the upper 16 bits (low 16 bits are the usage id — not the low
// 8, which a since-fixed defect in the original implementation used),
// a 1- or 2-byte item is a plain usage id scoped by the enclosing
// Global usage page.
func buildLocalUsage(item Item) localUsage {
	if item.Size == 4 {
		page := uint16(item.Data >> 16)
		return localUsage{page: &page, usage: uint16(item.Data)}
	}
	return localUsage{usage: uint16(item.Data)}
}
